package repository

import (
	"github.com/nimasrn/canteen-gateway/internal/model"
)

type StudentEntity struct {
	ID      int64  `db:"id"      gorm:"primaryKey;autoIncrement;column:id"`
	UserID  int64  `db:"user_id" gorm:"column:user_id;not null;uniqueIndex"`
	NIS     string `db:"nis"     gorm:"column:nis;not null;uniqueIndex"`
	Name    string `db:"name"    gorm:"column:name;not null"`
	Class   string `db:"class"   gorm:"column:class"`
	Balance uint   `db:"balance" gorm:"column:balance;not null;default:0"`
}

func (StudentEntity) TableName() string {
	return "students"
}

func toStudentEntity(m *model.Student) *StudentEntity {
	if m == nil {
		return nil
	}
	return &StudentEntity{
		ID:      m.ID,
		UserID:  m.UserID,
		NIS:     m.NIS,
		Name:    m.Name,
		Class:   m.Class,
		Balance: m.Balance,
	}
}

func toStudentModel(e *StudentEntity) *model.Student {
	if e == nil {
		return nil
	}
	return &model.Student{
		ID:      e.ID,
		UserID:  e.UserID,
		NIS:     e.NIS,
		Name:    e.Name,
		Class:   e.Class,
		Balance: e.Balance,
	}
}

func toStudentModels(entities []*StudentEntity) []*model.Student {
	if entities == nil {
		return nil
	}
	models := make([]*model.Student, len(entities))
	for i, e := range entities {
		models[i] = toStudentModel(e)
	}
	return models
}
