package repository

import (
	"time"

	"github.com/nimasrn/canteen-gateway/internal/model"
)

type TopUpEntity struct {
	ID         int64      `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	StudentID  int64      `db:"student_id"  gorm:"column:student_id;not null;index"`
	ParentID   *int64     `db:"parent_id"   gorm:"column:parent_id;index"`
	Amount     uint       `db:"amount"      gorm:"column:amount;not null"`
	Method     string     `db:"method"      gorm:"column:method;not null"`
	Status     string     `db:"status"      gorm:"column:status;not null;index"`
	ApprovedBy *int64     `db:"approved_by" gorm:"column:approved_by"`
	ApprovedAt *time.Time `db:"approved_at" gorm:"column:approved_at"`
	ProofImage string     `db:"proof_image" gorm:"column:proof_image"`
	Notes      string     `db:"notes"       gorm:"column:notes"`
	CreatedAt  time.Time  `db:"created_at"  gorm:"column:created_at;autoCreateTime"`
}

func (TopUpEntity) TableName() string {
	return "topups"
}

func toTopUpEntity(m *model.TopUp) *TopUpEntity {
	if m == nil {
		return nil
	}
	return &TopUpEntity{
		ID:         m.ID,
		StudentID:  m.StudentID,
		ParentID:   m.ParentID,
		Amount:     m.Amount,
		Method:     m.Method,
		Status:     string(m.Status),
		ApprovedBy: m.ApprovedBy,
		ApprovedAt: m.ApprovedAt,
		ProofImage: m.ProofImage,
		Notes:      m.Notes,
		CreatedAt:  m.CreatedAt,
	}
}

func toTopUpModel(e *TopUpEntity) *model.TopUp {
	if e == nil {
		return nil
	}
	return &model.TopUp{
		ID:         e.ID,
		StudentID:  e.StudentID,
		ParentID:   e.ParentID,
		Amount:     e.Amount,
		Method:     e.Method,
		Status:     model.TopUpStatus(e.Status),
		ApprovedBy: e.ApprovedBy,
		ApprovedAt: e.ApprovedAt,
		ProofImage: e.ProofImage,
		Notes:      e.Notes,
		CreatedAt:  e.CreatedAt,
	}
}

func toTopUpModels(entities []*TopUpEntity) []*model.TopUp {
	if entities == nil {
		return nil
	}
	models := make([]*model.TopUp, len(entities))
	for i, e := range entities {
		models[i] = toTopUpModel(e)
	}
	return models
}
