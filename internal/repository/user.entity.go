package repository

import (
	"time"

	"github.com/nimasrn/canteen-gateway/internal/model"
)

type UserEntity struct {
	ID           int64     `db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	Email        string    `db:"email"         gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string    `db:"password_hash" gorm:"column:password_hash;not null"`
	Name         string    `db:"name"          gorm:"column:name;not null"`
	Role         string    `db:"role"          gorm:"column:role;not null;index"`
	Status       string    `db:"status"        gorm:"column:status;not null;default:ACTIVE"`
	CreatedAt    time.Time `db:"created_at"    gorm:"column:created_at;autoCreateTime"`
}

func (UserEntity) TableName() string {
	return "users"
}

type CashierEntity struct {
	ID     int64  `db:"id"      gorm:"primaryKey;autoIncrement;column:id"`
	UserID int64  `db:"user_id" gorm:"column:user_id;not null;uniqueIndex"`
	Name   string `db:"name"    gorm:"column:name;not null"`
	Shift  string `db:"shift"   gorm:"column:shift"`
}

func (CashierEntity) TableName() string {
	return "cashiers"
}

type AdminEntity struct {
	ID     int64  `db:"id"      gorm:"primaryKey;autoIncrement;column:id"`
	UserID int64  `db:"user_id" gorm:"column:user_id;not null;uniqueIndex"`
	Name   string `db:"name"    gorm:"column:name;not null"`
}

func (AdminEntity) TableName() string {
	return "admins"
}

type ParentEntity struct {
	ID     int64  `db:"id"      gorm:"primaryKey;autoIncrement;column:id"`
	UserID int64  `db:"user_id" gorm:"column:user_id;not null;uniqueIndex"`
	Name   string `db:"name"    gorm:"column:name;not null"`
	Phone  string `db:"phone"   gorm:"column:phone"`
}

func (ParentEntity) TableName() string {
	return "parents"
}

// ParentStudentEntity is the parent↔student linking table.
type ParentStudentEntity struct {
	ID        int64 `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	ParentID  int64 `db:"parent_id"  gorm:"column:parent_id;not null;index:idx_parent_student,unique"`
	StudentID int64 `db:"student_id" gorm:"column:student_id;not null;index:idx_parent_student,unique"`
}

func (ParentStudentEntity) TableName() string {
	return "parent_students"
}

func toUserEntity(m *model.User) *UserEntity {
	if m == nil {
		return nil
	}
	return &UserEntity{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Name:         m.Name,
		Role:         string(m.Role),
		Status:       string(m.Status),
		CreatedAt:    m.CreatedAt,
	}
}

func toUserModel(e *UserEntity) *model.User {
	if e == nil {
		return nil
	}
	return &model.User{
		ID:           e.ID,
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		Name:         e.Name,
		Role:         model.Role(e.Role),
		Status:       model.UserStatus(e.Status),
		CreatedAt:    e.CreatedAt,
	}
}

func toUserModels(entities []*UserEntity) []*model.User {
	if entities == nil {
		return nil
	}
	models := make([]*model.User, len(entities))
	for i, e := range entities {
		models[i] = toUserModel(e)
	}
	return models
}

func toCashierModel(e *CashierEntity) *model.Cashier {
	if e == nil {
		return nil
	}
	return &model.Cashier{ID: e.ID, UserID: e.UserID, Name: e.Name, Shift: e.Shift}
}

func toAdminModel(e *AdminEntity) *model.Admin {
	if e == nil {
		return nil
	}
	return &model.Admin{ID: e.ID, UserID: e.UserID, Name: e.Name}
}

func toParentModel(e *ParentEntity) *model.Parent {
	if e == nil {
		return nil
	}
	return &model.Parent{ID: e.ID, UserID: e.UserID, Name: e.Name, Phone: e.Phone}
}
