package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrAdminNotFound  = errors.New("admin not found")
	ErrParentNotFound = errors.New("parent not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

type UserRepository struct {
	*pg.DB
}

func NewUserRepository(db *pg.DB) *UserRepository {
	return &UserRepository{
		db,
	}
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) (*model.User, error) {
	entity := toUserEntity(u)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate key") {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return toUserModel(entity), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var entity UserEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUserModel(&entity), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var entity UserEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("email = ?", email).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUserModel(&entity), nil
}

func (r *UserRepository) List(ctx context.Context, f model.UserFilter) ([]*model.User, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&UserEntity{})

	if f.Role != nil && *f.Role != "" {
		q = q.Where("role = ?", string(*f.Role))
	}
	if f.Status != nil && *f.Status != "" {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.Search != nil && *f.Search != "" {
		like := "%" + *f.Search + "%"
		q = q.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*UserEntity
	if err := q.Order("name ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toUserModels(entities), total, nil
}

func (r *UserRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) (*model.User, error) {
	if len(updates) > 0 {
		result := r.Write(ctx).WithContext(ctx).
			Model(&UserEntity{}).
			Where("id = ?", id).
			Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrUserNotFound
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes the user row and cascades to whichever role profile is
// attached, plus parent↔student links for parents.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	switch user.Role {
	case model.RoleStudent:
		var s StudentEntity
		if err := r.Write(ctx).WithContext(ctx).Where("user_id = ?", id).First(&s).Error; err == nil {
			r.Write(ctx).WithContext(ctx).Where("student_id = ?", s.ID).Delete(&ParentStudentEntity{})
			r.Write(ctx).WithContext(ctx).Where("id = ?", s.ID).Delete(&StudentEntity{})
		}
	case model.RoleCashier:
		r.Write(ctx).WithContext(ctx).Where("user_id = ?", id).Delete(&CashierEntity{})
	case model.RoleAdmin:
		r.Write(ctx).WithContext(ctx).Where("user_id = ?", id).Delete(&AdminEntity{})
	case model.RoleParent:
		var p ParentEntity
		if err := r.Write(ctx).WithContext(ctx).Where("user_id = ?", id).First(&p).Error; err == nil {
			r.Write(ctx).WithContext(ctx).Where("parent_id = ?", p.ID).Delete(&ParentStudentEntity{})
			r.Write(ctx).WithContext(ctx).Where("id = ?", p.ID).Delete(&ParentEntity{})
		}
	}

	result := r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&UserEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) CreateCashier(ctx context.Context, c *model.Cashier) (*model.Cashier, error) {
	entity := &CashierEntity{UserID: c.UserID, Name: c.Name, Shift: c.Shift}
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toCashierModel(entity), nil
}

func (r *UserRepository) CreateAdmin(ctx context.Context, a *model.Admin) (*model.Admin, error) {
	entity := &AdminEntity{UserID: a.UserID, Name: a.Name}
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toAdminModel(entity), nil
}

func (r *UserRepository) CreateParent(ctx context.Context, p *model.Parent) (*model.Parent, error) {
	entity := &ParentEntity{UserID: p.UserID, Name: p.Name, Phone: p.Phone}
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toParentModel(entity), nil
}

func (r *UserRepository) GetCashierByUserID(ctx context.Context, userID int64) (*model.Cashier, error) {
	var entity CashierEntity
	err := r.Read(ctx).WithContext(ctx).Where("user_id = ?", userID).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toCashierModel(&entity), nil
}

func (r *UserRepository) GetAdminByUserID(ctx context.Context, userID int64) (*model.Admin, error) {
	var entity AdminEntity
	err := r.Read(ctx).WithContext(ctx).Where("user_id = ?", userID).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return toAdminModel(&entity), nil
}

func (r *UserRepository) GetParentByUserID(ctx context.Context, userID int64) (*model.Parent, error) {
	var entity ParentEntity
	err := r.Read(ctx).WithContext(ctx).Where("user_id = ?", userID).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParentNotFound
		}
		return nil, err
	}
	return toParentModel(&entity), nil
}

func (r *UserRepository) GetParentByID(ctx context.Context, id int64) (*model.Parent, error) {
	var entity ParentEntity
	err := r.Read(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParentNotFound
		}
		return nil, err
	}
	return toParentModel(&entity), nil
}

// GetParentEmailByID resolves the account email behind a parent profile for
// notification delivery.
func (r *UserRepository) GetParentEmailByID(ctx context.Context, parentID int64) (string, error) {
	var entity UserEntity
	err := r.Read(ctx).WithContext(ctx).
		Table("users").
		Joins("JOIN parents ON parents.user_id = users.id").
		Where("parents.id = ?", parentID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrParentNotFound
		}
		return "", err
	}
	return entity.Email, nil
}

func (r *UserRepository) LinkParentStudent(ctx context.Context, parentID, studentID int64) error {
	entity := &ParentStudentEntity{ParentID: parentID, StudentID: studentID}
	return r.Write(ctx).WithContext(ctx).Create(entity).Error
}

func (r *UserRepository) IsParentLinked(ctx context.Context, parentID, studentID int64) (bool, error) {
	var count int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&ParentStudentEntity{}).
		Where("parent_id = ? AND student_id = ?", parentID, studentID).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
