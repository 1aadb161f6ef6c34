package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrStudentNotFound     = errors.New("student not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrConcurrentUpdate    = errors.New("concurrent update detected")
	ErrMaxRetriesExceeded  = errors.New("max retries exceeded")
)

type StudentRepository struct {
	*pg.DB
}

func NewStudentRepository(db *pg.DB) *StudentRepository {
	return &StudentRepository{
		db,
	}
}

func (r *StudentRepository) Create(ctx context.Context, s *model.Student) (*model.Student, error) {
	entity := toStudentEntity(s)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toStudentModel(entity), nil
}

func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	var entity StudentEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return toStudentModel(&entity), nil
}

func (r *StudentRepository) GetByUserID(ctx context.Context, userID int64) (*model.Student, error) {
	var entity StudentEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return toStudentModel(&entity), nil
}

func (r *StudentRepository) GetByNIS(ctx context.Context, nis string) (*model.Student, error) {
	var entity StudentEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("nis = ?", nis).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return toStudentModel(&entity), nil
}

// GetByEmail resolves a student through its user account email.
func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*model.Student, error) {
	var entity StudentEntity
	err := r.Read(ctx).WithContext(ctx).
		Table("students").
		Joins("JOIN users ON users.id = students.user_id").
		Where("users.email = ?", email).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return toStudentModel(&entity), nil
}

// ListByParent returns the students linked to a parent through the
// parent_students table.
func (r *StudentRepository) ListByParent(ctx context.Context, parentID int64) ([]*model.Student, error) {
	var entities []*StudentEntity
	err := r.Read(ctx).WithContext(ctx).
		Table("students").
		Joins("JOIN parent_students ON parent_students.student_id = students.id").
		Where("parent_students.parent_id = ?", parentID).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toStudentModels(entities), nil
}

func (r *StudentRepository) List(ctx context.Context, f model.StudentFilter) ([]*model.Student, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&StudentEntity{})

	if f.Class != nil && *f.Class != "" {
		q = q.Where("class = ?", *f.Class)
	}
	if f.Search != nil && *f.Search != "" {
		like := "%" + *f.Search + "%"
		q = q.Where("name LIKE ? OR nis LIKE ?", like, like)
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

	var entities []*StudentEntity
	if err := q.Order("name ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toStudentModels(entities), total, nil
}

// DeductBalance performs atomic balance deduction with automatic retry.
// This is used for balance-paid purchases.
func (r *StudentRepository) DeductBalance(ctx context.Context, studentID int64, amount uint) error {
	const maxRetries = 3
	const baseDelay = 2 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := r.deductBalanceAttempt(ctx, studentID, amount)

		if err == nil {
			return nil
		}

		// Don't retry on permanent errors
		if errors.Is(err, ErrStudentNotFound) ||
			errors.Is(err, ErrInsufficientBalance) {
			return err
		}

		// Retry on transient errors
		if attempt < maxRetries {
			delay := baseDelay * time.Duration(1<<attempt) // Exponential backoff: 2ms, 4ms, 8ms
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
	}

	return fmt.Errorf("%w: failed after %d attempts", ErrMaxRetriesExceeded, maxRetries+1)
}

func (r *StudentRepository) deductBalanceAttempt(ctx context.Context, studentID int64, amount uint) error {
	var entity StudentEntity

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", studentID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	if entity.Balance < amount {
		return ErrInsufficientBalance
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&StudentEntity{}).
		Where("id = ?", studentID).
		Update("balance", gorm.Expr("balance - ?", amount))

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}

	return nil
}

// AddBalance performs atomic balance addition with automatic retry using
// SELECT FOR UPDATE. This is used for top-up credits and cancellations.
func (r *StudentRepository) AddBalance(ctx context.Context, studentID int64, amount uint) error {
	const maxRetries = 3
	const baseDelay = 2 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := r.addBalanceAttempt(ctx, studentID, amount)

		if err == nil {
			return nil
		}

		if errors.Is(err, ErrStudentNotFound) {
			return err
		}

		if attempt < maxRetries {
			delay := baseDelay * time.Duration(1<<attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
	}

	return fmt.Errorf("%w: failed after %d attempts", ErrMaxRetriesExceeded, maxRetries+1)
}

func (r *StudentRepository) addBalanceAttempt(ctx context.Context, studentID int64, amount uint) error {
	var entity StudentEntity

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", studentID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&StudentEntity{}).
		Where("id = ?", studentID).
		Update("balance", gorm.Expr("balance + ?", amount))

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrStudentNotFound
	}

	return nil
}

func (r *StudentRepository) GetBalance(ctx context.Context, studentID int64) (uint, error) {
	var entity StudentEntity
	err := r.Read(ctx).WithContext(ctx).
		Select("balance").
		Where("id = ?", studentID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrStudentNotFound
		}
		return 0, err
	}

	return entity.Balance, nil
}
