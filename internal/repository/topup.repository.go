package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrTopUpNotFound   = errors.New("top-up not found")
	ErrTopUpNotPending = errors.New("top-up is not pending")
)

type TopUpRepository struct {
	*pg.DB
}

func NewTopUpRepository(db *pg.DB) *TopUpRepository {
	return &TopUpRepository{
		db,
	}
}

func (r *TopUpRepository) Create(ctx context.Context, t *model.TopUp) (*model.TopUp, error) {
	entity := toTopUpEntity(t)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toTopUpModel(entity), nil
}

func (r *TopUpRepository) GetByID(ctx context.Context, id int64) (*model.TopUp, error) {
	var entity TopUpEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopUpNotFound
		}
		return nil, err
	}
	return toTopUpModel(&entity), nil
}

func (r *TopUpRepository) List(ctx context.Context, f model.TopUpFilter) ([]*model.TopUp, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&TopUpEntity{})

	if f.StudentID != nil {
		q = q.Where("student_id = ?", *f.StudentID)
	}
	if f.ParentID != nil {
		q = q.Where("parent_id = ?", *f.ParentID)
	}
	if f.Status != nil && *f.Status != "" {
		q = q.Where("status = ?", string(*f.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*TopUpEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toTopUpModels(entities), total, nil
}

// MarkApproved transitions PENDING to APPROVED and stamps the approver. The
// conditional update guarantees the transition fires at most once; a second
// actor gets ErrTopUpNotPending.
func (r *TopUpRepository) MarkApproved(ctx context.Context, id int64, adminID int64, at time.Time) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&TopUpEntity{}).
		Where("id = ? AND status = ?", id, string(model.TopUpStatusPending)).
		Updates(map[string]interface{}{
			"status":      string(model.TopUpStatusApproved),
			"approved_by": adminID,
			"approved_at": at,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return r.notPendingReason(ctx, id)
	}

	return nil
}

// MarkRejected transitions PENDING to REJECTED and appends the reason to
// notes. No balance change.
func (r *TopUpRepository) MarkRejected(ctx context.Context, id int64, adminID int64, at time.Time, reason string) error {
	var entity TopUpEntity
	err := r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTopUpNotFound
		}
		return err
	}

	notes := entity.Notes
	if reason != "" {
		if notes != "" {
			notes = strings.TrimRight(notes, "\n") + "\n" + reason
		} else {
			notes = reason
		}
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&TopUpEntity{}).
		Where("id = ? AND status = ?", id, string(model.TopUpStatusPending)).
		Updates(map[string]interface{}{
			"status":      string(model.TopUpStatusRejected),
			"approved_by": adminID,
			"approved_at": at,
			"notes":       notes,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return r.notPendingReason(ctx, id)
	}

	return nil
}

func (r *TopUpRepository) notPendingReason(ctx context.Context, id int64) error {
	var entity TopUpEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTopUpNotFound
		}
		return err
	}
	return ErrTopUpNotPending
}
