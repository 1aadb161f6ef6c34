package repository

import (
	"context"

	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/pkg/pg"
)

type NotificationLogRepository struct {
	*pg.DB
}

func NewNotificationLogRepository(db *pg.DB) *NotificationLogRepository {
	return &NotificationLogRepository{
		db,
	}
}

func (r *NotificationLogRepository) Create(ctx context.Context, n *model.NotificationLog) (*model.NotificationLog, error) {
	entity := toNotificationLogEntity(n)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toNotificationLogModel(entity), nil
}
