package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/pkg/pg"
	"gorm.io/gorm"
)

// settingsRowID pins the singleton row.
const settingsRowID = 1

type SettingsRepository struct {
	*pg.DB
}

func NewSettingsRepository(db *pg.DB) *SettingsRepository {
	return &SettingsRepository{
		db,
	}
}

func (r *SettingsRepository) Get(ctx context.Context) (*model.Settings, error) {
	var entity SettingsEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", settingsRowID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.Settings{ID: settingsRowID, CurrencyCode: "IDR", LowStockThreshold: 5}, nil
		}
		return nil, err
	}
	return toSettingsModel(&entity), nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, s *model.Settings) (*model.Settings, error) {
	s.ID = settingsRowID
	entity := toSettingsEntity(s)

	err := r.Write(ctx).WithContext(ctx).Save(entity).Error
	if err != nil {
		return nil, err
	}
	return toSettingsModel(entity), nil
}
