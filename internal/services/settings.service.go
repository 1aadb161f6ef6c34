package services

import (
	"context"

	"github.com/nimasrn/canteen-gateway/internal/model"
)

type SettingsRepository interface {
	Get(ctx context.Context) (*model.Settings, error)
	Upsert(ctx context.Context, s *model.Settings) (*model.Settings, error)
}

type SettingsService struct {
	settingsRepo SettingsRepository
}

func NewSettingsService(settingsRepo SettingsRepository) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
	}
}

func (s *SettingsService) Get(ctx context.Context) (*model.Settings, error) {
	return s.settingsRepo.Get(ctx)
}

// Update replaces the settings singleton in full.
func (s *SettingsService) Update(ctx context.Context, p model.SettingsUpdateRequest) (*model.Settings, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	return s.settingsRepo.Upsert(ctx, &model.Settings{
		CanteenName:       p.CanteenName,
		CurrencyCode:      p.CurrencyCode,
		DailySpendLimit:   p.DailySpendLimit,
		LowStockThreshold: p.LowStockThreshold,
	})
}
