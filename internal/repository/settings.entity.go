package repository

import (
	"github.com/nimasrn/canteen-gateway/internal/model"
)

type SettingsEntity struct {
	ID                int64  `db:"id"                  gorm:"primaryKey;column:id"`
	CanteenName       string `db:"canteen_name"        gorm:"column:canteen_name;not null"`
	CurrencyCode      string `db:"currency_code"       gorm:"column:currency_code;not null;default:IDR"`
	DailySpendLimit   uint   `db:"daily_spend_limit"   gorm:"column:daily_spend_limit;not null;default:0"`
	LowStockThreshold int    `db:"low_stock_threshold" gorm:"column:low_stock_threshold;not null;default:5"`
}

func (SettingsEntity) TableName() string {
	return "settings"
}

func toSettingsEntity(m *model.Settings) *SettingsEntity {
	if m == nil {
		return nil
	}
	return &SettingsEntity{
		ID:                m.ID,
		CanteenName:       m.CanteenName,
		CurrencyCode:      m.CurrencyCode,
		DailySpendLimit:   m.DailySpendLimit,
		LowStockThreshold: m.LowStockThreshold,
	}
}

func toSettingsModel(e *SettingsEntity) *model.Settings {
	if e == nil {
		return nil
	}
	return &model.Settings{
		ID:                e.ID,
		CanteenName:       e.CanteenName,
		CurrencyCode:      e.CurrencyCode,
		DailySpendLimit:   e.DailySpendLimit,
		LowStockThreshold: e.LowStockThreshold,
	}
}
