package model

import "errors"

// Settings is the institution-wide singleton.
type Settings struct {
	ID                int64  `json:"id"`
	CanteenName       string `json:"canteen_name"`
	CurrencyCode      string `json:"currency_code"`
	DailySpendLimit   uint   `json:"daily_spend_limit"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

func (Settings) TableName() string { return "settings" }

type SettingsUpdateRequest struct {
	CanteenName       string `json:"canteen_name"`
	CurrencyCode      string `json:"currency_code"`
	DailySpendLimit   uint   `json:"daily_spend_limit"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

func (p SettingsUpdateRequest) Validate() error {
	if p.CanteenName == "" {
		return errors.New("canteen_name is required")
	}
	if p.CurrencyCode == "" {
		return errors.New("currency_code is required")
	}
	if p.LowStockThreshold < 0 {
		return errors.New("low_stock_threshold cannot be negative")
	}
	return nil
}
