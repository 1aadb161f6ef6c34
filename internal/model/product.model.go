package model

import (
	"errors"
	"strings"
	"time"
)

// ProductStatus is derived solely from stock: OUT_OF_STOCK iff stock == 0.
type ProductStatus string

const (
	ProductStatusAvailable  ProductStatus = "AVAILABLE"
	ProductStatusOutOfStock ProductStatus = "OUT_OF_STOCK"
)

func DeriveProductStatus(stock int) ProductStatus {
	if stock == 0 {
		return ProductStatusOutOfStock
	}
	return ProductStatusAvailable
}

type Product struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Price     uint          `json:"price"`
	Stock     int           `json:"stock"`
	Category  string        `json:"category"`
	ImageURL  string        `json:"image_url"`
	Status    ProductStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

type ProductCreateRequest struct {
	Name     string
	Price    uint
	Stock    int
	Category string
	ImageURL string
}

func (p ProductCreateRequest) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if p.Stock < 0 {
		return errors.New("stock cannot be negative")
	}
	if strings.TrimSpace(p.Category) == "" {
		return errors.New("category is required")
	}
	return nil
}

type ProductUpdateRequest struct {
	Name     *string
	Price    *uint
	Stock    *int
	Category *string
	ImageURL *string
}

type ProductFilter struct {
	Category *string
	Status   *ProductStatus
	Search   *string // matches name
	Limit    int
	Offset   int
}
