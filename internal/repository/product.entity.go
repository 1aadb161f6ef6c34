package repository

import (
	"time"

	"github.com/nimasrn/canteen-gateway/internal/model"
)

type ProductEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	Name      string    `db:"name"       gorm:"column:name;not null"`
	Price     uint      `db:"price"      gorm:"column:price;not null"`
	Stock     int       `db:"stock"      gorm:"column:stock;not null;default:0"`
	Category  string    `db:"category"   gorm:"column:category;not null;index"`
	ImageURL  string    `db:"image_url"  gorm:"column:image_url"`
	Status    string    `db:"status"     gorm:"column:status;not null;index"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (ProductEntity) TableName() string {
	return "products"
}

func toProductEntity(m *model.Product) *ProductEntity {
	if m == nil {
		return nil
	}
	return &ProductEntity{
		ID:        m.ID,
		Name:      m.Name,
		Price:     m.Price,
		Stock:     m.Stock,
		Category:  m.Category,
		ImageURL:  m.ImageURL,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toProductModel(e *ProductEntity) *model.Product {
	if e == nil {
		return nil
	}
	return &model.Product{
		ID:        e.ID,
		Name:      e.Name,
		Price:     e.Price,
		Stock:     e.Stock,
		Category:  e.Category,
		ImageURL:  e.ImageURL,
		Status:    model.ProductStatus(e.Status),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func toProductModels(entities []*ProductEntity) []*model.Product {
	if entities == nil {
		return nil
	}
	models := make([]*model.Product, len(entities))
	for i, e := range entities {
		models[i] = toProductModel(e)
	}
	return models
}
