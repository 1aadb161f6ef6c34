package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type ProductRepository struct {
	*pg.DB
}

func NewProductRepository(db *pg.DB) *ProductRepository {
	return &ProductRepository{
		db,
	}
}

func (r *ProductRepository) Create(ctx context.Context, p *model.Product) (*model.Product, error) {
	p.Status = model.DeriveProductStatus(p.Stock)
	entity := toProductEntity(p)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toProductModel(entity), nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var entity ProductEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return toProductModel(&entity), nil
}

func (r *ProductRepository) List(ctx context.Context, f model.ProductFilter) ([]*model.Product, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&ProductEntity{})

	if f.Category != nil && *f.Category != "" {
		q = q.Where("category = ?", *f.Category)
	}
	if f.Status != nil && *f.Status != "" {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.Search != nil && *f.Search != "" {
		q = q.Where("name LIKE ?", "%"+*f.Search+"%")
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

	var entities []*ProductEntity
	if err := q.Order("name ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toProductModels(entities), total, nil
}

// Update applies the non-nil fields. A stock change recomputes status in the
// same write so stock and status never disagree.
func (r *ProductRepository) Update(ctx context.Context, id int64, p model.ProductUpdateRequest) (*model.Product, error) {
	updates := map[string]interface{}{}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Price != nil {
		updates["price"] = *p.Price
	}
	if p.Stock != nil {
		updates["stock"] = *p.Stock
		updates["status"] = string(model.DeriveProductStatus(*p.Stock))
	}
	if p.Category != nil {
		updates["category"] = *p.Category
	}
	if p.ImageURL != nil {
		updates["image_url"] = *p.ImageURL
	}

	if len(updates) > 0 {
		result := r.Write(ctx).WithContext(ctx).
			Model(&ProductEntity{}).
			Where("id = ?", id).
			Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrProductNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&ProductEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DecrementStock removes quantity from stock under a row lock. If the
// current stock is lower than quantity it fails with ErrInsufficientStock
// and performs no write.
func (r *ProductRepository) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	var entity ProductEntity

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", productID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	if entity.Stock < quantity {
		return ErrInsufficientStock
	}

	newStock := entity.Stock - quantity
	result := r.Write(ctx).WithContext(ctx).
		Model(&ProductEntity{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":  newStock,
			"status": string(model.DeriveProductStatus(newStock)),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}

	return nil
}

// RestoreStock returns quantity to stock, used by transaction cancellation.
func (r *ProductRepository) RestoreStock(ctx context.Context, productID int64, quantity int) error {
	var entity ProductEntity

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", productID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	newStock := entity.Stock + quantity
	result := r.Write(ctx).WithContext(ctx).
		Model(&ProductEntity{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":  newStock,
			"status": string(model.DeriveProductStatus(newStock)),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}

	return nil
}

// SetStock is the direct stock override behind PATCH /products/{id}.
func (r *ProductRepository) SetStock(ctx context.Context, productID int64, stock int) (*model.Product, error) {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ProductEntity{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":  stock,
			"status": string(model.DeriveProductStatus(stock)),
		})

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrProductNotFound
	}

	return r.GetByID(ctx, productID)
}
