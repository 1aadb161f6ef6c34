package services

import (
	"context"
	"errors"

	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/internal/repository"
)

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) (*model.Product, error)
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, f model.ProductFilter) ([]*model.Product, int64, error) // results, totalCount
	Update(ctx context.Context, id int64, p model.ProductUpdateRequest) (*model.Product, error)
	Delete(ctx context.Context, id int64) error
	SetStock(ctx context.Context, productID int64, stock int) (*model.Product, error)
}

type ProductService struct {
	productRepo ProductRepository
}

func NewProductService(productRepo ProductRepository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
	}
}

func (s *ProductService) Create(ctx context.Context, p model.ProductCreateRequest) (*model.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		Category: p.Category,
		ImageURL: p.ImageURL,
	}
	return s.productRepo.Create(ctx, product)
}

func (s *ProductService) Get(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context, f model.ProductFilter) ([]*model.Product, int64, error) {
	return s.productRepo.List(ctx, f)
}

func (s *ProductService) Update(ctx context.Context, id int64, p model.ProductUpdateRequest) (*model.Product, error) {
	product, err := s.productRepo.Update(ctx, id, p)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	return nil
}

// SetStock is the direct stock override. Status follows from the new stock.
func (s *ProductService) SetStock(ctx context.Context, id int64, stock int) (*model.Product, error) {
	if stock < 0 {
		return nil, errors.New("stock cannot be negative")
	}
	product, err := s.productRepo.SetStock(ctx, id, stock)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}
