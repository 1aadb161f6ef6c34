package handlers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"
	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/internal/services"
	xhttp "github.com/nimasrn/canteen-gateway/pkg/http"
)

type ProductService interface {
	Create(ctx context.Context, p model.ProductCreateRequest) (*model.Product, error)
	Get(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, f model.ProductFilter) ([]*model.Product, int64, error)
	Update(ctx context.Context, id int64, p model.ProductUpdateRequest) (*model.Product, error)
	Delete(ctx context.Context, id int64) error
	SetStock(ctx context.Context, id int64, stock int) (*model.Product, error)
}

type ProductHandler struct {
	svc ProductService
}

func RegisterProductRoutes(e *router.Group, h *ProductHandler) {
	e.GET("/products", h.ListProducts)
	e.GET("/products/{id}", h.GetProduct)
	e.POST("/products", requireRoles(h.CreateProduct, model.RoleAdmin))
	e.PUT("/products/{id}", requireRoles(h.UpdateProduct, model.RoleAdmin))
	e.PATCH("/products/{id}", requireRoles(h.SetStock, model.RoleAdmin))
	e.DELETE("/products/{id}", requireRoles(h.DeleteProduct, model.RoleAdmin))
}

func NewProductHandler(productService ProductService) *ProductHandler {
	return &ProductHandler{
		svc: productService,
	}
}

type createProductRequest struct {
	Name     string `json:"name"`
	Price    uint   `json:"price"`
	Stock    int    `json:"stock"`
	Category string `json:"category"`
	ImageURL string `json:"image_url"`
}

type updateProductRequest struct {
	Name     *string `json:"name"`
	Price    *uint   `json:"price"`
	Stock    *int    `json:"stock"`
	Category *string `json:"category"`
	ImageURL *string `json:"image_url"`
}

type setStockRequest struct {
	Stock int `json:"stock"`
}

type productListResponse struct {
	Items []*model.Product `json:"items"`
	Total int64            `json:"total"`
}

func (h *ProductHandler) ListProducts(ctx *xhttp.RequestCtx) {
	var f model.ProductFilter

	if v := query(ctx, "category"); v != "" {
		f.Category = &v
	}
	if v := query(ctx, "status"); v != "" {
		status := model.ProductStatus(v)
		f.Status = &status
	}
	if v := query(ctx, "search"); v != "" {
		f.Search = &v
	}
	f.Limit = queryInt(ctx, "limit")
	f.Offset = queryInt(ctx, "offset")

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, productListResponse{Items: items, Total: total})
}

func (h *ProductHandler) GetProduct(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid product id")
		return
	}

	product, err := h.svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, product)
}

func (h *ProductHandler) CreateProduct(ctx *xhttp.RequestCtx) {
	var req createProductRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	product, err := h.svc.Create(ctx, model.ProductCreateRequest{
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
		Category: req.Category,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, product)
}

func (h *ProductHandler) UpdateProduct(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid product id")
		return
	}

	var req updateProductRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	product, err := h.svc.Update(ctx, id, model.ProductUpdateRequest{
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
		Category: req.Category,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, product)
}

func (h *ProductHandler) SetStock(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid product id")
		return
	}

	var req setStockRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	product, err := h.svc.SetStock(ctx, id, req.Stock)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, product)
}

func (h *ProductHandler) DeleteProduct(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid product id")
		return
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "deleted"})
}
