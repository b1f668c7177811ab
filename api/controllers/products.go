package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmflorece/tindahan-pos/api/responses"
	"github.com/jmflorece/tindahan-pos/api/validators"
	catalogsvc "github.com/jmflorece/tindahan-pos/internal/catalog"
	"github.com/jmflorece/tindahan-pos/pkg/enums"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
	"github.com/jmflorece/tindahan-pos/pkg/logger"
)

// ProductCreate handles new product registration.
func ProductCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type createProductRequest struct {
	SKU               string  `json:"sku" validate:"required"`
	Name              string  `json:"name" validate:"required"`
	Price             string  `json:"price" validate:"required"`
	Cost              string  `json:"cost,omitempty"`
	Stock             int     `json:"stock" validate:"omitempty,min=0"`
	LowStockThreshold *int    `json:"low_stock_threshold,omitempty" validate:"omitempty,min=0"`
	CategoryID        *string `json:"category_id,omitempty" validate:"omitempty,uuid"`
	Emoji             *string `json:"emoji,omitempty"`
	ImagePath         *string `json:"image_path,omitempty"`
	IsActive          *bool   `json:"is_active,omitempty"`
}

func (p createProductRequest) toCreateInput() (catalogsvc.CreateProductInput, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(p.Price))
	if err != nil {
		return catalogsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	cost := decimal.Zero
	if strings.TrimSpace(p.Cost) != "" {
		cost, err = decimal.NewFromString(strings.TrimSpace(p.Cost))
		if err != nil {
			return catalogsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cost")
		}
	}
	categoryID, err := parseOptionalUUID(p.CategoryID, "category_id")
	if err != nil {
		return catalogsvc.CreateProductInput{}, err
	}
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return catalogsvc.CreateProductInput{
		SKU:               strings.TrimSpace(p.SKU),
		Name:              strings.TrimSpace(p.Name),
		Price:             price,
		Cost:              cost,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		CategoryID:        categoryID,
		Emoji:             p.Emoji,
		ImagePath:         p.ImagePath,
		IsActive:          active,
	}, nil
}

// ProductUpdate applies a partial mutation to a product.
func ProductUpdate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := validators.PathUUID(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

type updateProductRequest struct {
	SKU               *string `json:"sku,omitempty"`
	Name              *string `json:"name,omitempty"`
	Price             *string `json:"price,omitempty"`
	Cost              *string `json:"cost,omitempty"`
	LowStockThreshold *int    `json:"low_stock_threshold,omitempty" validate:"omitempty,min=0"`
	CategoryID        *string `json:"category_id,omitempty" validate:"omitempty,uuid"`
	Emoji             *string `json:"emoji,omitempty"`
	ImagePath         *string `json:"image_path,omitempty"`
	IsActive          *bool   `json:"is_active,omitempty"`
}

func (p updateProductRequest) toUpdateInput() (catalogsvc.UpdateProductInput, error) {
	input := catalogsvc.UpdateProductInput{
		SKU:               p.SKU,
		Name:              p.Name,
		LowStockThreshold: p.LowStockThreshold,
		Emoji:             p.Emoji,
		ImagePath:         p.ImagePath,
		IsActive:          p.IsActive,
	}
	if p.Price != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*p.Price))
		if err != nil {
			return catalogsvc.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
		}
		input.Price = &price
	}
	if p.Cost != nil {
		cost, err := decimal.NewFromString(strings.TrimSpace(*p.Cost))
		if err != nil {
			return catalogsvc.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cost")
		}
		input.Cost = &cost
	}
	categoryID, err := parseOptionalUUID(p.CategoryID, "category_id")
	if err != nil {
		return catalogsvc.UpdateProductInput{}, err
	}
	input.CategoryID = categoryID
	return input, nil
}

// ProductDelete removes a product from the catalog.
func ProductDelete(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := validators.PathUUID(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ProductDetail returns one product, by id or by sku lookup.
func ProductDetail(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		raw := chi.URLParam(r, "productId")
		productID, err := validators.PathUUID(raw)
		if err != nil {
			// Barcode scanners hit this route with the SKU they read.
			product, skuErr := svc.GetProductBySKU(r.Context(), raw)
			if skuErr != nil {
				responses.WriteError(r.Context(), logg, w, skuErr)
				return
			}
			responses.WriteSuccess(w, product)
			return
		}

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// ProductList returns catalog products with optional search and filters.
func ProductList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := catalogsvc.ProductFilter{
			Search:     strings.TrimSpace(r.URL.Query().Get("search")),
			CategoryID: categoryID,
			ActiveOnly: r.URL.Query().Get("active") == "true",
		}

		products, err := svc.ListProducts(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// ProductAdjustStock applies a manual stock delta, restock or correction.
func ProductAdjustStock(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := validators.PathUUID(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reason, err := enums.ParseStockMovementReason(payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reason"))
			return
		}

		product, err := svc.AdjustStock(r.Context(), productID, payload.Delta, reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

type adjustStockRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required,oneof=restock correction"`
}

// ProductLowStock lists active products at or under their restock threshold.
func ProductLowStock(repo *catalogsvc.Repository, defaultThreshold int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog repository unavailable"))
			return
		}

		products, err := repo.ListLowStock(r.Context(), defaultThreshold)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return &id, nil
}
