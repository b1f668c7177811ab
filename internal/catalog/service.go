package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmflorece/tindahan-pos/pkg/db"
	"github.com/jmflorece/tindahan-pos/pkg/db/models"
	"github.com/jmflorece/tindahan-pos/pkg/enums"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrInsufficientStock marks a stock mutation that would take a product
// below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

const (
	productsTable   = "products"
	categoriesTable = "categories"
)

// Service exposes catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int, reason enums.StockMovementReason) (*models.Product, error)

	CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, categoryID uuid.UUID, input CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, categoryID uuid.UUID) error
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU               string
	Name              string
	Price             decimal.Decimal
	Cost              decimal.Decimal
	Stock             int
	LowStockThreshold *int
	CategoryID        *uuid.UUID
	Emoji             *string
	ImagePath         *string
	IsActive          bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	SKU               *string
	Name              *string
	Price             *decimal.Decimal
	Cost              *decimal.Decimal
	LowStockThreshold *int
	CategoryID        *uuid.UUID
	Emoji             *string
	ImagePath         *string
	IsActive          *bool
}

// CategoryInput holds the payload to create or replace a category.
type CategoryInput struct {
	Name  string
	Emoji *string
	Color *string
}

type service struct {
	repo         *Repository
	categoryRepo *CategoryRepository
	dbClient     *db.Client
	feed         FeedPublisher
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, categoryRepo *CategoryRepository, dbClient *db.Client, feed FeedPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if categoryRepo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if feed == nil {
		feed = noopFeed{}
	}
	return &service{
		repo:         repo,
		categoryRepo: categoryRepo,
		dbClient:     dbClient,
		feed:         feed,
	}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := validateProductBasics(input.SKU, input.Name, input.Price, input.Cost, input.Stock); err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading category")
		}
	}

	product := &models.Product{
		SKU:               strings.TrimSpace(input.SKU),
		Name:              strings.TrimSpace(input.Name),
		Price:             input.Price,
		Cost:              input.Cost,
		Stock:             input.Stock,
		LowStockThreshold: input.LowStockThreshold,
		CategoryID:        input.CategoryID,
		Emoji:             input.Emoji,
		ImagePath:         input.ImagePath,
		IsActive:          input.IsActive,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating product")
	}

	_ = s.feed.PublishChange(ctx, ChangeEvent{Table: productsTable, Op: ChangeOpCreated, ID: created.ID})
	return created, nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "product")
	}

	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku cannot be empty")
		}
		product.SKU = sku
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		product.Price = *input.Price
	}
	if input.Cost != nil {
		if input.Cost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost cannot be negative")
		}
		product.Cost = *input.Cost
	}
	// Both fields are settled at this point, whichever of the two changed.
	if product.Price.LessThan(product.Cost) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be below cost")
	}
	if input.LowStockThreshold != nil {
		product.LowStockThreshold = input.LowStockThreshold
	}
	if input.CategoryID != nil {
		if *input.CategoryID == uuid.Nil {
			product.CategoryID = nil
		} else {
			if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading category")
			}
			product.CategoryID = input.CategoryID
		}
	}
	if input.Emoji != nil {
		product.Emoji = input.Emoji
	}
	if input.ImagePath != nil {
		product.ImagePath = input.ImagePath
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating product")
	}

	_ = s.feed.PublishChange(ctx, ChangeEvent{Table: productsTable, Op: ChangeOpUpdated, ID: updated.ID})
	return updated, nil
}

func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return notFoundOr(err, "product")
	}
	_ = s.feed.PublishChange(ctx, ChangeEvent{Table: productsTable, Op: ChangeOpDeleted, ID: productID})
	return nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "product")
	}
	return product, nil
}

func (s *service) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	product, err := s.repo.FindProductBySKU(ctx, sku)
	if err != nil {
		return nil, notFoundOr(err, "product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing products")
	}
	return products, nil
}

// AdjustStock applies a manual restock or correction, recording the movement
// in the same transaction as the balance change.
func (s *service) AdjustStock(ctx context.Context, productID uuid.UUID, delta int, reason enums.StockMovementReason) (*models.Product, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta cannot be zero")
	}
	if !reason.IsValid() || reason == enums.StockMovementSale {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock movement reason")
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.AdjustStock(ctx, productID, delta); err != nil {
			return err
		}
		return txRepo.RecordMovement(ctx, &models.StockMovement{
			ProductID: productID,
			Delta:     delta,
			Reason:    reason,
		})
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "stock cannot go negative")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjusting stock")
	}

	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "product")
	}

	_ = s.feed.PublishChange(ctx, ChangeEvent{Table: productsTable, Op: ChangeOpUpdated, ID: productID})
	return product, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	category := &models.Category{
		Name:  strings.TrimSpace(input.Name),
		Emoji: input.Emoji,
		Color: input.Color,
	}
	created, err := s.categoryRepo.Create(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating category")
	}
	_ = s.feed.PublishChange(ctx, ChangeEvent{Table: categoriesTable, Op: ChangeOpCreated, ID: created.ID})
	return created, nil
}

func (s *service) UpdateCategory(ctx context.Context, categoryID uuid.UUID, input CategoryInput) (*models.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, notFoundOr(err, "category")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	category.Name = strings.TrimSpace(input.Name)
	category.Emoji = input.Emoji
	category.Color = input.Color

	updated, err := s.categoryRepo.Update(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating category")
	}
	_ = s.feed.PublishChange(ctx, ChangeEvent{Table: categoriesTable, Op: ChangeOpUpdated, ID: updated.ID})
	return updated, nil
}

func (s *service) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	if err := s.categoryRepo.Delete(ctx, categoryID); err != nil {
		return notFoundOr(err, "category")
	}
	_ = s.feed.PublishChange(ctx, ChangeEvent{Table: categoriesTable, Op: ChangeOpDeleted, ID: categoryID})
	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing categories")
	}
	return categories, nil
}

func validateProductBasics(sku, name string, price, cost decimal.Decimal, stock int) error {
	if strings.TrimSpace(sku) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if cost.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cost cannot be negative")
	}
	if price.LessThan(cost) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be below cost")
	}
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	return nil
}

func notFoundOr(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, resource+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading "+resource)
}
