package catalog

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jmflorece/tindahan-pos/pkg/db"
	"github.com/jmflorece/tindahan-pos/pkg/db/models"
	"github.com/jmflorece/tindahan-pos/pkg/enums"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
)

func setupCatalogTestDB(t *testing.T) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:catalog_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))

	return db.NewWithConn(conn)
}

type recordingFeed struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (f *recordingFeed) PublishChange(_ context.Context, event ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *recordingFeed) byTable(table string) []ChangeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ChangeEvent
	for _, e := range f.events {
		if e.Table == table {
			out = append(out, e)
		}
	}
	return out
}

func newCatalogService(t *testing.T) (Service, *Repository, *recordingFeed) {
	t.Helper()

	client := setupCatalogTestDB(t)
	repo := NewRepository(client.DB())
	categoryRepo := NewCategoryRepository(client.DB())
	feed := &recordingFeed{}
	svc, err := NewService(repo, categoryRepo, client, feed)
	require.NoError(t, err)
	return svc, repo, feed
}

func TestCreateProductValidatesInput(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:  "Instant Noodles",
		Price: decimal.NewFromInt(15),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.CreateProduct(ctx, CreateProductInput{
		SKU:   "4800016644931",
		Name:  "Instant Noodles",
		Price: decimal.NewFromInt(-1),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateProductRejectsPriceBelowCost(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{
		SKU:   "SKU-LOSS",
		Name:  "Cooking Oil",
		Price: decimal.NewFromInt(10),
		Cost:  decimal.NewFromInt(50),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	// Selling at cost is allowed, just not below it.
	_, err = svc.CreateProduct(ctx, CreateProductInput{
		SKU:   "SKU-BREAKEVEN",
		Name:  "Cooking Oil",
		Price: decimal.NewFromInt(50),
		Cost:  decimal.NewFromInt(50),
	})
	require.NoError(t, err)
}

func TestUpdateProductRejectsPriceBelowCost(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		SKU:      "SKU-MARGIN",
		Name:     "Powdered Milk",
		Price:    decimal.NewFromInt(60),
		Cost:     decimal.NewFromInt(45),
		Stock:    5,
		IsActive: true,
	})
	require.NoError(t, err)

	lowPrice := decimal.NewFromInt(40)
	_, err = svc.UpdateProduct(ctx, created.ID, UpdateProductInput{Price: &lowPrice})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	highCost := decimal.NewFromInt(75)
	_, err = svc.UpdateProduct(ctx, created.ID, UpdateProductInput{Cost: &highCost})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	// Raising both together past the old price is fine.
	newPrice := decimal.NewFromInt(80)
	updated, err := svc.UpdateProduct(ctx, created.ID, UpdateProductInput{Price: &newPrice, Cost: &highCost})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(newPrice))
	assert.True(t, updated.Cost.Equal(highCost))
}

func TestCreateProductPublishesChange(t *testing.T) {
	svc, _, feed := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		SKU:      "4800016644931",
		Name:     "Instant Noodles",
		Price:    decimal.RequireFromString("15.50"),
		Cost:     decimal.RequireFromString("12.00"),
		Stock:    24,
		IsActive: true,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	events := feed.byTable("products")
	require.Len(t, events, 1)
	assert.Equal(t, ChangeOpCreated, events[0].Op)
	assert.Equal(t, created.ID, events[0].ID)
}

func TestCreateProductRejectsUnknownCategory(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	missing := uuid.New()
	_, err := svc.CreateProduct(ctx, CreateProductInput{
		SKU:        "SKU-1",
		Name:       "Soap",
		Price:      decimal.NewFromInt(40),
		CategoryID: &missing,
		IsActive:   true,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateProductPartialFields(t *testing.T) {
	svc, _, feed := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		SKU:      "SKU-2",
		Name:     "Canned Tuna",
		Price:    decimal.NewFromInt(32),
		Stock:    10,
		IsActive: true,
	})
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("35.00")
	updated, err := svc.UpdateProduct(ctx, created.ID, UpdateProductInput{Price: &newPrice})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(newPrice))
	assert.Equal(t, "Canned Tuna", updated.Name)
	assert.Equal(t, 10, updated.Stock)

	events := feed.byTable("products")
	require.Len(t, events, 2)
	assert.Equal(t, ChangeOpUpdated, events[1].Op)
}

func TestUpdateProductNotFound(t *testing.T) {
	svc, _, _ := newCatalogService(t)

	name := "Ghost"
	_, err := svc.UpdateProduct(context.Background(), uuid.New(), UpdateProductInput{Name: &name})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeleteProductPublishesChange(t *testing.T) {
	svc, _, feed := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		SKU:      "SKU-3",
		Name:     "Cooking Oil",
		Price:    decimal.NewFromInt(95),
		IsActive: true,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))

	_, err = svc.GetProduct(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	events := feed.byTable("products")
	require.Len(t, events, 2)
	assert.Equal(t, ChangeOpDeleted, events[1].Op)
}

func TestListProductsFilters(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, CategoryInput{Name: "Drinks"})
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, CreateProductInput{
		SKU: "SKU-A", Name: "Cola 1.5L", Price: decimal.NewFromInt(80),
		CategoryID: &category.ID, IsActive: true,
	})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, CreateProductInput{
		SKU: "SKU-B", Name: "Bar Soap", Price: decimal.NewFromInt(40), IsActive: true,
	})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, CreateProductInput{
		SKU: "SKU-C", Name: "Retired Cola", Price: decimal.NewFromInt(70), IsActive: false,
	})
	require.NoError(t, err)

	byCategory, err := svc.ListProducts(ctx, ProductFilter{CategoryID: &category.ID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Cola 1.5L", byCategory[0].Name)

	bySearch, err := svc.ListProducts(ctx, ProductFilter{Search: "cola", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "SKU-A", bySearch[0].SKU)

	all, err := svc.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetProductBySKU(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{
		SKU: "4801234567890", Name: "Coffee Sachet", Price: decimal.NewFromInt(11), IsActive: true,
	})
	require.NoError(t, err)

	found, err := svc.GetProductBySKU(ctx, "4801234567890")
	require.NoError(t, err)
	assert.Equal(t, "Coffee Sachet", found.Name)

	_, err = svc.GetProductBySKU(ctx, "0000000000000")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestAdjustStockRecordsMovement(t *testing.T) {
	svc, repo, _ := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		SKU: "SKU-R", Name: "Rice 5kg", Price: decimal.NewFromInt(280), Stock: 3, IsActive: true,
	})
	require.NoError(t, err)

	after, err := svc.AdjustStock(ctx, created.ID, 12, enums.StockMovementRestock)
	require.NoError(t, err)
	assert.Equal(t, 15, after.Stock)

	var movements []models.StockMovement
	require.NoError(t, repo.db.Find(&movements, "product_id = ?", created.ID).Error)
	require.Len(t, movements, 1)
	assert.Equal(t, 12, movements[0].Delta)
	assert.Equal(t, enums.StockMovementRestock, movements[0].Reason)
}

func TestAdjustStockRejectsNegativeBalance(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		SKU: "SKU-N", Name: "Eggs", Price: decimal.NewFromInt(9), Stock: 2, IsActive: true,
	})
	require.NoError(t, err)

	_, err = svc.AdjustStock(ctx, created.ID, -5, enums.StockMovementCorrection)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	reloaded, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Stock)
}

func TestAdjustStockRejectsSaleReason(t *testing.T) {
	svc, _, _ := newCatalogService(t)

	_, err := svc.AdjustStock(context.Background(), uuid.New(), 1, enums.StockMovementSale)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDecrementStockGuard(t *testing.T) {
	svc, repo, _ := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		SKU: "SKU-D", Name: "Bread", Price: decimal.NewFromInt(12), Stock: 2, IsActive: true,
	})
	require.NoError(t, err)

	require.NoError(t, repo.DecrementStock(ctx, created.ID, 2))
	err = repo.DecrementStock(ctx, created.ID, 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCategoryLifecycle(t *testing.T) {
	svc, _, feed := newCatalogService(t)
	ctx := context.Background()

	emoji := "🥤"
	created, err := svc.CreateCategory(ctx, CategoryInput{Name: "Drinks", Emoji: &emoji})
	require.NoError(t, err)

	updated, err := svc.UpdateCategory(ctx, created.ID, CategoryInput{Name: "Beverages"})
	require.NoError(t, err)
	assert.Equal(t, "Beverages", updated.Name)

	require.NoError(t, svc.DeleteCategory(ctx, created.ID))

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)

	events := feed.byTable("categories")
	require.Len(t, events, 3)
	assert.Equal(t, ChangeOpCreated, events[0].Op)
	assert.Equal(t, ChangeOpUpdated, events[1].Op)
	assert.Equal(t, ChangeOpDeleted, events[2].Op)
}

func TestDeleteCategoryLeavesProductReference(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, CategoryInput{Name: "Snacks"})
	require.NoError(t, err)

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		SKU: "SKU-S", Name: "Chips", Price: decimal.NewFromInt(25),
		CategoryID: &category.ID, IsActive: true,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCategory(ctx, category.ID))

	reloaded, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.CategoryID)
	assert.Equal(t, category.ID, *reloaded.CategoryID)
}

func TestListLowStockUsesDefaultThreshold(t *testing.T) {
	svc, repo, _ := newCatalogService(t)
	ctx := context.Background()

	threshold := 10
	_, err := svc.CreateProduct(ctx, CreateProductInput{
		SKU: "SKU-L1", Name: "Sugar", Price: decimal.NewFromInt(60), Stock: 8,
		LowStockThreshold: &threshold, IsActive: true,
	})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, CreateProductInput{
		SKU: "SKU-L2", Name: "Salt", Price: decimal.NewFromInt(20), Stock: 4, IsActive: true,
	})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, CreateProductInput{
		SKU: "SKU-L3", Name: "Flour", Price: decimal.NewFromInt(50), Stock: 30, IsActive: true,
	})
	require.NoError(t, err)

	low, err := repo.ListLowStock(ctx, 5)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Salt", low[0].Name)
	assert.Equal(t, "Sugar", low[1].Name)
}
