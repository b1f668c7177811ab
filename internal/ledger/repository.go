package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmflorece/tindahan-pos/pkg/db/models"
	"github.com/jmflorece/tindahan-pos/pkg/enums"
	"github.com/jmflorece/tindahan-pos/pkg/pagination"
)

// Filter narrows ledger queries. Zero values match everything.
type Filter struct {
	OrderNumber string
	Method      enums.PaymentMethod
	// Day restricts to the calendar day containing the timestamp, in its
	// location.
	Day *time.Time
}

// Repository reads the sales ledger. Writes happen once, at checkout
// finalization; nothing here mutates a stored sale.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create appends a sale with its items. Used by imports and tests; checkout
// writes through its own transaction.
func (r *Repository) Create(ctx context.Context, sale *models.Sale) (*models.Sale, error) {
	if err := r.db.WithContext(ctx).Create(sale).Error; err != nil {
		return nil, err
	}
	return sale, nil
}

// FindByID loads one sale with its line items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// FindByOrderNumber loads one sale by its exact receipt number.
func (r *Repository) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&sale, "order_number = ?", orderNumber).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// List returns filtered sales newest first, keyset-paginated on
// (created_at, id).
func (r *Repository) List(ctx context.Context, filter Filter, limit int, cursor *pagination.Cursor) ([]models.Sale, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.Sale{}), filter)
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var sales []models.Sale
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

// ListAll returns every sale matching the filter, oldest first. Reporting
// paths aggregate over this.
func (r *Repository) ListAll(ctx context.Context, filter Filter) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.Sale{}), filter).
		Order("created_at ASC").
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *Repository) applyFilter(query *gorm.DB, filter Filter) *gorm.DB {
	if term := strings.TrimSpace(filter.OrderNumber); term != "" {
		query = query.Where("order_number LIKE ?", "%"+term+"%")
	}
	if filter.Method != "" {
		query = query.Where("payment_method = ?", filter.Method)
	}
	if filter.Day != nil {
		day := *filter.Day
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		query = query.Where("created_at >= ? AND created_at < ?", start, start.Add(24*time.Hour))
	}
	return query
}
