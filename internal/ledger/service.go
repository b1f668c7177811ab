package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jmflorece/tindahan-pos/pkg/db/models"
	"github.com/jmflorece/tindahan-pos/pkg/enums"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
	"github.com/jmflorece/tindahan-pos/pkg/pagination"
)

// Page is one window of ledger results.
type Page struct {
	Sales      []models.Sale `json:"sales"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// MethodSummary aggregates one payment method's sales.
type MethodSummary struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Summary aggregates a filtered slice of the ledger.
type Summary struct {
	Count        int                                   `json:"count"`
	Gross        decimal.Decimal                       `json:"gross"`
	CashTotal    decimal.Decimal                       `json:"cash_total"`
	DigitalTotal decimal.Decimal                       `json:"digital_total"`
	ByMethod     map[enums.PaymentMethod]MethodSummary `json:"by_method"`
}

// Service reads the transaction ledger.
type Service interface {
	Get(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Sale, error)
	List(ctx context.Context, filter Filter, params pagination.Params) (*Page, error)
	Aggregate(ctx context.Context, filter Filter) (*Summary, error)
}

type service struct {
	repo *Repository
}

// NewService constructs the ledger read service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	sale, err := s.repo.FindByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading sale")
	}
	return sale, nil
}

func (s *service) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Sale, error) {
	sale, err := s.repo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading sale")
	}
	return sale, nil
}

func (s *service) List(ctx context.Context, filter Filter, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	sales, err := s.repo.List(ctx, filter, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing sales")
	}

	page := &Page{Sales: sales}
	if len(sales) > limit {
		page.Sales = sales[:limit]
		last := page.Sales[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

// Aggregate sums the filtered sales in memory. A single register's daily
// volume stays small enough that this beats dialect-specific SQL sums.
func (s *service) Aggregate(ctx context.Context, filter Filter) (*Summary, error) {
	sales, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregating sales")
	}

	summary := &Summary{
		Gross:        decimal.Zero,
		CashTotal:    decimal.Zero,
		DigitalTotal: decimal.Zero,
		ByMethod:     make(map[enums.PaymentMethod]MethodSummary),
	}
	for _, sale := range sales {
		summary.Count++
		summary.Gross = summary.Gross.Add(sale.Total)
		if sale.PaymentMethod.IsDigital() {
			summary.DigitalTotal = summary.DigitalTotal.Add(sale.Total)
		} else {
			summary.CashTotal = summary.CashTotal.Add(sale.Total)
		}

		entry, ok := summary.ByMethod[sale.PaymentMethod]
		if !ok {
			entry = MethodSummary{Amount: decimal.Zero}
		}
		entry.Count++
		entry.Amount = entry.Amount.Add(sale.Total)
		summary.ByMethod[sale.PaymentMethod] = entry
	}
	return summary, nil
}
