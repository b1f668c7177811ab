package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmflorece/tindahan-pos/internal/catalog"
	"github.com/jmflorece/tindahan-pos/internal/ledger"
	"github.com/jmflorece/tindahan-pos/pkg/db/models"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
	"github.com/jmflorece/tindahan-pos/pkg/metrics"
)

// Dashboard is the register's end-of-day overview.
type Dashboard struct {
	Date           string                  `json:"date"`
	Totals         Totals                  `json:"totals"`
	HourlyVelocity map[int]decimal.Decimal `json:"hourly_velocity"`
	Methods        *ledger.Summary         `json:"methods"`
	LowStock       []models.Product        `json:"low_stock"`
}

// Service assembles reporting views over the ledger and catalog.
type Service interface {
	DashboardFor(ctx context.Context, day time.Time) (*Dashboard, error)
}

type service struct {
	ledgerRepo       *ledger.Repository
	ledgerSvc        ledger.Service
	catalogRepo      *catalog.Repository
	salesMetrics     *metrics.SalesMetrics
	fallbackVATRate  decimal.Decimal
	defaultThreshold int
}

// NewService constructs the reporting service.
func NewService(ledgerRepo *ledger.Repository, ledgerSvc ledger.Service, catalogRepo *catalog.Repository, salesMetrics *metrics.SalesMetrics, fallbackVATRate float64, defaultThreshold int) (Service, error) {
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{
		ledgerRepo:       ledgerRepo,
		ledgerSvc:        ledgerSvc,
		catalogRepo:      catalogRepo,
		salesMetrics:     salesMetrics,
		fallbackVATRate:  decimal.NewFromFloat(fallbackVATRate),
		defaultThreshold: defaultThreshold,
	}, nil
}

func (s *service) DashboardFor(ctx context.Context, day time.Time) (*Dashboard, error) {
	filter := ledger.Filter{Day: &day}

	sales, err := s.ledgerRepo.ListAll(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading day sales")
	}

	methods, err := s.ledgerSvc.Aggregate(ctx, filter)
	if err != nil {
		return nil, err
	}

	lowStock, err := s.catalogRepo.ListLowStock(ctx, s.defaultThreshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading low stock products")
	}
	s.salesMetrics.SetLowStock(len(lowStock))

	return &Dashboard{
		Date:           day.Format("2006-01-02"),
		Totals:         DailyTotals(sales, day, s.fallbackVATRate),
		HourlyVelocity: HourlyVelocity(sales, day),
		Methods:        methods,
		LowStock:       lowStock,
	}, nil
}
