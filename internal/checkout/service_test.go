package checkout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jmflorece/tindahan-pos/internal/cart"
	"github.com/jmflorece/tindahan-pos/internal/catalog"
	"github.com/jmflorece/tindahan-pos/pkg/config"
	"github.com/jmflorece/tindahan-pos/pkg/db"
	"github.com/jmflorece/tindahan-pos/pkg/db/models"
	"github.com/jmflorece/tindahan-pos/pkg/enums"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
)

var testNow = time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)

type checkoutFixture struct {
	svc      Service
	carts    *cart.Manager
	client   *db.Client
	repo     *catalog.Repository
	terminal uuid.UUID
}

// scriptedRand returns the queued outcomes in order, then repeats the last.
func scriptedRand(values ...float64) func() float64 {
	idx := 0
	return func() float64 {
		v := values[idx]
		if idx < len(values)-1 {
			idx++
		}
		return v
	}
}

func instantSleep(context.Context, time.Duration) error { return nil }

func setupCheckout(t *testing.T, randValues ...float64) *checkoutFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:checkout_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	client := db.NewWithConn(conn)

	if len(randValues) == 0 {
		randValues = []float64{0}
	}

	carts := cart.NewManager()
	repo := catalog.NewRepository(client.DB())
	terminalGateway := NewTerminalGateway(
		config.CheckoutConfig{TerminalSuccessRate: 0.7, TerminalPairingDelay: 2 * time.Second},
		WithRandFloat(scriptedRand(randValues...)),
		WithSleep(instantSleep),
	)

	svc, err := NewService(Deps{
		Carts:       carts,
		CatalogRepo: repo,
		DBClient:    client,
		Gateways: map[enums.PaymentMethod]Gateway{
			enums.PaymentMethodQR:       NewQRGateway(),
			enums.PaymentMethodCard:     NewCardGateway(),
			enums.PaymentMethodTerminal: terminalGateway,
		},
		OrderNumbers: NewOrderNumberGenerator("OR", nil),
		VATRate:      0.12,
		Now:          func() time.Time { return testNow },
	})
	require.NoError(t, err)

	return &checkoutFixture{
		svc:      svc,
		carts:    carts,
		client:   client,
		repo:     repo,
		terminal: uuid.New(),
	}
}

func (f *checkoutFixture) seedProduct(t *testing.T, name string, price int64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		SKU:      "SKU-" + name,
		Name:     name,
		Price:    decimal.NewFromInt(price),
		Stock:    stock,
		IsActive: true,
	}
	created, err := f.repo.CreateProduct(context.Background(), product)
	require.NoError(t, err)
	return created
}

func (f *checkoutFixture) fillCart(t *testing.T) {
	t.Helper()
	a := f.seedProduct(t, "Lugaw", 120, 10)
	b := f.seedProduct(t, "Gulaman", 90, 10)
	_, err := f.carts.Add(f.terminal, a, 2)
	require.NoError(t, err)
	_, err = f.carts.Add(f.terminal, b, 1)
	require.NoError(t, err)
}

func TestStartRequiresNonEmptyCart(t *testing.T) {
	f := setupCheckout(t)

	_, err := f.svc.Start(context.Background(), f.terminal)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCashFlowEndToEnd(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()
	f.fillCart(t)

	session, err := f.svc.Start(ctx, f.terminal)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStatePaymentSelect, session.State)

	session, err = f.svc.SelectMethod(ctx, f.terminal, enums.PaymentMethodCash)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateCashFlow, session.State)

	sale, session, err := f.svc.FinalizeCash(ctx, f.terminal, nil, decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateReceipt, session.State)
	require.NotNil(t, session.SaleID)

	assert.Equal(t, "OR-20260831-0001", sale.OrderNumber)
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(330)))
	assert.True(t, sale.AmountTendered.Equal(decimal.NewFromInt(500)))
	assert.True(t, sale.ChangeDue.Equal(decimal.NewFromInt(170)))
	assert.True(t, sale.VATRate.Equal(decimal.RequireFromString("0.12")))
	assert.Equal(t, enums.PaymentMethodCash, sale.PaymentMethod)
	require.Len(t, sale.Items, 2)

	// cart cleared, stock decremented, movements written
	assert.True(t, f.carts.IsEmpty(f.terminal))
	for _, item := range sale.Items {
		product, err := f.repo.FindProductByID(ctx, item.ProductID)
		require.NoError(t, err)
		assert.Equal(t, 10-item.Quantity, product.Stock)
	}
	var movements []models.StockMovement
	require.NoError(t, f.client.DB().Find(&movements).Error)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, enums.StockMovementSale, m.Reason)
		require.NotNil(t, m.SaleID)
		assert.Equal(t, sale.ID, *m.SaleID)
		assert.Negative(t, m.Delta)
	}

	session, err = f.svc.Complete(ctx, f.terminal)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateIdle, session.State)
}

func TestFinalizeCashRejectsShortTender(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()
	f.fillCart(t)

	_, err := f.svc.Start(ctx, f.terminal)
	require.NoError(t, err)
	_, err = f.svc.SelectMethod(ctx, f.terminal, enums.PaymentMethodCash)
	require.NoError(t, err)

	_, session, err := f.svc.FinalizeCash(ctx, f.terminal, nil, decimal.NewFromInt(300))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Equal(t, enums.CheckoutStateCashFlow, session.State)
	assert.False(t, f.carts.IsEmpty(f.terminal))
}

func TestFinalizeRejectsInsufficientStock(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()

	scarce := f.seedProduct(t, "Limited", 50, 1)
	plenty := f.seedProduct(t, "Plenty", 20, 10)
	_, err := f.carts.Add(f.terminal, plenty, 2)
	require.NoError(t, err)
	_, err = f.carts.Add(f.terminal, scarce, 3)
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, f.terminal)
	require.NoError(t, err)
	_, err = f.svc.SelectMethod(ctx, f.terminal, enums.PaymentMethodCash)
	require.NoError(t, err)

	_, _, err = f.svc.FinalizeCash(ctx, f.terminal, nil, decimal.NewFromInt(1000))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	// whole transaction rolled back: no sale, stock untouched, cart intact
	var saleCount int64
	require.NoError(t, f.client.DB().Model(&models.Sale{}).Count(&saleCount).Error)
	assert.Zero(t, saleCount)
	reloaded, err := f.repo.FindProductByID(ctx, plenty.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.Stock)
	assert.False(t, f.carts.IsEmpty(f.terminal))
}

func TestQRFlowRequiresConfirmation(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()
	f.fillCart(t)

	_, err := f.svc.Start(ctx, f.terminal)
	require.NoError(t, err)
	session, err := f.svc.SelectMethod(ctx, f.terminal, enums.PaymentMethodQR)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateQRFlow, session.State)
	assert.Equal(t, enums.GatewayStatusPending, session.GatewayStatus)
	assert.NotEmpty(t, session.GatewayRef)

	_, _, err = f.svc.FinalizeDigital(ctx, f.terminal, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	session, err = f.svc.ConfirmPayment(ctx, f.terminal)
	require.NoError(t, err)
	assert.Equal(t, enums.GatewayStatusSuccess, session.GatewayStatus)

	sale, session, err := f.svc.FinalizeDigital(ctx, f.terminal, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateReceipt, session.State)
	assert.Equal(t, enums.PaymentMethodQR, sale.PaymentMethod)
	require.NotNil(t, sale.GatewayReference)
	assert.True(t, sale.AmountTendered.Equal(sale.Total))
	assert.True(t, sale.ChangeDue.IsZero())
}

func TestTerminalPairingFailureThenRetry(t *testing.T) {
	// first attempt 0.9 >= 0.7 fails, retry 0.1 < 0.7 succeeds
	f := setupCheckout(t, 0.9, 0.1)
	ctx := context.Background()
	f.fillCart(t)

	_, err := f.svc.Start(ctx, f.terminal)
	require.NoError(t, err)
	session, err := f.svc.SelectMethod(ctx, f.terminal, enums.PaymentMethodTerminal)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateTerminalLink, session.State)
	assert.Equal(t, enums.GatewayStatusFailure, session.GatewayStatus)

	_, _, err = f.svc.FinalizeDigital(ctx, f.terminal, nil)
	require.Error(t, err)

	session, err = f.svc.RetryTerminal(ctx, f.terminal)
	require.NoError(t, err)
	assert.Equal(t, enums.GatewayStatusSuccess, session.GatewayStatus)
	assert.NotEmpty(t, session.GatewayRef)

	sale, _, err := f.svc.FinalizeDigital(ctx, f.terminal, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentMethodTerminal, sale.PaymentMethod)
}

func TestRetryTerminalWithoutFailure(t *testing.T) {
	f := setupCheckout(t, 0.1)
	ctx := context.Background()
	f.fillCart(t)

	_, err := f.svc.Start(ctx, f.terminal)
	require.NoError(t, err)
	_, err = f.svc.SelectMethod(ctx, f.terminal, enums.PaymentMethodTerminal)
	require.NoError(t, err)

	_, err = f.svc.RetryTerminal(ctx, f.terminal)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestBackReturnsToPaymentSelect(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()
	f.fillCart(t)

	_, err := f.svc.Start(ctx, f.terminal)
	require.NoError(t, err)
	_, err = f.svc.SelectMethod(ctx, f.terminal, enums.PaymentMethodQR)
	require.NoError(t, err)

	session, err := f.svc.Back(ctx, f.terminal)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStatePaymentSelect, session.State)
	assert.Empty(t, session.GatewayRef)

	session, err = f.svc.Back(ctx, f.terminal)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateIdle, session.State)
	assert.False(t, f.carts.IsEmpty(f.terminal))
}

func TestAbortClearsCart(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()
	f.fillCart(t)

	_, err := f.svc.Start(ctx, f.terminal)
	require.NoError(t, err)

	session, err := f.svc.Abort(ctx, f.terminal)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateIdle, session.State)
	assert.True(t, f.carts.IsEmpty(f.terminal))
}

func TestOrderNumbersIncrementWithinDay(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()

	product := f.seedProduct(t, "Repeat", 10, 100)
	for i := 1; i <= 3; i++ {
		_, err := f.carts.Add(f.terminal, product, 1)
		require.NoError(t, err)
		_, err = f.svc.Start(ctx, f.terminal)
		require.NoError(t, err)
		_, err = f.svc.SelectMethod(ctx, f.terminal, enums.PaymentMethodCash)
		require.NoError(t, err)
		sale, _, err := f.svc.FinalizeCash(ctx, f.terminal, nil, decimal.NewFromInt(10))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("OR-20260831-%04d", i), sale.OrderNumber)
		_, err = f.svc.Complete(ctx, f.terminal)
		require.NoError(t, err)
	}
}

func TestSelectMethodSwitchResetsGateway(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()
	f.fillCart(t)

	_, err := f.svc.Start(ctx, f.terminal)
	require.NoError(t, err)
	session, err := f.svc.SelectMethod(ctx, f.terminal, enums.PaymentMethodQR)
	require.NoError(t, err)
	assert.NotEmpty(t, session.GatewayRef)

	session, err = f.svc.SelectMethod(ctx, f.terminal, enums.PaymentMethodCash)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateCashFlow, session.State)
	assert.Empty(t, session.GatewayRef)
	assert.Empty(t, session.GatewayStatus)
}

func TestFinalizeRecordsCashier(t *testing.T) {
	f := setupCheckout(t)
	ctx := context.Background()
	f.fillCart(t)

	cashierID := uuid.New()
	_, err := f.svc.Start(ctx, f.terminal)
	require.NoError(t, err)
	_, err = f.svc.SelectMethod(ctx, f.terminal, enums.PaymentMethodCash)
	require.NoError(t, err)
	sale, _, err := f.svc.FinalizeCash(ctx, f.terminal, &cashierID, decimal.NewFromInt(400))
	require.NoError(t, err)
	require.NotNil(t, sale.CashierID)
	assert.Equal(t, cashierID, *sale.CashierID)
}
