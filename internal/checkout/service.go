package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jmflorece/tindahan-pos/internal/cart"
	"github.com/jmflorece/tindahan-pos/internal/catalog"
	"github.com/jmflorece/tindahan-pos/pkg/db"
	"github.com/jmflorece/tindahan-pos/pkg/db/models"
	"github.com/jmflorece/tindahan-pos/pkg/enums"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
	"github.com/jmflorece/tindahan-pos/pkg/logger"
	"github.com/jmflorece/tindahan-pos/pkg/metrics"
)

const salesTable = "sales"

// Service drives the checkout state machine for every terminal.
type Service interface {
	Session(terminalID uuid.UUID) Session
	Start(ctx context.Context, terminalID uuid.UUID) (Session, error)
	SelectMethod(ctx context.Context, terminalID uuid.UUID, method enums.PaymentMethod) (Session, error)
	RetryTerminal(ctx context.Context, terminalID uuid.UUID) (Session, error)
	ConfirmPayment(ctx context.Context, terminalID uuid.UUID) (Session, error)
	FinalizeCash(ctx context.Context, terminalID uuid.UUID, cashierID *uuid.UUID, tendered decimal.Decimal) (*models.Sale, Session, error)
	FinalizeDigital(ctx context.Context, terminalID uuid.UUID, cashierID *uuid.UUID) (*models.Sale, Session, error)
	Back(ctx context.Context, terminalID uuid.UUID) (Session, error)
	Abort(ctx context.Context, terminalID uuid.UUID) (Session, error)
	Complete(ctx context.Context, terminalID uuid.UUID) (Session, error)
}

type service struct {
	carts        *cart.Manager
	sessions     *sessionStore
	catalogRepo  *catalog.Repository
	dbClient     *db.Client
	gateways     map[enums.PaymentMethod]Gateway
	orderNumbers *OrderNumberGenerator
	feed         catalog.FeedPublisher
	salesMetrics *metrics.SalesMetrics
	vatRate      decimal.Decimal
	now          func() time.Time
	logg         *logger.Logger
}

// Deps bundles the collaborators a checkout service needs.
type Deps struct {
	Carts        *cart.Manager
	CatalogRepo  *catalog.Repository
	DBClient     *db.Client
	Gateways     map[enums.PaymentMethod]Gateway
	OrderNumbers *OrderNumberGenerator
	Feed         catalog.FeedPublisher
	SalesMetrics *metrics.SalesMetrics
	VATRate      float64
	Now          func() time.Time
	Logger       *logger.Logger
}

// NewService constructs the checkout service.
func NewService(deps Deps) (Service, error) {
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart manager required")
	}
	if deps.CatalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if deps.DBClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if deps.OrderNumbers == nil {
		return nil, fmt.Errorf("order number generator required")
	}
	for _, method := range enums.PaymentMethods() {
		if method.IsDigital() {
			if _, ok := deps.Gateways[method]; !ok {
				return nil, fmt.Errorf("gateway for %s required", method)
			}
		}
	}
	if deps.Feed == nil {
		deps.Feed = catalog.NewRedisFeed(nil, nil)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.VATRate < 0 {
		return nil, fmt.Errorf("vat rate cannot be negative")
	}
	return &service{
		carts:        deps.Carts,
		sessions:     newSessionStore(),
		catalogRepo:  deps.CatalogRepo,
		dbClient:     deps.DBClient,
		gateways:     deps.Gateways,
		orderNumbers: deps.OrderNumbers,
		feed:         deps.Feed,
		salesMetrics: deps.SalesMetrics,
		vatRate:      decimal.NewFromFloat(deps.VATRate),
		now:          deps.Now,
		logg:         deps.Logger,
	}, nil
}

func (s *service) Session(terminalID uuid.UUID) Session {
	return s.sessions.get(terminalID)
}

// Start moves an idle terminal into payment selection. The cart must have at
// least one line.
func (s *service) Start(_ context.Context, terminalID uuid.UUID) (Session, error) {
	if s.carts.IsEmpty(terminalID) {
		return s.sessions.get(terminalID), pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	return s.sessions.update(terminalID, func(session *Session) error {
		if session.State != enums.CheckoutStateIdle {
			return stateError(session.State, "start checkout")
		}
		session.State = enums.CheckoutStatePaymentSelect
		return nil
	})
}

// SelectMethod enters the flow for the chosen payment rail. Re-selecting from
// another flow state is allowed and resets any gateway progress.
func (s *service) SelectMethod(ctx context.Context, terminalID uuid.UUID, method enums.PaymentMethod) (Session, error) {
	if !method.IsValid() {
		return s.sessions.get(terminalID), pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	flowState, err := enums.FlowStateFor(method)
	if err != nil {
		return s.sessions.get(terminalID), pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	session, err := s.sessions.update(terminalID, func(session *Session) error {
		if session.State != enums.CheckoutStatePaymentSelect && !session.State.IsPaymentFlow() {
			return stateError(session.State, "select payment method")
		}
		session.State = flowState
		session.PaymentMethod = method
		session.GatewayStatus = ""
		session.GatewayRef = ""
		session.GatewayNote = ""
		return nil
	})
	if err != nil {
		return session, err
	}

	switch method {
	case enums.PaymentMethodCash:
		return session, nil
	case enums.PaymentMethodTerminal:
		return s.runTerminalPairing(ctx, terminalID)
	default:
		return s.authorizePending(ctx, terminalID, method)
	}
}

// authorizePending opens a QR or card attempt and parks it pending.
func (s *service) authorizePending(ctx context.Context, terminalID uuid.UUID, method enums.PaymentMethod) (Session, error) {
	total := s.carts.Get(terminalID).Total
	result, err := s.gateways[method].Authorize(ctx, total)
	if err != nil {
		return s.sessions.get(terminalID), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway authorize failed")
	}
	s.observeGateway(method, result.Status)

	return s.sessions.update(terminalID, func(session *Session) error {
		if session.PaymentMethod != method || !session.State.IsPaymentFlow() {
			return stateError(session.State, "record gateway result")
		}
		session.GatewayStatus = result.Status
		session.GatewayRef = result.Reference
		session.GatewayNote = result.Message
		return nil
	})
}

// runTerminalPairing performs one pairing attempt. Pairing blocks for the
// configured delay, so the session lock is not held across the call.
func (s *service) runTerminalPairing(ctx context.Context, terminalID uuid.UUID) (Session, error) {
	session, err := s.sessions.update(terminalID, func(session *Session) error {
		if session.State != enums.CheckoutStateTerminalLink {
			return stateError(session.State, "pair terminal")
		}
		session.GatewayStatus = enums.GatewayStatusPending
		session.GatewayRef = ""
		session.GatewayNote = "pairing"
		return nil
	})
	if err != nil {
		return session, err
	}

	total := s.carts.Get(terminalID).Total
	result, authErr := s.gateways[enums.PaymentMethodTerminal].Authorize(ctx, total)
	if authErr != nil {
		return s.sessions.get(terminalID), pkgerrors.Wrap(pkgerrors.CodeDependency, authErr, "terminal pairing failed")
	}
	s.observeGateway(enums.PaymentMethodTerminal, result.Status)

	return s.sessions.update(terminalID, func(session *Session) error {
		if session.State != enums.CheckoutStateTerminalLink {
			return stateError(session.State, "record pairing result")
		}
		session.GatewayStatus = result.Status
		session.GatewayRef = result.Reference
		session.GatewayNote = result.Message
		return nil
	})
}

// RetryTerminal runs another pairing attempt after a failure.
func (s *service) RetryTerminal(ctx context.Context, terminalID uuid.UUID) (Session, error) {
	session := s.sessions.get(terminalID)
	if session.State != enums.CheckoutStateTerminalLink {
		return session, stateError(session.State, "retry terminal pairing")
	}
	if session.GatewayStatus != enums.GatewayStatusFailure {
		return session, pkgerrors.New(pkgerrors.CodeStateConflict, "no failed pairing to retry")
	}
	return s.runTerminalPairing(ctx, terminalID)
}

// ConfirmPayment settles a pending QR or card attempt. Confirming an already
// settled attempt is a no-op.
func (s *service) ConfirmPayment(ctx context.Context, terminalID uuid.UUID) (Session, error) {
	session := s.sessions.get(terminalID)
	if session.State != enums.CheckoutStateQRFlow && session.State != enums.CheckoutStateCardFlow {
		return session, stateError(session.State, "confirm payment")
	}
	if session.GatewayStatus == enums.GatewayStatusSuccess {
		return session, nil
	}
	if session.GatewayStatus != enums.GatewayStatusPending || session.GatewayRef == "" {
		return session, pkgerrors.New(pkgerrors.CodeStateConflict, "no pending payment to confirm")
	}

	result, err := s.gateways[session.PaymentMethod].Confirm(ctx, session.GatewayRef)
	if err != nil {
		return s.sessions.get(terminalID), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway confirm failed")
	}
	s.observeGateway(session.PaymentMethod, result.Status)

	return s.sessions.update(terminalID, func(session *Session) error {
		if session.State != enums.CheckoutStateQRFlow && session.State != enums.CheckoutStateCardFlow {
			return stateError(session.State, "record confirmation")
		}
		session.GatewayStatus = result.Status
		session.GatewayNote = result.Message
		return nil
	})
}

// FinalizeCash settles a cash sale. Tendered must cover the total; change is
// the difference.
func (s *service) FinalizeCash(ctx context.Context, terminalID uuid.UUID, cashierID *uuid.UUID, tendered decimal.Decimal) (*models.Sale, Session, error) {
	session := s.sessions.get(terminalID)
	if session.State != enums.CheckoutStateCashFlow {
		return nil, session, stateError(session.State, "finalize cash sale")
	}
	return s.finalize(ctx, terminalID, cashierID, enums.PaymentMethodCash, tendered, nil)
}

// FinalizeDigital settles a sale whose gateway attempt already succeeded.
func (s *service) FinalizeDigital(ctx context.Context, terminalID uuid.UUID, cashierID *uuid.UUID) (*models.Sale, Session, error) {
	session := s.sessions.get(terminalID)
	if !session.State.IsPaymentFlow() || session.PaymentMethod == enums.PaymentMethodCash {
		return nil, session, stateError(session.State, "finalize digital sale")
	}
	if session.GatewayStatus != enums.GatewayStatusSuccess {
		return nil, session, pkgerrors.New(pkgerrors.CodeStateConflict, "payment has not succeeded")
	}
	ref := session.GatewayRef
	return s.finalize(ctx, terminalID, cashierID, session.PaymentMethod, decimal.Zero, &ref)
}

func (s *service) finalize(ctx context.Context, terminalID uuid.UUID, cashierID *uuid.UUID, method enums.PaymentMethod, tendered decimal.Decimal, gatewayRef *string) (*models.Sale, Session, error) {
	snap := s.carts.Get(terminalID)
	if len(snap.Items) == 0 {
		return nil, s.sessions.get(terminalID), pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	total := snap.Total

	var change decimal.Decimal
	switch method {
	case enums.PaymentMethodCash:
		if tendered.LessThan(total) {
			return nil, s.sessions.get(terminalID), pkgerrors.New(pkgerrors.CodeValidation, "tendered amount is below the total")
		}
		change = tendered.Sub(total)
	default:
		tendered = total
		change = decimal.Zero
	}

	sale := &models.Sale{
		Total:            total,
		VATRate:          s.vatRate,
		PaymentMethod:    method,
		AmountTendered:   tendered,
		ChangeDue:        change,
		GatewayReference: gatewayRef,
		CashierID:        cashierID,
	}
	for _, item := range snap.Items {
		sale.Items = append(sale.Items, models.SaleItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			SKU:       item.SKU,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		})
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		orderNumber, err := s.orderNumbers.Next(ctx, tx, s.now())
		if err != nil {
			return err
		}
		sale.OrderNumber = orderNumber

		txCatalog := s.catalogRepo.WithTx(tx)
		for _, item := range snap.Items {
			if err := txCatalog.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, catalog.ErrInsufficientStock) {
					return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
						WithDetails(map[string]any{
							"product_id": item.ProductID,
							"name":       item.Name,
						})
				}
				return err
			}
		}

		if err := tx.Create(sale).Error; err != nil {
			return err
		}

		for _, item := range snap.Items {
			movement := &models.StockMovement{
				ProductID: item.ProductID,
				Delta:     -item.Quantity,
				Reason:    enums.StockMovementSale,
				SaleID:    &sale.ID,
			}
			if err := txCatalog.RecordMovement(ctx, movement); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, s.sessions.get(terminalID), typed
		}
		return nil, s.sessions.get(terminalID), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalizing sale")
	}

	// The sale is durable; everything below is after-the-fact bookkeeping.
	s.carts.Clear(terminalID)

	total64, _ := total.Float64()
	s.salesMetrics.ObserveSale(method.String(), total64)

	_ = s.feed.PublishChange(ctx, catalog.ChangeEvent{Table: salesTable, Op: catalog.ChangeOpCreated, ID: sale.ID})
	for _, item := range snap.Items {
		_ = s.feed.PublishChange(ctx, catalog.ChangeEvent{Table: "products", Op: catalog.ChangeOpUpdated, ID: item.ProductID})
	}

	if s.logg != nil {
		lctx := s.logg.WithSaleID(ctx, sale.ID.String())
		s.logg.Info(s.logg.WithFields(lctx, map[string]any{
			"order_number": sale.OrderNumber,
			"method":       method.String(),
			"total":        total.StringFixed(2),
		}), "sale finalized")
	}

	session, updateErr := s.sessions.update(terminalID, func(session *Session) error {
		session.State = enums.CheckoutStateReceipt
		session.SaleID = &sale.ID
		return nil
	})
	if updateErr != nil {
		return sale, session, updateErr
	}
	return sale, session, nil
}

// Back steps out of a payment flow to method selection, or cancels selection
// back to idle. The cart is untouched either way.
func (s *service) Back(_ context.Context, terminalID uuid.UUID) (Session, error) {
	return s.sessions.update(terminalID, func(session *Session) error {
		switch {
		case session.State.IsPaymentFlow():
			session.State = enums.CheckoutStatePaymentSelect
			session.PaymentMethod = ""
			session.GatewayStatus = ""
			session.GatewayRef = ""
			session.GatewayNote = ""
		case session.State == enums.CheckoutStatePaymentSelect:
			session.State = enums.CheckoutStateIdle
		default:
			return stateError(session.State, "go back")
		}
		return nil
	})
}

// Abort cancels the checkout and empties the cart.
func (s *service) Abort(_ context.Context, terminalID uuid.UUID) (Session, error) {
	session, err := s.sessions.update(terminalID, func(session *Session) error {
		if session.State == enums.CheckoutStateReceipt {
			return stateError(session.State, "abort checkout")
		}
		*session = Session{TerminalID: session.TerminalID, State: enums.CheckoutStateIdle}
		return nil
	})
	if err != nil {
		return session, err
	}
	s.carts.Clear(terminalID)
	return session, nil
}

// Complete acknowledges the receipt screen and readies the next sale.
func (s *service) Complete(_ context.Context, terminalID uuid.UUID) (Session, error) {
	return s.sessions.update(terminalID, func(session *Session) error {
		if session.State != enums.CheckoutStateReceipt {
			return stateError(session.State, "complete checkout")
		}
		*session = Session{TerminalID: session.TerminalID, State: enums.CheckoutStateIdle}
		return nil
	})
}

func (s *service) observeGateway(method enums.PaymentMethod, status enums.GatewayStatus) {
	s.salesMetrics.ObserveGateway(method.String(), status.String())
}

func stateError(state enums.CheckoutState, action string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s from state %s", action, state))
}
