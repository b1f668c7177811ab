package checkout

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmflorece/tindahan-pos/pkg/config"
	"github.com/jmflorece/tindahan-pos/pkg/enums"
)

// GatewayResult is the outcome a payment gateway reports for one attempt.
type GatewayResult struct {
	Status    enums.GatewayStatus
	Reference string
	Message   string
}

// Gateway models an external payment rail. Real integrations would talk to
// an acquirer here; the register ships with simulated ones.
type Gateway interface {
	// Authorize opens a payment attempt for the amount. QR and card rails
	// come back pending and settle on Confirm; the terminal rail resolves
	// in a single call.
	Authorize(ctx context.Context, amount decimal.Decimal) (GatewayResult, error)
	// Confirm settles a pending attempt by reference.
	Confirm(ctx context.Context, reference string) (GatewayResult, error)
}

// manualGateway backs the QR and card flows. The attempt stays pending until
// the cashier confirms the customer has paid.
type manualGateway struct {
	refPrefix string
}

// NewQRGateway builds the simulated QR rail.
func NewQRGateway() Gateway { return &manualGateway{refPrefix: "QR"} }

// NewCardGateway builds the simulated card rail.
func NewCardGateway() Gateway { return &manualGateway{refPrefix: "CARD"} }

func (g *manualGateway) Authorize(_ context.Context, amount decimal.Decimal) (GatewayResult, error) {
	if !amount.IsPositive() {
		return GatewayResult{}, fmt.Errorf("authorize amount must be positive")
	}
	return GatewayResult{
		Status:    enums.GatewayStatusPending,
		Reference: g.newReference(),
		Message:   "awaiting customer payment",
	}, nil
}

func (g *manualGateway) Confirm(_ context.Context, reference string) (GatewayResult, error) {
	if strings.TrimSpace(reference) == "" {
		return GatewayResult{}, fmt.Errorf("reference is required")
	}
	return GatewayResult{
		Status:    enums.GatewayStatusSuccess,
		Reference: reference,
		Message:   "payment confirmed",
	}, nil
}

func (g *manualGateway) newReference() string {
	return fmt.Sprintf("%s-%s", g.refPrefix, strings.ToUpper(uuid.NewString()[:8]))
}

// TerminalGateway simulates pairing with a card terminal: a fixed pairing
// delay, then a randomized outcome. Clock and randomness are injectable so
// tests stay deterministic.
type TerminalGateway struct {
	successRate  float64
	pairingDelay time.Duration
	randFloat    func() float64
	sleep        func(ctx context.Context, d time.Duration) error
}

// TerminalOption tweaks a TerminalGateway.
type TerminalOption func(*TerminalGateway)

// WithRandFloat overrides the outcome source.
func WithRandFloat(fn func() float64) TerminalOption {
	return func(g *TerminalGateway) { g.randFloat = fn }
}

// WithSleep overrides the pairing wait.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) TerminalOption {
	return func(g *TerminalGateway) { g.sleep = fn }
}

// NewTerminalGateway builds the simulated terminal rail from checkout config.
func NewTerminalGateway(cfg config.CheckoutConfig, opts ...TerminalOption) *TerminalGateway {
	g := &TerminalGateway{
		successRate:  cfg.TerminalSuccessRate,
		pairingDelay: cfg.TerminalPairingDelay,
		randFloat:    rand.Float64,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *TerminalGateway) Authorize(ctx context.Context, amount decimal.Decimal) (GatewayResult, error) {
	if !amount.IsPositive() {
		return GatewayResult{}, fmt.Errorf("authorize amount must be positive")
	}
	if err := g.sleep(ctx, g.pairingDelay); err != nil {
		return GatewayResult{}, err
	}
	if g.randFloat() < g.successRate {
		return GatewayResult{
			Status:    enums.GatewayStatusSuccess,
			Reference: fmt.Sprintf("TERM-%s", strings.ToUpper(uuid.NewString()[:8])),
			Message:   "terminal approved",
		}, nil
	}
	return GatewayResult{
		Status:  enums.GatewayStatusFailure,
		Message: "terminal pairing failed",
	}, nil
}

// Confirm is a no-op on the terminal rail: Authorize already settled.
func (g *TerminalGateway) Confirm(_ context.Context, reference string) (GatewayResult, error) {
	if strings.TrimSpace(reference) == "" {
		return GatewayResult{}, fmt.Errorf("reference is required")
	}
	return GatewayResult{Status: enums.GatewayStatusSuccess, Reference: reference}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
