package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxCashierID   contextKey = "cashier_id"
	ctxCashierName contextKey = "cashier_name"
	ctxTerminalID  contextKey = "terminal_id"
)

// CashierIDFromContext returns the authenticated cashier's id, or uuid.Nil.
func CashierIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxCashierID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func CashierNameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCashierName).(string); ok {
		return v
	}
	return ""
}

// TerminalIDFromContext returns the register terminal id, or uuid.Nil.
func TerminalIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxTerminalID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// WithCashier injects the cashier identity for downstream handlers.
func WithCashier(ctx context.Context, id uuid.UUID, name string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxCashierID, id)
	return context.WithValue(ctx, ctxCashierName, name)
}

// WithTerminalID injects the terminal id for downstream handlers.
func WithTerminalID(ctx context.Context, id uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTerminalID, id)
}
