package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TerminalTokenPayload carries the identity minted into a terminal session.
type TerminalTokenPayload struct {
	CashierID uuid.UUID
	Name      string
	JTI       string
}

// TerminalTokenClaims is the JWT claim set for an unlocked register session.
type TerminalTokenClaims struct {
	CashierID uuid.UUID `json:"cashier_id"`
	Name      string    `json:"name"`
	jwt.RegisteredClaims
}
