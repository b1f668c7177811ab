package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jmflorece/tindahan-pos/api/responses"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
	"github.com/jmflorece/tindahan-pos/pkg/logger"
)

const terminalIDHeader = "X-Terminal-Id"

// Terminal requires a register terminal id on cart and checkout routes. Each
// register sends a stable uuid so its cart and checkout session stay its own.
func Terminal(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(terminalIDHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, terminalIDHeader+" header required"))
				return
			}
			terminalID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, terminalIDHeader+" must be a uuid"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTerminalID(r.Context(), terminalID)))
		})
	}
}
