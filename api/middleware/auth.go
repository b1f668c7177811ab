package middleware

import (
	"net/http"
	"strings"

	"github.com/jmflorece/tindahan-pos/api/responses"
	pkgauth "github.com/jmflorece/tindahan-pos/pkg/auth"
	"github.com/jmflorece/tindahan-pos/pkg/config"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
	"github.com/jmflorece/tindahan-pos/pkg/logger"
)

// Auth validates the terminal bearer token and seeds the request context with
// the cashier identity.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseTerminalToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithCashier(r.Context(), claims.CashierID, claims.Name)
			if logg != nil {
				ctx = logg.WithCashierID(ctx, claims.CashierID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
