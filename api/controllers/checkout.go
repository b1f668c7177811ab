package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmflorece/tindahan-pos/api/middleware"
	"github.com/jmflorece/tindahan-pos/api/responses"
	"github.com/jmflorece/tindahan-pos/api/validators"
	checkoutsvc "github.com/jmflorece/tindahan-pos/internal/checkout"
	"github.com/jmflorece/tindahan-pos/pkg/enums"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
	"github.com/jmflorece/tindahan-pos/pkg/logger"
)

// CheckoutSession returns the terminal's current checkout state.
func CheckoutSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := terminalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, svc.Session(terminalID))
	}
}

// CheckoutStart moves an idle terminal into payment selection.
func CheckoutStart(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := terminalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Start(r.Context(), terminalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// CheckoutSelectMethod picks a payment method and kicks off its flow. Cash
// waits for a tender amount, QR and card authorize a pending charge, and the
// terminal runs its pairing sequence.
func CheckoutSelectMethod(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := terminalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload selectMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		session, err := svc.SelectMethod(r.Context(), terminalID, method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

type selectMethodRequest struct {
	Method string `json:"method" validate:"required,oneof=cash qr card terminal"`
}

// CheckoutConfirm acknowledges a pending QR or card charge as paid.
func CheckoutConfirm(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := terminalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.ConfirmPayment(r.Context(), terminalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// CheckoutRetryTerminal reruns the pairing sequence after a terminal failure.
func CheckoutRetryTerminal(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := terminalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.RetryTerminal(r.Context(), terminalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// CheckoutFinalize commits the sale. Cash flows require the tendered amount;
// digital flows require a successful gateway status and ignore tender.
func CheckoutFinalize(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := terminalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var cashierID *uuid.UUID
		if id := middleware.CashierIDFromContext(r.Context()); id != uuid.Nil {
			cashierID = &id
		}

		// Digital flows need no payload, so an empty body is fine here.
		var payload finalizeRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		session := svc.Session(terminalID)
		var sale any
		var next checkoutsvc.Session
		if session.PaymentMethod == enums.PaymentMethodCash {
			if strings.TrimSpace(payload.Tendered) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tendered amount required for cash"))
				return
			}
			tendered, parseErr := decimal.NewFromString(strings.TrimSpace(payload.Tendered))
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid tendered amount"))
				return
			}
			sale, next, err = svc.FinalizeCash(r.Context(), terminalID, cashierID, tendered)
		} else {
			sale, next, err = svc.FinalizeDigital(r.Context(), terminalID, cashierID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"sale":    sale,
			"session": next,
		})
	}
}

type finalizeRequest struct {
	Tendered string `json:"tendered,omitempty"`
}

// CheckoutBack steps the flow backwards without touching the cart.
func CheckoutBack(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := terminalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Back(r.Context(), terminalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// CheckoutAbort cancels the flow and clears the cart.
func CheckoutAbort(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := terminalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Abort(r.Context(), terminalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// CheckoutComplete dismisses the receipt screen and returns to idle.
func CheckoutComplete(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := terminalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Complete(r.Context(), terminalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}
