package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jmflorece/tindahan-pos/api/responses"
	"github.com/jmflorece/tindahan-pos/api/validators"
	ledgersvc "github.com/jmflorece/tindahan-pos/internal/ledger"
	"github.com/jmflorece/tindahan-pos/internal/receipt"
	settingssvc "github.com/jmflorece/tindahan-pos/internal/settings"
	"github.com/jmflorece/tindahan-pos/pkg/enums"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
	"github.com/jmflorece/tindahan-pos/pkg/logger"
	"github.com/jmflorece/tindahan-pos/pkg/pagination"
)

func ledgerFilterFromQuery(r *http.Request) (ledgersvc.Filter, error) {
	filter := ledgersvc.Filter{
		OrderNumber: strings.TrimSpace(r.URL.Query().Get("order_number")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("method")); raw != "" {
		method, err := enums.ParsePaymentMethod(raw)
		if err != nil {
			return ledgersvc.Filter{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
		}
		filter.Method = method
	}

	day, err := validators.ParseQueryDate(r, "day", time.Time{})
	if err != nil {
		return ledgersvc.Filter{}, err
	}
	if !day.IsZero() {
		filter.Day = &day
	}

	return filter, nil
}

// SalesList pages through the transaction ledger, newest first.
func SalesList(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		filter, err := ledgerFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), filter, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// SalesSummary aggregates the filtered ledger by payment method.
func SalesSummary(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		filter, err := ledgerFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Aggregate(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// SaleDetail returns one finalized sale, by id or by order number lookup.
func SaleDetail(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		raw := chi.URLParam(r, "saleId")
		saleID, err := validators.PathUUID(raw)
		if err != nil {
			sale, numErr := svc.GetByOrderNumber(r.Context(), raw)
			if numErr != nil {
				responses.WriteError(r.Context(), logg, w, numErr)
				return
			}
			responses.WriteSuccess(w, sale)
			return
		}

		sale, err := svc.Get(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sale)
	}
}

// SaleReceipt renders a sale's receipt with the current shop profile.
// ?format=text returns the 32-column plain text rendering.
func SaleReceipt(ledgerS ledgersvc.Service, settingsS settingssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledgerS == nil || settingsS == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipt dependencies unavailable"))
			return
		}

		saleID, err := validators.PathUUID(chi.URLParam(r, "saleId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := ledgerS.Get(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := settingsS.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		built := receipt.Build(sale, profile)
		if r.URL.Query().Get("format") == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(built.Render()))
			return
		}

		responses.WriteSuccess(w, built)
	}
}
