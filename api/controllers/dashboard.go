package controllers

import (
	"net/http"
	"time"

	"github.com/jmflorece/tindahan-pos/api/responses"
	"github.com/jmflorece/tindahan-pos/api/validators"
	reportssvc "github.com/jmflorece/tindahan-pos/internal/reports"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
	"github.com/jmflorece/tindahan-pos/pkg/logger"
)

// Dashboard returns the daily sales dashboard. ?date=YYYY-MM-DD selects a
// past day; the default is today.
func Dashboard(svc reportssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		day, err := validators.ParseQueryDate(r, "date", time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dashboard, err := svc.DashboardFor(r.Context(), day)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dashboard)
	}
}
