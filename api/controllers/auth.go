package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmflorece/tindahan-pos/api/responses"
	"github.com/jmflorece/tindahan-pos/api/validators"
	staffsvc "github.com/jmflorece/tindahan-pos/internal/staff"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
	"github.com/jmflorece/tindahan-pos/pkg/logger"
)

// AuthLogin exchanges a cashier code and PIN for a terminal token.
func AuthLogin(svc staffsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staff service unavailable"))
			return
		}

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload.Code, payload.Pin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type loginRequest struct {
	Code string `json:"code" validate:"required"`
	Pin  string `json:"pin" validate:"required"`
}

// StaffCreate registers a new cashier account.
func StaffCreate(svc staffsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staff service unavailable"))
			return
		}

		var payload createStaffRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.Create(r.Context(), staffsvc.CreateInput{
			Name: payload.Name,
			Code: payload.Code,
			Pin:  payload.Pin,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, member)
	}
}

type createStaffRequest struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required"`
	Pin  string `json:"pin" validate:"required"`
}

// StaffList returns every cashier account, active or not.
func StaffList(svc staffsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staff service unavailable"))
			return
		}

		members, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, members)
	}
}

// StaffSetActive enables or disables a cashier account.
func StaffSetActive(svc staffsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staff service unavailable"))
			return
		}

		staffID, err := validators.PathUUID(chi.URLParam(r, "staffId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setActiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.SetActive(r.Context(), staffID, *payload.Active)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, member)
	}
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// StaffChangePin replaces a cashier's PIN.
func StaffChangePin(svc staffsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staff service unavailable"))
			return
		}

		staffID, err := validators.PathUUID(chi.URLParam(r, "staffId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload changePinRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ChangePin(r.Context(), staffID, payload.Pin); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "pin updated"})
	}
}

type changePinRequest struct {
	Pin string `json:"pin" validate:"required"`
}
