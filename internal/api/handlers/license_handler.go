package handlers

import (
	"database/sql"
	goerrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	apiContext "licgate/internal/api/context"
	"licgate/internal/engine/license"
	"licgate/internal/pkg/errors"
	"licgate/internal/pkg/request"
	"licgate/internal/platform/auth"
	"licgate/internal/platform/models"
	"licgate/internal/platform/repositories"
)

type LicenseHandler struct {
	service  *license.Service
	licenses *repositories.LicenseRepository
	logs     *repositories.APILogRepository
}

func NewLicenseHandler(service *license.Service, licenses *repositories.LicenseRepository, logs *repositories.APILogRepository) *LicenseHandler {
	return &LicenseHandler{service: service, licenses: licenses, logs: logs}
}

type CreateLicenseRequest struct {
	Domain       string  `json:"domain" validate:"required"`
	Status       string  `json:"status" validate:"omitempty,oneof=active suspended expired"`
	RequestLimit int64   `json:"request_limit" validate:"omitempty,gt=0"`
	ExpiresAt    *string `json:"expires_at"`
}

func (h *LicenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLicenseRequest
	if err := request.Decode(r, &req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	expiresAt, err := parseExpiry(req.ExpiresAt)
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "expires_at must be RFC3339", nil)
		return
	}

	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	lic, err := h.service.Create(req.Domain, req.Status, req.RequestLimit, expiresAt, claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, lic)
}

func (h *LicenseHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)
	if perPage > 100 {
		perPage = 100
	}
	search := r.URL.Query().Get("search")

	licenses, err := h.licenses.List(perPage, (page-1)*perPage, search)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	total, err := h.licenses.Count(search)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Licenses []*models.License `json:"licenses"`
		Total    int64             `json:"total"`
		Page     int               `json:"page"`
		PerPage  int               `json:"per_page"`
	}{licenses, total, page, perPage})
}

func (h *LicenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	lic, err := h.licenses.GetByID(param(r, "license_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if lic == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "License not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, lic)
}

type UpdateLicenseRequest struct {
	Domain       *string `json:"domain"`
	Status       *string `json:"status" validate:"omitempty,oneof=active suspended expired"`
	RequestLimit *int64  `json:"request_limit" validate:"omitempty,gt=0"`
	ExpiresAt    *string `json:"expires_at"`
	ClearExpiry  bool    `json:"clear_expiry"`
}

func (h *LicenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateLicenseRequest
	if err := request.Decode(r, &req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	expiresAt, err := parseExpiry(req.ExpiresAt)
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "expires_at must be RFC3339", nil)
		return
	}

	lic, err := h.service.Update(param(r, "license_id"), license.UpdateParams{
		Domain:       req.Domain,
		Status:       req.Status,
		RequestLimit: req.RequestLimit,
		ExpiresAt:    expiresAt,
		ClearExpiry:  req.ClearExpiry,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lic)
}

func (h *LicenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(param(r, "license_id")); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Regenerate replaces the license API key. The old key fails lookup as
// soon as this returns; the new key is only shown once, here.
func (h *LicenseHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	newKey, err := h.service.Regenerate(param(r, "license_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		APIKey string `json:"api_key"`
	}{newKey})
}

func (h *LicenseHandler) ResetCount(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetCount(param(r, "license_id")); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LicenseHandler) Logs(w http.ResponseWriter, r *http.Request) {
	id := param(r, "license_id")
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)

	entries, err := h.logs.ListByLicense(id, perPage, (page-1)*perPage)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	total, err := h.logs.CountByLicense(id)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Logs    []*models.APILogEntry `json:"logs"`
		Total   int64                 `json:"total"`
		Page    int                   `json:"page"`
		PerPage int                   `json:"per_page"`
	}{entries, total, page, perPage})
}

func (h *LicenseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)
	stats, err := h.logs.StatsByLicense(param(r, "license_id"), days)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *LicenseHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7)
	licenses, err := h.licenses.ExpiringSoon(time.Now().Unix(), days)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, licenses)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case goerrors.Is(err, license.ErrInvalidDomain),
		goerrors.Is(err, license.ErrInvalidStatus),
		goerrors.Is(err, license.ErrInvalidLimit):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
	case goerrors.Is(err, license.ErrNotFound), goerrors.Is(err, sql.ErrNoRows):
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "License not found", nil)
	default:
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
	}
}

func parseExpiry(s *string) (*int64, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	unix := t.Unix()
	return &unix, nil
}

func param(r *http.Request, name string) string {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params.ByName(name)
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
