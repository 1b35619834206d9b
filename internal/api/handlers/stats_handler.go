package handlers

import (
	"net/http"
	"time"

	"licgate/internal/pkg/errors"
	"licgate/internal/platform/models"
	"licgate/internal/platform/repositories"
)

type StatsHandler struct {
	licenses *repositories.LicenseRepository
	logs     *repositories.APILogRepository
}

func NewStatsHandler(licenses *repositories.LicenseRepository, logs *repositories.APILogRepository) *StatsHandler {
	return &StatsHandler{licenses: licenses, logs: logs}
}

// Overview serves the dashboard numbers: per-status license counts plus
// per-day validation rollups for the trailing window.
func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)

	licenseStats, err := h.licenses.Statistics(time.Now().Unix())
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	logStats, err := h.logs.OverallStats(days)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Licenses *repositories.LicenseStats `json:"licenses"`
		Daily    []*repositories.DailyStats `json:"daily"`
	}{licenseStats, logStats})
}

func (h *StatsHandler) RecentLogs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	if limit > 100 {
		limit = 100
	}

	entries, err := h.logs.Recent(limit)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Logs []*models.APILogEntry `json:"logs"`
	}{entries})
}
