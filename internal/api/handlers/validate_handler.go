package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"licgate/internal/engine/license"
	"licgate/internal/pkg/metrics"
)

type ValidateHandler struct {
	engine *license.Engine
}

func NewValidateHandler(engine *license.Engine) *ValidateHandler {
	return &ValidateHandler{engine: engine}
}

type validateResponse struct {
	Status       string                  `json:"status"`
	Message      string                  `json:"message"`
	Data         *license.ValidationData `json:"data,omitempty"`
	RequestCount *int64                  `json:"request_count,omitempty"`
	RequestLimit *int64                  `json:"request_limit,omitempty"`
}

// Handle serves the public validation endpoint. api_key and domain are
// accepted via GET query or POST form fields. The request domain is
// lowercased before it reaches the matcher; the client IP comes from the
// transport address only, proxy headers are not trusted.
func (h *ValidateHandler) Handle(w http.ResponseWriter, r *http.Request) {
	apiKey := strings.TrimSpace(r.FormValue("api_key"))
	domain := strings.ToLower(strings.TrimSpace(r.FormValue("domain")))

	decision, err := h.engine.Validate(apiKey, domain, clientIP(r))
	if err != nil {
		metrics.ValidationErrors.Inc()
		log.Error().Err(err).Msg("validation failed against store")
		writeJSON(w, http.StatusInternalServerError, validateResponse{
			Status:  "error",
			Message: "unable to verify license",
		})
		return
	}

	metrics.ValidationsTotal.WithLabelValues(string(decision.Outcome)).Inc()

	resp := validateResponse{
		Status:  string(decision.Outcome),
		Message: decision.Message,
		Data:    decision.Data,
	}
	if decision.Quota != nil {
		resp.RequestCount = &decision.Quota.RequestCount
		resp.RequestLimit = &decision.Quota.RequestLimit
	}
	writeJSON(w, decision.HTTPStatus, resp)
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
