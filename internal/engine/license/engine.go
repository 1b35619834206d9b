package license

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"licgate/internal/platform/models"
)

// LicenseStore is the persistence contract the validation engine depends
// on. FindByAPIKey returns (nil, nil) when the key resolves to nothing.
// IncrementRequestCount must be a single atomic database-side increment.
type LicenseStore interface {
	FindByAPIKey(apiKey string) (*models.License, error)
	IncrementRequestCount(id string) (*models.License, error)
	SetStatus(id, status string) error
}

// AuditLog records validation attempts. Append-only.
type AuditLog interface {
	Create(entry *models.APILogEntry) error
}

type Outcome string

const (
	OutcomeValid   Outcome = "valid"
	OutcomeInvalid Outcome = "invalid"
	OutcomeBlocked Outcome = "blocked"
)

// Decision is the typed result of one validation call. Exactly one of
// Data (valid) and Quota (blocked) is set, both nil for invalid.
type Decision struct {
	Outcome    Outcome
	HTTPStatus int
	Message    string
	Data       *ValidationData
	Quota      *QuotaInfo
}

// ValidationData is the success payload echoed back to the client.
type ValidationData struct {
	Domain            string  `json:"domain"`
	ExpiresAt         *string `json:"expires_at"`
	RemainingDays     *int64  `json:"remaining_days"`
	RequestCount      int64   `json:"request_count"`
	RequestLimit      int64   `json:"request_limit"`
	RemainingRequests int64   `json:"remaining_requests"`
}

type QuotaInfo struct {
	RequestCount int64 `json:"request_count"`
	RequestLimit int64 `json:"request_limit"`
}

type Engine struct {
	store LicenseStore
	audit AuditLog
}

func NewEngine(store LicenseStore, audit AuditLog) *Engine {
	return &Engine{store: store, audit: audit}
}

// Validate runs the ordered rule chain for one (apiKey, domain) pair and
// returns the decision. Every decided request writes exactly one audit
// entry; the only exception is the missing-fields rejection, which has no
// license context to log against. A non-nil error means the store could
// not be consulted and must surface as a server error, never as an
// invalid license.
func (e *Engine) Validate(apiKey, requestDomain, sourceIP string) (*Decision, error) {
	if apiKey == "" || requestDomain == "" {
		return &Decision{
			Outcome:    OutcomeInvalid,
			HTTPStatus: http.StatusBadRequest,
			Message:    "api_key and domain are required",
		}, nil
	}

	lic, err := e.store.FindByAPIKey(apiKey)
	if err != nil {
		return nil, fmt.Errorf("find license: %w", err)
	}

	if lic == nil {
		if err := e.logAttempt(nil, sourceIP, requestDomain, models.LogFailed, "API key not found"); err != nil {
			return nil, err
		}
		return &Decision{
			Outcome:    OutcomeInvalid,
			HTTPStatus: http.StatusUnauthorized,
			Message:    "invalid API key",
		}, nil
	}

	if lic.Status != models.StatusActive {
		msg := fmt.Sprintf("license is not active (status: %s)", lic.Status)
		if err := e.logAttempt(&lic.ID, sourceIP, requestDomain, models.LogFailed, msg); err != nil {
			return nil, err
		}
		return &Decision{
			Outcome:    OutcomeInvalid,
			HTTPStatus: http.StatusForbidden,
			Message:    msg,
		}, nil
	}

	now := time.Now()
	if lic.ExpiresAt != nil && *lic.ExpiresAt < now.Unix() {
		// Lazy expiry: the only read-path rule that mutates status.
		if err := e.store.SetStatus(lic.ID, models.StatusExpired); err != nil {
			return nil, fmt.Errorf("mark license expired: %w", err)
		}
		if err := e.logAttempt(&lic.ID, sourceIP, requestDomain, models.LogFailed, "license expired"); err != nil {
			return nil, err
		}
		return &Decision{
			Outcome:    OutcomeInvalid,
			HTTPStatus: http.StatusForbidden,
			Message:    "license has expired",
		}, nil
	}

	if !Matches(lic.Domain, requestDomain) {
		if err := e.logAttempt(&lic.ID, sourceIP, requestDomain, models.LogFailed, "domain mismatch"); err != nil {
			return nil, err
		}
		return &Decision{
			Outcome:    OutcomeInvalid,
			HTTPStatus: http.StatusForbidden,
			Message:    "domain does not match license",
		}, nil
	}

	if lic.RequestCount >= lic.RequestLimit {
		if err := e.logAttempt(&lic.ID, sourceIP, requestDomain, models.LogBlocked, "request limit reached"); err != nil {
			return nil, err
		}
		return &Decision{
			Outcome:    OutcomeBlocked,
			HTTPStatus: http.StatusTooManyRequests,
			Message:    "request limit reached",
			Quota: &QuotaInfo{
				RequestCount: lic.RequestCount,
				RequestLimit: lic.RequestLimit,
			},
		}, nil
	}

	updated, err := e.store.IncrementRequestCount(lic.ID)
	if err != nil {
		return nil, fmt.Errorf("increment request count: %w", err)
	}
	if updated == nil {
		// License deleted between lookup and increment.
		return nil, fmt.Errorf("license %s vanished during validation", lic.ID)
	}

	// The increment is committed at this point and is not compensated if
	// the audit write fails; log the failure and stand by the accept.
	if err := e.logAttempt(&lic.ID, sourceIP, requestDomain, models.LogSuccess, "validation successful"); err != nil {
		log.Error().Err(err).Str("license_id", lic.ID).Msg("failed to write success audit entry")
	}

	data := &ValidationData{
		Domain:            updated.Domain,
		RequestCount:      updated.RequestCount,
		RequestLimit:      updated.RequestLimit,
		RemainingRequests: updated.RequestLimit - updated.RequestCount,
	}
	if updated.ExpiresAt != nil {
		expires := time.Unix(*updated.ExpiresAt, 0).UTC().Format(time.RFC3339)
		days := RemainingDays(*updated.ExpiresAt, now.Unix())
		data.ExpiresAt = &expires
		data.RemainingDays = &days
	}

	return &Decision{
		Outcome:    OutcomeValid,
		HTTPStatus: http.StatusOK,
		Message:    "license valid",
		Data:       data,
	}, nil
}

// RemainingDays reports whole days until expiry, rounding any partial
// day up. Not-yet-elapsed seconds under a day count as a full day; a
// past or exactly-now expiry reports 0.
func RemainingDays(expiresAt, now int64) int64 {
	secs := expiresAt - now
	if secs <= 0 {
		return 0
	}
	return (secs + 86399) / 86400
}

func (e *Engine) logAttempt(licenseID *string, ip, domain, status, message string) error {
	err := e.audit.Create(&models.APILogEntry{
		LicenseID:     licenseID,
		IPAddress:     ip,
		RequestDomain: domain,
		Status:        status,
		Message:       message,
	})
	if err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}
