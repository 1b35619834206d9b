package license

import (
	"errors"
	"strings"
	"time"

	"licgate/internal/platform/models"
	"licgate/internal/platform/repositories"
)

var (
	ErrNotFound      = errors.New("license not found")
	ErrInvalidDomain = errors.New("invalid domain pattern")
	ErrInvalidStatus = errors.New("invalid license status")
	ErrInvalidLimit  = errors.New("request_limit must be positive")
)

// Service owns the admin-side license operations. The validation engine
// never goes through it.
type Service struct {
	licenses *repositories.LicenseRepository
}

func NewService(licenses *repositories.LicenseRepository) *Service {
	return &Service{licenses: licenses}
}

// Create issues a new license with a freshly generated API key. The
// domain pattern is normalized to lowercase and format-checked here,
// never at match time.
func (s *Service) Create(domain, status string, requestLimit int64, expiresAt *int64, createdBy string) (*models.License, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if !ValidPattern(domain) {
		return nil, ErrInvalidDomain
	}

	if status == "" {
		status = models.StatusActive
	}
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}

	if requestLimit == 0 {
		requestLimit = 1000
	}
	if requestLimit < 0 {
		return nil, ErrInvalidLimit
	}

	apiKey, err := NewAPIKey()
	if err != nil {
		return nil, err
	}

	lic := &models.License{
		APIKey:       apiKey,
		Domain:       domain,
		Status:       status,
		RequestLimit: requestLimit,
		ExpiresAt:    expiresAt,
		CreatedBy:    createdBy,
	}
	if err := s.licenses.Create(lic); err != nil {
		return nil, err
	}
	return lic, nil
}

// UpdateParams carries the admin-editable fields. Nil pointers leave the
// field untouched; ClearExpiry removes the expiry date.
type UpdateParams struct {
	Domain       *string
	Status       *string
	RequestLimit *int64
	ExpiresAt    *int64
	ClearExpiry  bool
}

// Update applies an admin edit. Setting a future expiry on an expired
// license flips it back to active: resurrection is an admin action, the
// validation path only ever moves the other way.
func (s *Service) Update(id string, params UpdateParams) (*models.License, error) {
	lic, err := s.licenses.GetByID(id)
	if err != nil {
		return nil, err
	}
	if lic == nil {
		return nil, ErrNotFound
	}

	if params.Domain != nil {
		domain := strings.ToLower(strings.TrimSpace(*params.Domain))
		if !ValidPattern(domain) {
			return nil, ErrInvalidDomain
		}
		lic.Domain = domain
	}
	if params.Status != nil {
		if !validStatus(*params.Status) {
			return nil, ErrInvalidStatus
		}
		lic.Status = *params.Status
	}
	if params.RequestLimit != nil {
		if *params.RequestLimit <= 0 {
			return nil, ErrInvalidLimit
		}
		lic.RequestLimit = *params.RequestLimit
	}
	if params.ClearExpiry {
		lic.ExpiresAt = nil
	} else if params.ExpiresAt != nil {
		lic.ExpiresAt = params.ExpiresAt
	}

	if lic.Status == models.StatusExpired && lic.ExpiresAt != nil && *lic.ExpiresAt > time.Now().Unix() {
		lic.Status = models.StatusActive
	}

	if err := s.licenses.Update(lic); err != nil {
		return nil, err
	}
	return lic, nil
}

// Regenerate swaps the license key for a new one and returns it. The old
// key stops resolving as part of the same store update.
func (s *Service) Regenerate(id string) (string, error) {
	newKey, err := NewAPIKey()
	if err != nil {
		return "", err
	}
	if err := s.licenses.RegenerateAPIKey(id, newKey); err != nil {
		return "", err
	}
	return newKey, nil
}

func (s *Service) ResetCount(id string) error {
	return s.licenses.ResetRequestCount(id)
}

// Delete removes the license; its log entries go with it via the store's
// cascade.
func (s *Service) Delete(id string) error {
	return s.licenses.Delete(id)
}

func validStatus(status string) bool {
	switch status {
	case models.StatusActive, models.StatusSuspended, models.StatusExpired:
		return true
	}
	return false
}
