package models

// License statuses. "expired" can be set explicitly by the sweep worker;
// an active license with a past expiry is treated as expired lazily at
// validation time.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusExpired   = "expired"
)

type License struct {
	ID           string `json:"id"`
	APIKey       string `json:"api_key"`
	Domain       string `json:"domain"`
	Status       string `json:"status"`
	RequestLimit int64  `json:"request_limit"`
	RequestCount int64  `json:"request_count"`
	ExpiresAt    *int64 `json:"expires_at,omitempty"`
	CreatedBy    string `json:"created_by"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}
