package models

// Log entry statuses for validation attempts.
const (
	LogSuccess = "success"
	LogFailed  = "failed"
	LogBlocked = "blocked"
)

// APILogEntry is an immutable record of one validation attempt.
// LicenseID is nil when the presented api_key resolved to no license.
type APILogEntry struct {
	ID            string  `json:"id"`
	LicenseID     *string `json:"license_id"`
	IPAddress     string  `json:"ip_address"`
	RequestDomain string  `json:"request_domain"`
	Status        string  `json:"status"`
	Message       string  `json:"message"`
	CreatedAt     int64   `json:"created_at"`
}
