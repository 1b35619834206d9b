package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"licgate/internal/platform/models"
)

// APILogRepository is the append-only store for validation attempts.
// The request path only ever inserts; pruning is a worker-side
// maintenance operation.
type APILogRepository struct {
	db *sql.DB
}

func NewAPILogRepository(db *sql.DB) *APILogRepository {
	return &APILogRepository{db: db}
}

func (r *APILogRepository) Create(entry *models.APILogEntry) error {
	if entry.ID == "" {
		entry.ID = "log_" + uuid.New().String()
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}

	query := `
		INSERT INTO api_logs (id, license_id, ip_address, request_domain, status, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		entry.ID,
		entry.LicenseID,
		entry.IPAddress,
		entry.RequestDomain,
		entry.Status,
		entry.Message,
		entry.CreatedAt,
	)
	return err
}

const logColumns = `id, license_id, ip_address, request_domain, status, message, created_at`

func (r *APILogRepository) ListByLicense(licenseID string, limit, offset int) ([]*models.APILogEntry, error) {
	query := `SELECT ` + logColumns + ` FROM api_logs
		WHERE license_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.Query(query, licenseID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLogs(rows)
}

func (r *APILogRepository) CountByLicense(licenseID string) (int64, error) {
	var total int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM api_logs WHERE license_id = ?`, licenseID).Scan(&total)
	return total, err
}

func (r *APILogRepository) Recent(limit int) ([]*models.APILogEntry, error) {
	query := `SELECT ` + logColumns + ` FROM api_logs ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLogs(rows)
}

type DailyStats struct {
	Date    string `json:"date"`
	Total   int64  `json:"total"`
	Success int64  `json:"success"`
	Failed  int64  `json:"failed"`
	Blocked int64  `json:"blocked"`
}

// StatsByLicense rolls up one license's log entries into per-day
// success/failed/blocked counts over the trailing `days` days.
func (r *APILogRepository) StatsByLicense(licenseID string, days int) ([]*DailyStats, error) {
	since := time.Now().Unix() - int64(days)*86400
	query := `
		SELECT
			date(created_at, 'unixepoch'),
			COUNT(*),
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'blocked' THEN 1 ELSE 0 END)
		FROM api_logs
		WHERE license_id = ? AND created_at >= ?
		GROUP BY date(created_at, 'unixepoch')
		ORDER BY date(created_at, 'unixepoch') DESC
	`
	rows, err := r.db.Query(query, licenseID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectStats(rows)
}

// OverallStats is StatsByLicense across every license.
func (r *APILogRepository) OverallStats(days int) ([]*DailyStats, error) {
	since := time.Now().Unix() - int64(days)*86400
	query := `
		SELECT
			date(created_at, 'unixepoch'),
			COUNT(*),
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'blocked' THEN 1 ELSE 0 END)
		FROM api_logs
		WHERE created_at >= ?
		GROUP BY date(created_at, 'unixepoch')
		ORDER BY date(created_at, 'unixepoch') DESC
	`
	rows, err := r.db.Query(query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectStats(rows)
}

// PruneOlderThan deletes log entries older than the retention window.
// Returns the number of rows removed.
func (r *APILogRepository) PruneOlderThan(days int) (int64, error) {
	cutoff := time.Now().Unix() - int64(days)*86400
	res, err := r.db.Exec(`DELETE FROM api_logs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func collectLogs(rows *sql.Rows) ([]*models.APILogEntry, error) {
	var entries []*models.APILogEntry
	for rows.Next() {
		var e models.APILogEntry
		var licenseID sql.NullString

		if err := rows.Scan(&e.ID, &licenseID, &e.IPAddress, &e.RequestDomain, &e.Status, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		if licenseID.Valid {
			e.LicenseID = new(string)
			*e.LicenseID = licenseID.String
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func collectStats(rows *sql.Rows) ([]*DailyStats, error) {
	var stats []*DailyStats
	for rows.Next() {
		var s DailyStats
		if err := rows.Scan(&s.Date, &s.Total, &s.Success, &s.Failed, &s.Blocked); err != nil {
			return nil, err
		}
		stats = append(stats, &s)
	}
	return stats, rows.Err()
}
