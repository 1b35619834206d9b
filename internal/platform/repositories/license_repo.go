package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"licgate/internal/platform/models"
)

type LicenseRepository struct {
	db *sql.DB
}

func NewLicenseRepository(db *sql.DB) *LicenseRepository {
	return &LicenseRepository{db: db}
}

const licenseColumns = `id, api_key, domain, status, request_limit, request_count, expires_at, created_by, created_at, updated_at`

func (r *LicenseRepository) Create(license *models.License) error {
	if license.ID == "" {
		license.ID = "lic_" + uuid.New().String()
	}
	now := time.Now().Unix()
	license.CreatedAt = now
	license.UpdatedAt = now

	query := `
		INSERT INTO licenses (id, api_key, domain, status, request_limit, request_count, expires_at, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		license.ID,
		license.APIKey,
		license.Domain,
		license.Status,
		license.RequestLimit,
		license.RequestCount,
		license.ExpiresAt,
		license.CreatedBy,
		license.CreatedAt,
		license.UpdatedAt,
	)
	return err
}

func (r *LicenseRepository) GetByID(id string) (*models.License, error) {
	row := r.db.QueryRow(`SELECT `+licenseColumns+` FROM licenses WHERE id = ?`, id)
	return scanLicense(row)
}

// FindByAPIKey resolves a license by exact api_key match. Returns
// (nil, nil) when no license holds the key.
func (r *LicenseRepository) FindByAPIKey(apiKey string) (*models.License, error) {
	row := r.db.QueryRow(`SELECT `+licenseColumns+` FROM licenses WHERE api_key = ?`, apiKey)
	return scanLicense(row)
}

func (r *LicenseRepository) List(limit, offset int, search string) ([]*models.License, error) {
	var rows *sql.Rows
	var err error

	if search != "" {
		query := `SELECT ` + licenseColumns + ` FROM licenses
			WHERE domain LIKE ? OR api_key LIKE ?
			ORDER BY created_at DESC LIMIT ? OFFSET ?`
		term := "%" + search + "%"
		rows, err = r.db.Query(query, term, term, limit, offset)
	} else {
		query := `SELECT ` + licenseColumns + ` FROM licenses
			ORDER BY created_at DESC LIMIT ? OFFSET ?`
		rows, err = r.db.Query(query, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLicenses(rows)
}

func (r *LicenseRepository) Count(search string) (int64, error) {
	var total int64
	var err error
	if search != "" {
		term := "%" + search + "%"
		err = r.db.QueryRow(`SELECT COUNT(*) FROM licenses WHERE domain LIKE ? OR api_key LIKE ?`, term, term).Scan(&total)
	} else {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM licenses`).Scan(&total)
	}
	return total, err
}

// Update persists the mutable admin-editable fields. request_count is
// deliberately excluded: it only changes through IncrementRequestCount
// and ResetRequestCount.
func (r *LicenseRepository) Update(license *models.License) error {
	license.UpdatedAt = time.Now().Unix()
	query := `
		UPDATE licenses SET domain = ?, status = ?, request_limit = ?, expires_at = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		license.Domain,
		license.Status,
		license.RequestLimit,
		license.ExpiresAt,
		license.UpdatedAt,
		license.ID,
	)
	return err
}

// Delete removes the license and, through the foreign key cascade, all of
// its api_logs entries.
func (r *LicenseRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM licenses WHERE id = ?`, id)
	return err
}

// IncrementRequestCount bumps request_count by one as a single SQL UPDATE.
// The increment is pushed into the database so concurrent validations
// against the same license cannot lose updates. Returns the post-increment
// row.
func (r *LicenseRepository) IncrementRequestCount(id string) (*models.License, error) {
	query := `
		UPDATE licenses SET request_count = request_count + 1, updated_at = ?
		WHERE id = ?
		RETURNING ` + licenseColumns
	row := r.db.QueryRow(query, time.Now().Unix(), id)
	return scanLicense(row)
}

func (r *LicenseRepository) ResetRequestCount(id string) error {
	_, err := r.db.Exec(`UPDATE licenses SET request_count = 0, updated_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}

func (r *LicenseRepository) SetStatus(id, status string) error {
	_, err := r.db.Exec(`UPDATE licenses SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now().Unix(), id)
	return err
}

// RegenerateAPIKey swaps the license key in one statement: the old key
// stops resolving in the same update that makes the new key resolvable.
func (r *LicenseRepository) RegenerateAPIKey(id, newKey string) error {
	res, err := r.db.Exec(`UPDATE licenses SET api_key = ?, updated_at = ? WHERE id = ?`, newKey, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkExpired flips every active license whose expiry has passed to
// expired in one idempotent UPDATE. Safe to run concurrently with
// request-path validation. Returns the number of rows flipped.
func (r *LicenseRepository) MarkExpired(now int64) (int64, error) {
	res, err := r.db.Exec(`
		UPDATE licenses SET status = ?, updated_at = ?
		WHERE status = ? AND expires_at IS NOT NULL AND expires_at < ?`,
		models.StatusExpired, now, models.StatusActive, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type LicenseStats struct {
	Total        int64 `json:"total"`
	Active       int64 `json:"active"`
	Suspended    int64 `json:"suspended"`
	Expired      int64 `json:"expired"`
	ExpiringSoon int64 `json:"expiring_soon"`
}

// Statistics returns per-status license counts plus the number of active
// licenses expiring within the next seven days.
func (r *LicenseRepository) Statistics(now int64) (*LicenseStats, error) {
	stats := &LicenseStats{}
	weekAhead := now + 7*86400

	query := `
		SELECT
			COUNT(*),
			SUM(CASE WHEN status = 'active' AND (expires_at IS NULL OR expires_at > ?) THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'suspended' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'expired' OR (expires_at IS NOT NULL AND expires_at <= ?) THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'active' AND expires_at BETWEEN ? AND ? THEN 1 ELSE 0 END)
		FROM licenses
	`
	var active, suspended, expired, expiring sql.NullInt64
	err := r.db.QueryRow(query, now, now, now, weekAhead).
		Scan(&stats.Total, &active, &suspended, &expired, &expiring)
	if err != nil {
		return nil, err
	}
	stats.Active = active.Int64
	stats.Suspended = suspended.Int64
	stats.Expired = expired.Int64
	stats.ExpiringSoon = expiring.Int64
	return stats, nil
}

// ExpiringSoon lists active licenses whose expiry falls within the next
// `days` days, soonest first.
func (r *LicenseRepository) ExpiringSoon(now int64, days int) ([]*models.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses
		WHERE status = ? AND expires_at BETWEEN ? AND ?
		ORDER BY expires_at ASC`
	rows, err := r.db.Query(query, models.StatusActive, now, now+int64(days)*86400)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLicenses(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLicense(row rowScanner) (*models.License, error) {
	var l models.License
	var expiresAt sql.NullInt64

	err := row.Scan(&l.ID, &l.APIKey, &l.Domain, &l.Status, &l.RequestLimit,
		&l.RequestCount, &expiresAt, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		l.ExpiresAt = new(int64)
		*l.ExpiresAt = expiresAt.Int64
	}
	return &l, nil
}

func collectLicenses(rows *sql.Rows) ([]*models.License, error) {
	var licenses []*models.License
	for rows.Next() {
		l, err := scanLicense(rows)
		if err != nil {
			return nil, err
		}
		licenses = append(licenses, l)
	}
	return licenses, rows.Err()
}
