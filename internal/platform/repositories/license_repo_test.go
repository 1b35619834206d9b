package repositories

import (
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"licgate/internal/platform/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE licenses (
		id TEXT PRIMARY KEY,
		api_key TEXT UNIQUE NOT NULL,
		domain TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		request_limit INTEGER NOT NULL DEFAULT 1000,
		request_count INTEGER NOT NULL DEFAULT 0,
		expires_at INTEGER,
		created_by TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE api_logs (
		id TEXT PRIMARY KEY,
		license_id TEXT REFERENCES licenses(id) ON DELETE CASCADE,
		ip_address TEXT NOT NULL,
		request_domain TEXT NOT NULL,
		status TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

func seedLicense(t *testing.T, repo *LicenseRepository, apiKey, domain string) *models.License {
	t.Helper()
	lic := &models.License{
		APIKey:       apiKey,
		Domain:       domain,
		Status:       models.StatusActive,
		RequestLimit: 1000,
		CreatedBy:    "usr_test",
	}
	if err := repo.Create(lic); err != nil {
		t.Fatalf("failed to create license: %v", err)
	}
	return lic
}

func TestLicenseRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLicenseRepository(db)

	lic := seedLicense(t, repo, "key1", "example.com")

	found, err := repo.FindByAPIKey("key1")
	if err != nil {
		t.Fatalf("FindByAPIKey failed: %v", err)
	}
	if found == nil || found.ID != lic.ID {
		t.Fatalf("expected license %s, got %+v", lic.ID, found)
	}

	missing, err := repo.FindByAPIKey("nope")
	if err != nil {
		t.Fatalf("FindByAPIKey failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown key, got %+v", missing)
	}
}

func TestLicenseRepository_IncrementIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLicenseRepository(db)
	lic := seedLicense(t, repo, "key1", "example.com")

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.IncrementRequestCount(lic.ID); err != nil {
				t.Errorf("increment failed: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, err := repo.GetByID(lic.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.RequestCount != workers {
		t.Errorf("expected request_count %d, got %d", workers, stored.RequestCount)
	}
}

func TestLicenseRepository_IncrementReturnsUpdatedRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLicenseRepository(db)
	lic := seedLicense(t, repo, "key1", "example.com")

	updated, err := repo.IncrementRequestCount(lic.ID)
	if err != nil {
		t.Fatalf("IncrementRequestCount failed: %v", err)
	}
	if updated.RequestCount != 1 {
		t.Errorf("expected post-increment count 1, got %d", updated.RequestCount)
	}
}

func TestLicenseRepository_RegenerateAPIKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLicenseRepository(db)
	lic := seedLicense(t, repo, "oldkey", "example.com")

	if err := repo.RegenerateAPIKey(lic.ID, "newkey"); err != nil {
		t.Fatalf("RegenerateAPIKey failed: %v", err)
	}

	old, err := repo.FindByAPIKey("oldkey")
	if err != nil {
		t.Fatalf("FindByAPIKey failed: %v", err)
	}
	if old != nil {
		t.Error("old key still resolves after regeneration")
	}

	renewed, err := repo.FindByAPIKey("newkey")
	if err != nil {
		t.Fatalf("FindByAPIKey failed: %v", err)
	}
	if renewed == nil || renewed.ID != lic.ID {
		t.Errorf("new key does not resolve to the license, got %+v", renewed)
	}

	if err := repo.RegenerateAPIKey("lic_missing", "whatever"); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows for unknown license, got %v", err)
	}
}

func TestLicenseRepository_MarkExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLicenseRepository(db)

	now := time.Now().Unix()
	past := now - 3600
	future := now + 3600

	expired := seedLicense(t, repo, "key1", "a.com")
	expired.ExpiresAt = &past
	if err := repo.Update(expired); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fresh := seedLicense(t, repo, "key2", "b.com")
	fresh.ExpiresAt = &future
	if err := repo.Update(fresh); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	perpetual := seedLicense(t, repo, "key3", "c.com")

	n, err := repo.MarkExpired(now)
	if err != nil {
		t.Fatalf("MarkExpired failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 license flipped, got %d", n)
	}

	for _, tc := range []struct {
		id     string
		status string
	}{
		{expired.ID, models.StatusExpired},
		{fresh.ID, models.StatusActive},
		{perpetual.ID, models.StatusActive},
	} {
		stored, err := repo.GetByID(tc.id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if stored.Status != tc.status {
			t.Errorf("license %s: expected status %s, got %s", tc.id, tc.status, stored.Status)
		}
	}

	// Running the sweep again is a no-op.
	n, err = repo.MarkExpired(now)
	if err != nil {
		t.Fatalf("MarkExpired failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second sweep should flip nothing, flipped %d", n)
	}
}

func TestLicenseRepository_DeleteCascadesLogs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLicenseRepository(db)
	logs := NewAPILogRepository(db)

	lic := seedLicense(t, repo, "key1", "example.com")
	for i := 0; i < 3; i++ {
		err := logs.Create(&models.APILogEntry{
			LicenseID:     &lic.ID,
			IPAddress:     "10.0.0.1",
			RequestDomain: "example.com",
			Status:        models.LogSuccess,
		})
		if err != nil {
			t.Fatalf("log create failed: %v", err)
		}
	}

	if err := repo.Delete(lic.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var remaining int
	if err := db.QueryRow(`SELECT COUNT(*) FROM api_logs`).Scan(&remaining); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if remaining != 0 {
		t.Errorf("expected log entries to cascade, %d remain", remaining)
	}
}

func TestLicenseRepository_ListAndSearch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLicenseRepository(db)

	seedLicense(t, repo, "alpha-key", "alpha.com")
	seedLicense(t, repo, "beta-key", "beta.com")

	all, err := repo.List(10, 0, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 licenses, got %d", len(all))
	}

	matched, err := repo.List(10, 0, "alpha")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(matched) != 1 || matched[0].Domain != "alpha.com" {
		t.Errorf("search returned wrong rows: %+v", matched)
	}

	total, err := repo.Count("beta")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if total != 1 {
		t.Errorf("expected count 1, got %d", total)
	}
}

func TestLicenseRepository_StatisticsAndExpiringSoon(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLicenseRepository(db)

	now := time.Now().Unix()
	soon := now + 3*86400
	later := now + 30*86400

	active := seedLicense(t, repo, "key1", "a.com")
	active.ExpiresAt = &soon
	if err := repo.Update(active); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	longLived := seedLicense(t, repo, "key2", "b.com")
	longLived.ExpiresAt = &later
	if err := repo.Update(longLived); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	suspended := seedLicense(t, repo, "key3", "c.com")
	if err := repo.SetStatus(suspended.ID, models.StatusSuspended); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	stats, err := repo.Statistics(now)
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if stats.Total != 3 || stats.Active != 2 || stats.Suspended != 1 || stats.ExpiringSoon != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	expiring, err := repo.ExpiringSoon(now, 7)
	if err != nil {
		t.Fatalf("ExpiringSoon failed: %v", err)
	}
	if len(expiring) != 1 || expiring[0].ID != active.ID {
		t.Errorf("expected only the soon-expiring license, got %+v", expiring)
	}
}
