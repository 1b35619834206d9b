package repositories

import (
	"testing"
	"time"

	"licgate/internal/platform/models"
)

func TestAPILogRepository_CreateAndList(t *testing.T) {
	db := setupTestDB(t)
	licenses := NewLicenseRepository(db)
	logs := NewAPILogRepository(db)

	lic := seedLicense(t, licenses, "key1", "example.com")

	entry := &models.APILogEntry{
		LicenseID:     &lic.ID,
		IPAddress:     "10.0.0.1",
		RequestDomain: "example.com",
		Status:        models.LogSuccess,
		Message:       "validation successful",
	}
	if err := logs.Create(entry); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if entry.ID == "" || entry.CreatedAt == 0 {
		t.Error("Create should assign id and timestamp")
	}

	// Entries with no resolved license carry a null reference.
	orphan := &models.APILogEntry{
		IPAddress:     "10.0.0.2",
		RequestDomain: "other.com",
		Status:        models.LogFailed,
		Message:       "API key not found",
	}
	if err := logs.Create(orphan); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	entries, err := logs.ListByLicense(lic.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListByLicense failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry for license, got %d", len(entries))
	}
	if entries[0].LicenseID == nil || *entries[0].LicenseID != lic.ID {
		t.Errorf("license reference lost on round trip: %+v", entries[0])
	}

	total, err := logs.CountByLicense(lic.ID)
	if err != nil {
		t.Fatalf("CountByLicense failed: %v", err)
	}
	if total != 1 {
		t.Errorf("expected count 1, got %d", total)
	}

	recent, err := logs.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("expected 2 recent entries, got %d", len(recent))
	}
	for _, e := range recent {
		if e.RequestDomain == "other.com" && e.LicenseID != nil {
			t.Error("orphan entry should have nil license reference")
		}
	}
}

func TestAPILogRepository_StatsByLicense(t *testing.T) {
	db := setupTestDB(t)
	licenses := NewLicenseRepository(db)
	logs := NewAPILogRepository(db)

	lic := seedLicense(t, licenses, "key1", "example.com")

	for _, status := range []string{models.LogSuccess, models.LogSuccess, models.LogFailed, models.LogBlocked} {
		err := logs.Create(&models.APILogEntry{
			LicenseID:     &lic.ID,
			IPAddress:     "10.0.0.1",
			RequestDomain: "example.com",
			Status:        status,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	stats, err := logs.StatsByLicense(lic.ID, 30)
	if err != nil {
		t.Fatalf("StatsByLicense failed: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected 1 day of stats, got %d", len(stats))
	}
	day := stats[0]
	if day.Total != 4 || day.Success != 2 || day.Failed != 1 || day.Blocked != 1 {
		t.Errorf("unexpected rollup: %+v", day)
	}
}

func TestAPILogRepository_PruneOlderThan(t *testing.T) {
	db := setupTestDB(t)
	licenses := NewLicenseRepository(db)
	logs := NewAPILogRepository(db)

	lic := seedLicense(t, licenses, "key1", "example.com")

	old := &models.APILogEntry{
		LicenseID:     &lic.ID,
		IPAddress:     "10.0.0.1",
		RequestDomain: "example.com",
		Status:        models.LogSuccess,
		CreatedAt:     time.Now().Unix() - 100*86400,
	}
	if err := logs.Create(old); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	current := &models.APILogEntry{
		LicenseID:     &lic.ID,
		IPAddress:     "10.0.0.1",
		RequestDomain: "example.com",
		Status:        models.LogSuccess,
	}
	if err := logs.Create(current); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pruned, err := logs.PruneOlderThan(90)
	if err != nil {
		t.Fatalf("PruneOlderThan failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("expected 1 entry pruned, got %d", pruned)
	}

	remaining, err := logs.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != current.ID {
		t.Errorf("wrong entry survived pruning: %+v", remaining)
	}
}
