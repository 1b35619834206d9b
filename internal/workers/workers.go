package workers

import (
	"time"

	"github.com/rs/zerolog/log"

	"licgate/internal/platform/repositories"
)

// Maintenance runs the periodic jobs that keep license state and the
// audit log tidy: the bulk expiry sweep and retention pruning. Both are
// idempotent and safe to run concurrently with request-path validation;
// the engine's lazy expiry check covers licenses the sweep has not
// reached yet.
type Maintenance struct {
	licenses *repositories.LicenseRepository
	logs     *repositories.APILogRepository
}

func NewMaintenance(licenses *repositories.LicenseRepository, logs *repositories.APILogRepository) *Maintenance {
	return &Maintenance{licenses: licenses, logs: logs}
}

// SweepExpired flips active licenses with a past expiry to expired.
func (m *Maintenance) SweepExpired() {
	n, err := m.licenses.MarkExpired(time.Now().Unix())
	if err != nil {
		log.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	if n > 0 {
		log.Info().Int64("licenses", n).Msg("expiry sweep marked licenses expired")
	}
}

// PruneLogs drops audit entries older than the retention window.
func (m *Maintenance) PruneLogs(retentionDays int) {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	n, err := m.logs.PruneOlderThan(retentionDays)
	if err != nil {
		log.Error().Err(err).Msg("log pruning failed")
		return
	}
	if n > 0 {
		log.Info().Int64("entries", n).Int("retention_days", retentionDays).Msg("pruned old api log entries")
	}
}
