package license

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licgate/internal/platform/models"
)

func TestService_Create(t *testing.T) {
	env := newTestEnv(t)
	svc := NewService(env.licenses)

	lic, err := svc.Create("Example.COM", "", 0, nil, "usr_admin")
	require.NoError(t, err)

	assert.Equal(t, "example.com", lic.Domain, "domain is normalized to lowercase")
	assert.Equal(t, models.StatusActive, lic.Status)
	assert.Equal(t, int64(1000), lic.RequestLimit)
	assert.Len(t, lic.APIKey, 64)
	assert.Equal(t, "usr_admin", lic.CreatedBy)

	stored, err := env.licenses.FindByAPIKey(lic.APIKey)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, lic.ID, stored.ID)
}

func TestService_CreateRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	svc := NewService(env.licenses)

	_, err := svc.Create("not a domain", "", 0, nil, "usr_admin")
	assert.ErrorIs(t, err, ErrInvalidDomain)

	_, err = svc.Create("example.com", "frozen", 0, nil, "usr_admin")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Create("example.com", "", -5, nil, "usr_admin")
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestService_UpdateResurrectsExpiredLicense(t *testing.T) {
	env := newTestEnv(t)
	svc := NewService(env.licenses)

	past := time.Now().Add(-time.Hour).Unix()
	lic := env.seedLicense(t, &models.License{
		Domain:    "example.com",
		Status:    models.StatusExpired,
		ExpiresAt: &past,
	})

	future := time.Now().Add(30 * 24 * time.Hour).Unix()
	updated, err := svc.Update(lic.ID, UpdateParams{ExpiresAt: &future})
	require.NoError(t, err)

	assert.Equal(t, models.StatusActive, updated.Status,
		"setting a future expiry on an expired license flips it back to active")

	// The flip is an admin-edit policy only: the validation path must
	// afterwards accept the resurrected license but never perform the
	// reverse transition itself.
	decision, err := env.engine.Validate(lic.APIKey, "example.com", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeValid, decision.Outcome)
}

func TestService_UpdateKeepsPastExpiryExpired(t *testing.T) {
	env := newTestEnv(t)
	svc := NewService(env.licenses)

	lic := env.seedLicense(t, &models.License{Domain: "example.com", Status: models.StatusExpired})

	past := time.Now().Add(-time.Hour).Unix()
	updated, err := svc.Update(lic.ID, UpdateParams{ExpiresAt: &past})
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, updated.Status)
}

func TestService_UpdateUnknownLicense(t *testing.T) {
	env := newTestEnv(t)
	svc := NewService(env.licenses)

	_, err := svc.Update("lic_missing", UpdateParams{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_RegenerateRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	svc := NewService(env.licenses)

	lic := env.seedLicense(t, &models.License{Domain: "example.com"})
	oldKey := lic.APIKey

	newKey, err := svc.Regenerate(lic.ID)
	require.NoError(t, err)
	require.Len(t, newKey, 64)
	require.NotEqual(t, oldKey, newKey)

	decision, err := env.engine.Validate(oldKey, "example.com", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, decision.Outcome)
	assert.Equal(t, http.StatusUnauthorized, decision.HTTPStatus, "old key must fail lookup")

	decision, err = env.engine.Validate(newKey, "example.com", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeValid, decision.Outcome, "new key must resolve to the same license")
	assert.Equal(t, "example.com", decision.Data.Domain)
}

func TestService_ResetCount(t *testing.T) {
	env := newTestEnv(t)
	svc := NewService(env.licenses)

	lic := env.seedLicense(t, &models.License{Domain: "example.com", RequestCount: 42})

	require.NoError(t, svc.ResetCount(lic.ID))

	stored, err := env.licenses.GetByID(lic.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.RequestCount)
}
