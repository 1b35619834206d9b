package license

import (
	"crypto/rand"
	"encoding/hex"
)

// apiKeyBytes of entropy per key; hex-encoded the key is twice as long.
const apiKeyBytes = 32

// NewAPIKey generates an opaque 64-character hex license key.
func NewAPIKey() (string, error) {
	b := make([]byte, apiKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
