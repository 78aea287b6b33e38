// ABOUTME: API key generation and verification for the bootstrap flow
// ABOUTME: Keys are random, shown once, and stored only as bcrypt hashes

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/offscreen/offscreen/internal/store"
)

// apiKeyBytes is the entropy of a generated key before encoding.
const apiKeyBytes = 32

// GenerateAPIKey creates a random API key and its bcrypt hash. The plaintext
// is returned once for display; only the hash is meant to be persisted.
func GenerateAPIKey() (plaintext string, hash []byte, err error) {
	raw := make([]byte, apiKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, fmt.Errorf("generating key material: %w", err)
	}
	plaintext = base64.RawURLEncoding.EncodeToString(raw)

	hash, err = bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hashing key: %w", err)
	}
	return plaintext, hash, nil
}

// VerifyAPIKey checks a presented key against the stored hash for the user.
func VerifyAPIKey(ctx context.Context, keys store.APIKeyStore, userID, presented string) error {
	hash, err := keys.GetAPIKeyHash(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetching key hash: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(presented)); err != nil {
		return ErrInvalidToken
	}
	return nil
}
