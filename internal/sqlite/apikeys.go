package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidToken is returned when a bearer token does not match any API key.
var ErrInvalidToken = errors.New("invalid api key")

// APIKeyStore maps hashed bearer tokens to user ids.
type APIKeyStore struct {
	db *DB
}

// NewAPIKeyStore creates a new APIKeyStore
func NewAPIKeyStore(db *DB) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// Add stores token for userID. Only the hash is persisted.
func (s *APIKeyStore) Add(ctx context.Context, token, userID, description string) error {
	if token == "" || userID == "" {
		return fmt.Errorf("add api key: token and user are required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, user_id, created_at, description) VALUES (?, ?, ?, ?)`,
		HashToken(token), userID, time.Now().UTC().Format(TimeLayout), description,
	)
	if err != nil {
		return mapError("insert", "api_keys", err)
	}
	return nil
}

// ResolveSession returns the user id behind token and records the use.
func (s *APIKeyStore) ResolveSession(ctx context.Context, token string) (string, error) {
	hash := HashToken(token)
	var userID string
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && userID == "") {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("resolve api key: %w", err)
	}

	_, _ = s.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`,
		time.Now().UTC().Format(TimeLayout), hash)

	return userID, nil
}

// HashToken returns the hex sha256 of token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
