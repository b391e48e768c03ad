// Package auth guards the buildflow HTTP surface with API keys. Keys are
// stored bcrypt-hashed; the plaintext is shown once at creation and never
// persisted. This is service-surface authentication only — user accounts,
// sessions, and plans are out of scope.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/buildflow/buildflow/idgen"
)

// ErrInvalidKey is returned when a presented key matches no stored key.
var ErrInvalidKey = errors.New("auth: invalid API key")

// Schema is the DDL for the API key table, applied via dbopen.WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS api_keys (
	key_id     TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	key_hash   TEXT NOT NULL,
	lookup     TEXT NOT NULL UNIQUE,
	created_at INTEGER NOT NULL,
	last_used  INTEGER
);
`

// Keys manages API keys in the service database.
type Keys struct {
	db    *sql.DB
	newID idgen.Generator
}

// NewKeys creates a key manager over db. The api_keys table must exist.
func NewKeys(db *sql.DB) *Keys {
	return &Keys{db: db, newID: idgen.Prefixed("key_", idgen.Default)}
}

// Create mints a new API key under the given display name and returns the
// plaintext key. The plaintext is not recoverable afterwards.
func (k *Keys) Create(ctx context.Context, name string) (string, error) {
	plain := "bfk_" + idgen.NanoID(32)()

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash key: %w", err)
	}

	_, err = k.db.ExecContext(ctx, `
		INSERT INTO api_keys (key_id, name, key_hash, lookup, created_at)
		VALUES (?,?,?,?,?)`,
		k.newID(), name, string(hash), lookupDigest(plain), time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("auth: store key: %w", err)
	}
	return plain, nil
}

// Verify checks a presented plaintext key against the stored hashes and
// stamps last_used on success. Returns ErrInvalidKey on any mismatch.
func (k *Keys) Verify(ctx context.Context, plain string) error {
	if !strings.HasPrefix(plain, "bfk_") {
		return ErrInvalidKey
	}

	// The lookup column is a SHA-256 digest of the plaintext, so the bcrypt
	// comparison runs against exactly one row instead of the whole table.
	var keyID, hash string
	err := k.db.QueryRowContext(ctx,
		`SELECT key_id, key_hash FROM api_keys WHERE lookup = ?`,
		lookupDigest(plain)).Scan(&keyID, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInvalidKey
	}
	if err != nil {
		return fmt.Errorf("auth: lookup key: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) != nil {
		return ErrInvalidKey
	}

	_, _ = k.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used = ? WHERE key_id = ?`,
		time.Now().Unix(), keyID)
	return nil
}

// Revoke deletes a key by its display name. Revoking an unknown name is not
// an error.
func (k *Keys) Revoke(ctx context.Context, name string) error {
	_, err := k.db.ExecContext(ctx, `DELETE FROM api_keys WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("auth: revoke key: %w", err)
	}
	return nil
}

func lookupDigest(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// ConstantTimeEqual compares two strings without leaking length-prefix
// timing. Used for the single-key deployment mode where the key comes from
// the environment instead of the database.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
