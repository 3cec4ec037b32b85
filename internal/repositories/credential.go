package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/filmx/internal/credential"
	"github.com/desertthunder/filmx/internal/shared"
)

// CredentialRepository stores the session credential in the credentials table.
type CredentialRepository struct {
	db  *sql.DB
	key string
}

var _ credential.Store = (*CredentialRepository)(nil)

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db, key: credential.Key}
}

// Load returns the stored credential or [shared.ErrCredentialNotFound].
func (r *CredentialRepository) Load() (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM credentials WHERE key = ?`, r.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %q", shared.ErrCredentialNotFound, r.key)
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to query credential: %w", shared.ErrCredentialStore, err)
	}
	return value, nil
}

// Save upserts the credential.
func (r *CredentialRepository) Save(value string) error {
	query := `
		INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, r.key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: failed to save credential: %w", shared.ErrCredentialStore, err)
	}
	return nil
}

// Delete removes the credential. Deleting a missing credential is not an error.
func (r *CredentialRepository) Delete() error {
	if _, err := r.db.Exec(`DELETE FROM credentials WHERE key = ?`, r.key); err != nil {
		return fmt.Errorf("%w: failed to delete credential: %w", shared.ErrCredentialStore, err)
	}
	return nil
}

// UpdatedAt reports when the credential was last written.
func (r *CredentialRepository) UpdatedAt() (time.Time, error) {
	var at time.Time
	err := r.db.QueryRow(`SELECT updated_at FROM credentials WHERE key = ?`, r.key).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: %q", shared.ErrCredentialNotFound, r.key)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query credential: %w", err)
	}
	return at, nil
}
