package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akulikov/jirawatch/internal/domain/model"
	"github.com/akulikov/jirawatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port.
// It stores vault ciphertext and owns the failure-counter/lock columns; the
// increment-and-lock transition happens in a single UPDATE so two
// concurrent failures cannot race past the limit.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Get returns the credential for the identity, or (nil, nil) when none is stored.
func (r *CredentialRepo) Get(ctx context.Context, identity string) (*model.Credential, error) {
	const query = `
		SELECT identity, jira_username, ciphertext, failure_count, locked, locked_at, last_error, updated_at
		FROM credentials WHERE identity = ?`

	var (
		cred      model.Credential
		locked    int
		lockedAt  sql.NullString
		updatedAt string
	)
	err := r.db.Reader.QueryRowContext(ctx, query, identity).Scan(
		&cred.Identity, &cred.JiraUsername, &cred.Ciphertext,
		&cred.FailureCount, &locked, &lockedAt, &cred.LastError, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %q: %w", identity, err)
	}

	cred.Locked = locked != 0
	if lockedAt.Valid {
		t, err := parseTime(lockedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse locked_at for %q: %w", identity, err)
		}
		cred.LockedAt = &t
	}
	cred.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at for %q: %w", identity, err)
	}

	return &cred, nil
}

// Set stores or replaces the credential. Replacement resets the failure
// counter and clears the lock, which is the only way out of a lockout.
func (r *CredentialRepo) Set(ctx context.Context, identity, jiraUsername, ciphertext string) error {
	const query = `
		INSERT INTO credentials (identity, jira_username, ciphertext)
		VALUES (?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			jira_username = excluded.jira_username,
			ciphertext = excluded.ciphertext,
			failure_count = 0,
			locked = 0,
			locked_at = NULL,
			last_error = '',
			updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.Writer.ExecContext(ctx, query, identity, jiraUsername, ciphertext); err != nil {
		return fmt.Errorf("set credential %q: %w", identity, err)
	}
	return nil
}

// RecordAuthFailure increments the consecutive-failure counter and locks
// the identity in the same statement once the counter reaches limit.
func (r *CredentialRepo) RecordAuthFailure(ctx context.Context, identity, lastError string, limit int) (int, bool, error) {
	const query = `
		UPDATE credentials
		SET failure_count = failure_count + 1,
			locked = CASE WHEN failure_count + 1 >= ? THEN 1 ELSE locked END,
			locked_at = CASE WHEN failure_count + 1 >= ? AND locked = 0 THEN CURRENT_TIMESTAMP ELSE locked_at END,
			last_error = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE identity = ?
		RETURNING failure_count, locked`

	var (
		count  int
		locked int
	)
	err := r.db.Writer.QueryRowContext(ctx, query, limit, limit, lastError, identity).Scan(&count, &locked)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, driven.ErrNoCredentials
	}
	if err != nil {
		return 0, false, fmt.Errorf("record auth failure for %q: %w", identity, err)
	}

	return count, locked != 0, nil
}

// RecordAuthSuccess resets the failure counter and clears the lock state.
func (r *CredentialRepo) RecordAuthSuccess(ctx context.Context, identity string) error {
	const query = `
		UPDATE credentials
		SET failure_count = 0, locked = 0, locked_at = NULL, last_error = '', updated_at = CURRENT_TIMESTAMP
		WHERE identity = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, identity); err != nil {
		return fmt.Errorf("record auth success for %q: %w", identity, err)
	}
	return nil
}

// Delete removes the credential for the identity.
func (r *CredentialRepo) Delete(ctx context.Context, identity string) error {
	const query = `DELETE FROM credentials WHERE identity = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, identity); err != nil {
		return fmt.Errorf("delete credential %q: %w", identity, err)
	}
	return nil
}
