package driven

import (
	"context"

	"github.com/akulikov/jirawatch/internal/domain/model"
)

// CredentialStore persists per-identity tracker credentials and their
// lockout state. Values are stored as vault ciphertext; encryption happens
// above this port.
type CredentialStore interface {
	// Get returns the credential for the identity, or (nil, nil) when none
	// is stored.
	Get(ctx context.Context, identity string) (*model.Credential, error)

	// Set stores or replaces the credential. Replacing a credential resets
	// the failure counter, clears the lock, and clears the last error.
	Set(ctx context.Context, identity, jiraUsername, ciphertext string) error

	// RecordAuthFailure increments the identity's consecutive-failure
	// counter and, in the same statement, locks the identity once the
	// counter reaches limit. It returns the new counter value and lock
	// state. Returns ErrNoCredentials if the identity is unknown.
	RecordAuthFailure(ctx context.Context, identity, lastError string, limit int) (count int, locked bool, err error)

	// RecordAuthSuccess resets the failure counter and clears the lock.
	RecordAuthSuccess(ctx context.Context, identity string) error

	// Delete removes the credential for the identity.
	Delete(ctx context.Context, identity string) error
}
