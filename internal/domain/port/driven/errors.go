package driven

import "errors"

// Sentinel errors shared across the driven ports. Callers branch with
// errors.Is / errors.As instead of matching message strings.
var (
	// ErrNoCredentials is returned by ConnectionPool.Acquire when no
	// credential is stored for the identity.
	ErrNoCredentials = errors.New("no credentials stored for identity")

	// ErrLocked is returned when an identity has been locked after repeated
	// authentication failures. The lock is cleared only by replacing the
	// credential.
	ErrLocked = errors.New("identity locked after repeated authentication failures")

	// ErrProjectNotFound means the project key does not resolve for this
	// identity. Non-fatal: the caller skips the project and continues.
	ErrProjectNotFound = errors.New("project not found")

	// ErrAccessDenied means the identity lacks permission for the project.
	// Non-fatal in the same way as ErrProjectNotFound.
	ErrAccessDenied = errors.New("access denied")
)

// AuthError marks a credential rejection by the tracker. Each occurrence
// counts toward the identity's lockout.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransientError marks a network, timeout, or 5xx failure. Transient
// failures never count toward lockout and are retried on the next sweep.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient tracker failure: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsTransient reports whether err is a transient failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
