package model

import "time"

// Credential holds one identity's Jira credential state. Identity is the
// security principal (an email address in practice), JiraUsername is the
// login sent to the tracker, and Ciphertext is the vault-encrypted secret.
// FailureCount and Locked track consecutive authentication failures; Locked
// is cleared only by replacing the credential.
type Credential struct {
	Identity     string
	JiraUsername string
	Ciphertext   string
	FailureCount int
	Locked       bool
	LockedAt     *time.Time
	LastError    string
	UpdatedAt    time.Time
}
