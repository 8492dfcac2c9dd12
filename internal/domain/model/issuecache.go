package model

import "time"

// CachedIssue is the last-seen snapshot of an issue kept for display and
// debugging. The cache is refreshed on every sweep and is never consulted
// for dedup decisions; the notification ledger is the sole dedup truth.
type CachedIssue struct {
	IssueKey       string
	ProjectKey     string
	Summary        string
	Assignee       string
	AssigneeName   string
	Status         string
	DueDate        *time.Time
	EstimateHours  float64
	SpentHours     float64
	RemainingHours float64
	UpdatedAt      time.Time
}
