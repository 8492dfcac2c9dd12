package model

import "time"

// ViolationKind enumerates the alert types raised by the detector.
type ViolationKind string

const (
	ViolationTimeExceeded    ViolationKind = "time_exceeded"
	ViolationDeadlineOverdue ViolationKind = "deadline_overdue"
)

// ViolationEvent is a detected anomaly on one issue. Day is the discovery
// day truncated to midnight; together with IssueKey and Kind it forms the
// dedup key for the notification ledger.
type ViolationEvent struct {
	IssueKey      string
	ProjectKey    string
	Kind          ViolationKind
	Summary       string
	Assignee      string // empty when unassigned
	AssigneeName  string
	EstimateHours float64
	SpentHours    float64
	ExcessHours   float64    // time_exceeded only
	DueDate       *time.Time // deadline_overdue only
	Day           time.Time
}
