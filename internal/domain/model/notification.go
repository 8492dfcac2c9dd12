package model

import "time"

// NotificationRecord is one row of the durable notification ledger. The
// (IssueKey, Kind, Day) triple is unique; a record is written at most once
// per day per issue and alert type, and never updated once written.
type NotificationRecord struct {
	ID             int64
	IssueKey       string
	Kind           ViolationKind
	Day            time.Time // calendar day granularity
	ProjectKey     string
	ChannelID      string
	PayloadSummary string
	CreatedAt      time.Time
}
