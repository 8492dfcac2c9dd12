package model

import "time"

// Subscription ties a tracked project to the channel that receives its
// alerts. OwnerIdentity names whose credentials authorize fetches for this
// project. The core consumes subscriptions read-only; lifecycle belongs to
// the command layer.
type Subscription struct {
	ID            int64
	ProjectKey    string
	ProjectName   string
	ChannelID     string
	OwnerIdentity string
	Active        bool
	CreatedAt     time.Time
}
