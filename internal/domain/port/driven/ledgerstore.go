package driven

import (
	"context"
	"time"

	"github.com/akulikov/jirawatch/internal/domain/model"
)

// LedgerStore is the durable log of sent notifications and the sole source
// of dedup truth.
type LedgerStore interface {
	// TryRecord inserts the record against the (issue, kind, day)
	// uniqueness constraint. It returns true when the record was written
	// and false when a record for the same key already exists; the
	// conflict is an expected outcome, not an error.
	TryRecord(ctx context.Context, rec model.NotificationRecord) (bool, error)

	// ListByDay returns all records written for the given calendar day.
	ListByDay(ctx context.Context, day time.Time) ([]model.NotificationRecord, error)
}
