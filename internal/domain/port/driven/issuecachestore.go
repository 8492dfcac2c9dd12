package driven

import (
	"context"

	"github.com/akulikov/jirawatch/internal/domain/model"
)

// IssueCacheStore keeps the last-seen snapshot of each issue for display
// and debugging. Never used for dedup decisions.
type IssueCacheStore interface {
	Upsert(ctx context.Context, issue model.CachedIssue) error
	Get(ctx context.Context, issueKey string) (*model.CachedIssue, error)
	ListByProject(ctx context.Context, projectKey string) ([]model.CachedIssue, error)
}
