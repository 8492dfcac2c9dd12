package driven

import (
	"context"

	"github.com/akulikov/jirawatch/internal/domain/model"
)

// ProjectInfo is the minimal project identification the core needs.
type ProjectInfo struct {
	Key  string
	Name string
}

// TrackerSession is an authenticated handle to the issue tracker, scoped to
// one identity. Implementations must be safe for use from multiple
// goroutines; the underlying HTTP calls are serialized per session.
type TrackerSession interface {
	// WhoAmI probes the session and returns the authenticated account name.
	// Used by the connection pool to confirm a credential still works.
	WhoAmI(ctx context.Context) (string, error)

	// Project resolves a project key. Returns ErrProjectNotFound or
	// ErrAccessDenied when the key does not resolve for this identity.
	Project(ctx context.Context, projectKey string) (ProjectInfo, error)

	// Projects lists the projects visible to this identity.
	Projects(ctx context.Context) ([]ProjectInfo, error)

	// Issues fetches a bounded, most-recently-updated-first snapshot of the
	// project's issues including status-change history.
	Issues(ctx context.Context, projectKey string, maxResults int) ([]model.IssueSnapshot, error)
}

// TrackerSessionFactory opens tracker sessions for arbitrary credentials.
// Open itself is cheap; authentication is verified by the first WhoAmI probe.
type TrackerSessionFactory interface {
	Open(ctx context.Context, username, secret string) (TrackerSession, error)
}
