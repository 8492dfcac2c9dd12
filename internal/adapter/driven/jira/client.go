// Package jira implements the tracker ports using the go-jira library.
package jira

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	gojira "github.com/andygrunwald/go-jira"

	"github.com/akulikov/jirawatch/internal/domain/model"
	"github.com/akulikov/jirawatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.TrackerSessionFactory = (*Factory)(nil)
	_ driven.TrackerSession        = (*Session)(nil)
)

// Factory opens authenticated sessions against a single Jira server.
type Factory struct {
	baseURL string
	timeout time.Duration
}

// NewFactory creates a session factory for the given Jira base URL. Every
// network call made through a session is bounded by timeout.
func NewFactory(baseURL string, timeout time.Duration) *Factory {
	return &Factory{baseURL: baseURL, timeout: timeout}
}

// Open builds a session with basic-auth credentials. Opening is cheap and
// does not hit the network; the first WhoAmI probe verifies authentication.
func (f *Factory) Open(_ context.Context, username, secret string) (driven.TrackerSession, error) {
	tp := gojira.BasicAuthTransport{Username: username, Password: secret}
	httpClient := tp.Client()
	httpClient.Timeout = f.timeout

	client, err := gojira.NewClient(httpClient, f.baseURL)
	if err != nil {
		return nil, fmt.Errorf("create jira client for %q: %w", f.baseURL, err)
	}

	return &Session{client: client}, nil
}

// Session is an authenticated Jira handle for one identity. The underlying
// client is not safe for concurrent calls, so every request holds mu.
type Session struct {
	mu     sync.Mutex
	client *gojira.Client
}

// WhoAmI returns the authenticated account's login, probing that the
// credential actually works.
func (s *Session) WhoAmI(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, resp, err := s.client.User.GetSelfWithContext(ctx)
	if err != nil {
		return "", classifyProbe(resp, err)
	}

	if user.EmailAddress != "" {
		return user.EmailAddress, nil
	}
	return user.Name, nil
}

// Project resolves a project key to its identification.
func (s *Session) Project(ctx context.Context, projectKey string) (driven.ProjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, resp, err := s.client.Project.GetWithContext(ctx, projectKey)
	if err != nil {
		return driven.ProjectInfo{}, classifyFetch(resp, err, projectKey)
	}

	return driven.ProjectInfo{Key: project.Key, Name: project.Name}, nil
}

// Projects lists the projects visible to this identity.
func (s *Session) Projects(ctx context.Context) ([]driven.ProjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, resp, err := s.client.Project.GetListWithContext(ctx)
	if err != nil {
		return nil, classifyFetch(resp, err, "")
	}

	infos := make([]driven.ProjectInfo, 0, len(*list))
	for _, p := range *list {
		infos = append(infos, driven.ProjectInfo{Key: p.Key, Name: p.Name})
	}
	return infos, nil
}

// Issues fetches up to maxResults issues for the project, most recently
// updated first, with the changelog expanded so status transitions can be
// dated.
func (s *Session) Issues(ctx context.Context, projectKey string, maxResults int) ([]model.IssueSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jql := fmt.Sprintf("project = %q ORDER BY updated DESC", projectKey)
	opts := &gojira.SearchOptions{
		MaxResults: maxResults,
		Expand:     "changelog",
	}

	issues, resp, err := s.client.Issue.SearchWithContext(ctx, jql, opts)
	if err != nil {
		return nil, classifyFetch(resp, err, projectKey)
	}

	snapshots := make([]model.IssueSnapshot, 0, len(issues))
	for _, issue := range issues {
		snapshots = append(snapshots, mapIssue(issue))
	}
	return snapshots, nil
}

// mapIssue converts a go-jira issue into the domain snapshot.
func mapIssue(in gojira.Issue) model.IssueSnapshot {
	snap := model.IssueSnapshot{Key: in.Key}

	if in.Fields != nil {
		snap.Summary = in.Fields.Summary
		snap.ProjectKey = in.Fields.Project.Key
		snap.EstimateSeconds = in.Fields.TimeOriginalEstimate
		snap.SpentSeconds = in.Fields.TimeSpent
		snap.RemainingSeconds = in.Fields.TimeEstimate

		if in.Fields.Status != nil {
			snap.Status = in.Fields.Status.Name
		}
		if in.Fields.Assignee != nil {
			snap.Assignee = in.Fields.Assignee.EmailAddress
			snap.AssigneeName = in.Fields.Assignee.DisplayName
		}
		if due := time.Time(in.Fields.Duedate); !due.IsZero() {
			d := due
			snap.DueDate = &d
		}
	}

	if in.Changelog != nil {
		for _, history := range in.Changelog.Histories {
			at, err := history.CreatedTime()
			if err != nil {
				continue // Unparseable history timestamps are dropped, not fatal.
			}
			for _, item := range history.Items {
				if item.Field == "status" {
					snap.StatusHistory = append(snap.StatusHistory, model.StatusChange{
						ToStatus: item.ToString,
						At:       at,
					})
				}
			}
		}
	}

	return snap
}

// classifyProbe maps an authentication-probe failure onto the error
// taxonomy. 401 and 403 both mean the credential was rejected; timeouts and
// network errors are transient and never count toward lockout.
func classifyProbe(resp *gojira.Response, err error) error {
	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			return &driven.AuthError{Err: err}
		case resp.StatusCode >= 500:
			return &driven.TransientError{Err: err}
		}
	}
	return &driven.TransientError{Err: err}
}

// classifyFetch maps a data-fetch failure onto the error taxonomy. Here a
// 403 means the identity lacks project permission rather than a bad
// credential.
func classifyFetch(resp *gojira.Response, err error, projectKey string) error {
	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return &driven.AuthError{Err: err}
		case resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: project %q", driven.ErrAccessDenied, projectKey)
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: project %q", driven.ErrProjectNotFound, projectKey)
		case resp.StatusCode >= 500:
			return &driven.TransientError{Err: err}
		case resp.StatusCode >= 400:
			return fmt.Errorf("jira request failed: %w", err)
		}
	}
	return &driven.TransientError{Err: err}
}
