package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akulikov/jirawatch/internal/domain/model"
	"github.com/akulikov/jirawatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IssueCacheStore = (*IssueCacheRepo)(nil)

// IssueCacheRepo is the SQLite implementation of the IssueCacheStore port.
type IssueCacheRepo struct {
	db *DB
}

// NewIssueCacheRepo creates a new IssueCacheRepo.
func NewIssueCacheRepo(db *DB) *IssueCacheRepo {
	return &IssueCacheRepo{db: db}
}

// Upsert stores or replaces the last-seen snapshot for an issue.
func (r *IssueCacheRepo) Upsert(ctx context.Context, issue model.CachedIssue) error {
	const query = `
		INSERT INTO issue_cache (issue_key, project_key, summary, assignee, assignee_name, status, due_date, estimate_hours, spent_hours, remaining_hours, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(issue_key) DO UPDATE SET
			project_key = excluded.project_key,
			summary = excluded.summary,
			assignee = excluded.assignee,
			assignee_name = excluded.assignee_name,
			status = excluded.status,
			due_date = excluded.due_date,
			estimate_hours = excluded.estimate_hours,
			spent_hours = excluded.spent_hours,
			remaining_hours = excluded.remaining_hours,
			updated_at = CURRENT_TIMESTAMP`

	var dueDate any
	if issue.DueDate != nil {
		dueDate = issue.DueDate.Format(dayFormat)
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		issue.IssueKey, issue.ProjectKey, issue.Summary, issue.Assignee, issue.AssigneeName,
		issue.Status, dueDate, issue.EstimateHours, issue.SpentHours, issue.RemainingHours,
	)
	if err != nil {
		return fmt.Errorf("upsert issue cache %q: %w", issue.IssueKey, err)
	}
	return nil
}

// Get returns the cached snapshot for an issue, or (nil, nil) when absent.
func (r *IssueCacheRepo) Get(ctx context.Context, issueKey string) (*model.CachedIssue, error) {
	const query = `
		SELECT issue_key, project_key, summary, assignee, assignee_name, status, due_date, estimate_hours, spent_hours, remaining_hours, updated_at
		FROM issue_cache WHERE issue_key = ?`

	row := r.db.Reader.QueryRowContext(ctx, query, issueKey)
	issue, err := scanCachedIssue(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get issue cache %q: %w", issueKey, err)
	}
	return issue, nil
}

// ListByProject returns all cached issues for a project.
func (r *IssueCacheRepo) ListByProject(ctx context.Context, projectKey string) ([]model.CachedIssue, error) {
	const query = `
		SELECT issue_key, project_key, summary, assignee, assignee_name, status, due_date, estimate_hours, spent_hours, remaining_hours, updated_at
		FROM issue_cache
		WHERE project_key = ?
		ORDER BY issue_key`

	rows, err := r.db.Reader.QueryContext(ctx, query, projectKey)
	if err != nil {
		return nil, fmt.Errorf("list issue cache for %q: %w", projectKey, err)
	}
	defer rows.Close()

	var issues []model.CachedIssue
	for rows.Next() {
		issue, err := scanCachedIssue(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan cached issue: %w", err)
		}
		issues = append(issues, *issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached issues: %w", err)
	}

	return issues, nil
}

func scanCachedIssue(scan func(...any) error) (*model.CachedIssue, error) {
	var (
		issue     model.CachedIssue
		dueDate   sql.NullString
		updatedAt string
	)
	err := scan(
		&issue.IssueKey, &issue.ProjectKey, &issue.Summary, &issue.Assignee, &issue.AssigneeName,
		&issue.Status, &dueDate, &issue.EstimateHours, &issue.SpentHours, &issue.RemainingHours, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		d, err := parseDay(dueDate.String)
		if err != nil {
			return nil, fmt.Errorf("parse due_date for %q: %w", issue.IssueKey, err)
		}
		issue.DueDate = &d
	}
	issue.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at for %q: %w", issue.IssueKey, err)
	}

	return &issue, nil
}
