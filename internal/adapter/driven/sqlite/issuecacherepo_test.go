package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akulikov/jirawatch/internal/domain/model"
)

func TestIssueCacheRepo_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIssueCacheRepo(db)
	ctx := context.Background()
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	err := repo.Upsert(ctx, model.CachedIssue{
		IssueKey:       "PROJ-1",
		ProjectKey:     "PROJ",
		Summary:        "Implement the widget",
		Assignee:       "alice@example.com",
		AssigneeName:   "Alice",
		Status:         "In Progress",
		DueDate:        &due,
		EstimateHours:  8,
		SpentHours:     10,
		RemainingHours: 1,
	})
	require.NoError(t, err)

	issue, err := repo.Get(ctx, "PROJ-1")
	require.NoError(t, err)
	require.NotNil(t, issue)
	assert.Equal(t, "Implement the widget", issue.Summary)
	assert.Equal(t, "In Progress", issue.Status)
	require.NotNil(t, issue.DueDate)
	assert.Equal(t, due, *issue.DueDate)
	assert.Equal(t, 10.0, issue.SpentHours)
}

func TestIssueCacheRepo_UpsertReplacesSnapshot(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIssueCacheRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.CachedIssue{IssueKey: "PROJ-1", ProjectKey: "PROJ", Status: "Open", SpentHours: 2}))
	require.NoError(t, repo.Upsert(ctx, model.CachedIssue{IssueKey: "PROJ-1", ProjectKey: "PROJ", Status: "Done", SpentHours: 5}))

	issue, err := repo.Get(ctx, "PROJ-1")
	require.NoError(t, err)
	require.NotNil(t, issue)
	assert.Equal(t, "Done", issue.Status)
	assert.Equal(t, 5.0, issue.SpentHours)
	assert.Nil(t, issue.DueDate)
}

func TestIssueCacheRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIssueCacheRepo(db)

	issue, err := repo.Get(context.Background(), "PROJ-404")
	require.NoError(t, err)
	assert.Nil(t, issue)
}

func TestIssueCacheRepo_ListByProject(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIssueCacheRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.CachedIssue{IssueKey: "PROJ-1", ProjectKey: "PROJ"}))
	require.NoError(t, repo.Upsert(ctx, model.CachedIssue{IssueKey: "PROJ-2", ProjectKey: "PROJ"}))
	require.NoError(t, repo.Upsert(ctx, model.CachedIssue{IssueKey: "OTHER-1", ProjectKey: "OTHER"}))

	issues, err := repo.ListByProject(ctx, "PROJ")
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "PROJ-1", issues[0].IssueKey)
	assert.Equal(t, "PROJ-2", issues[1].IssueKey)
}
