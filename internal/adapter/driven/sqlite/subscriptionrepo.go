package sqlite

import (
	"context"
	"fmt"

	"github.com/akulikov/jirawatch/internal/domain/model"
	"github.com/akulikov/jirawatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SubscriptionStore = (*SubscriptionRepo)(nil)

// SubscriptionRepo is the SQLite implementation of the SubscriptionStore port.
type SubscriptionRepo struct {
	db *DB
}

// NewSubscriptionRepo creates a new SubscriptionRepo.
func NewSubscriptionRepo(db *DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// ListActive returns all active subscriptions ordered by project key.
func (r *SubscriptionRepo) ListActive(ctx context.Context) ([]model.Subscription, error) {
	const query = `
		SELECT id, project_key, project_name, channel_id, owner_identity, active, created_at
		FROM subscriptions
		WHERE active = 1
		ORDER BY project_key, channel_id`

	return r.query(ctx, query)
}

// GetByChannel returns all subscriptions for a channel, active or not.
func (r *SubscriptionRepo) GetByChannel(ctx context.Context, channelID string) ([]model.Subscription, error) {
	const query = `
		SELECT id, project_key, project_name, channel_id, owner_identity, active, created_at
		FROM subscriptions
		WHERE channel_id = ?
		ORDER BY project_key`

	return r.query(ctx, query, channelID)
}

// Add inserts or reactivates a subscription for (project, channel).
func (r *SubscriptionRepo) Add(ctx context.Context, sub model.Subscription) error {
	const query = `
		INSERT INTO subscriptions (project_key, project_name, channel_id, owner_identity, active)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(project_key, channel_id) DO UPDATE SET
			project_name = excluded.project_name,
			owner_identity = excluded.owner_identity,
			active = 1`

	if _, err := r.db.Writer.ExecContext(ctx, query, sub.ProjectKey, sub.ProjectName, sub.ChannelID, sub.OwnerIdentity); err != nil {
		return fmt.Errorf("add subscription %s/%s: %w", sub.ProjectKey, sub.ChannelID, err)
	}
	return nil
}

// Deactivate marks a subscription inactive, keeping its history.
func (r *SubscriptionRepo) Deactivate(ctx context.Context, projectKey, channelID string) error {
	const query = `UPDATE subscriptions SET active = 0 WHERE project_key = ? AND channel_id = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, projectKey, channelID); err != nil {
		return fmt.Errorf("deactivate subscription %s/%s: %w", projectKey, channelID, err)
	}
	return nil
}

func (r *SubscriptionRepo) query(ctx context.Context, query string, args ...any) ([]model.Subscription, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		var (
			sub       model.Subscription
			active    int
			createdAt string
		)
		if err := rows.Scan(&sub.ID, &sub.ProjectKey, &sub.ProjectName, &sub.ChannelID, &sub.OwnerIdentity, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}

		sub.Active = active != 0
		sub.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for subscription %d: %w", sub.ID, err)
		}

		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}

	return subs, nil
}
