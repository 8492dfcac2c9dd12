package driven

import (
	"context"

	"github.com/akulikov/jirawatch/internal/domain/model"
)

// SubscriptionStore resolves which projects are monitored and whose
// credentials authorize the fetch. The core reads subscriptions; Add and
// Deactivate exist for provisioning and the external command layer.
type SubscriptionStore interface {
	ListActive(ctx context.Context) ([]model.Subscription, error)

	// GetByChannel returns all subscriptions (active or not) for a channel.
	GetByChannel(ctx context.Context, channelID string) ([]model.Subscription, error)

	// Add inserts or reactivates a subscription for (project, channel).
	Add(ctx context.Context, sub model.Subscription) error

	// Deactivate marks a subscription inactive without deleting history.
	Deactivate(ctx context.Context, projectKey, channelID string) error
}
