package driven

import "context"

// NotificationSink delivers alert texts to the chat platform. The transport
// (framing, reconnects, mention handling) lives entirely behind this port.
type NotificationSink interface {
	SendToChannel(ctx context.Context, channelID, text string) error

	// SendToIdentity delivers a direct message to the person behind the
	// identity (email address on the chat platform).
	SendToIdentity(ctx context.Context, identity, text string) error
}
