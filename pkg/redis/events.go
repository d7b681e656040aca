package redis

import (
	"context"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"go.uber.org/zap"
)

// Pub/Sub channels for validator events.
const (
	// ChannelSnapshotCommitted carries SnapshotCommittedEvent payloads, one
	// per emission cycle that reached the audit log.
	ChannelSnapshotCommitted = "casinotao:snapshot.committed"
)

// SnapshotCommittedEvent is published after a snapshot is appended and the
// weight vector has been handed to the consensus layer.
type SnapshotCommittedEvent struct {
	SnapshotID  uint64    `json:"snapshot_id"`
	Timestamp   time.Time `json:"timestamp"`
	TotalMiners uint16    `json:"total_miners"`
	TotalVolume float64   `json:"total_volume"`
}

// PublishSnapshotCommitted marshals and publishes a snapshot event.
// Best-effort, like Publish.
func (c *Client) PublishSnapshotCommitted(ctx context.Context, event SnapshotCommittedEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		c.logger.Warn("Failed to marshal snapshot event", zap.Error(err))
		return
	}
	c.Publish(ctx, ChannelSnapshotCommitted, payload)
}
