package bus

import (
	"context"

	"github.com/ironpoint/steeltrack-backend/internal/realtime"
)

// Bus bridges SSE fan-out across API replicas. A mutation committed on one
// replica is published here and forwarded into every replica's local hub.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
