package services

import (
	"context"

	"github.com/ironpoint/steeltrack-backend/internal/realtime"
	"github.com/ironpoint/steeltrack-backend/internal/realtime/bus"
)

type SSEEmitter interface {
	Emit(ctx context.Context, msg realtime.SSEMessage)
}

var (
	_ SSEEmitter = (*HubEmitter)(nil)
	_ SSEEmitter = (*RedisEmitter)(nil)
)

// HubEmitter broadcasts into the local hub only. Used when no bus is
// configured (single replica).
type HubEmitter struct{ Hub *realtime.SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	e.Hub.Broadcast(msg)
}

// RedisEmitter publishes through the bus so every replica's hub sees the
// message, including this one via the forwarder.
type RedisEmitter struct{ Bus bus.Bus }

func (e *RedisEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	_ = e.Bus.Publish(ctx, msg)
}
