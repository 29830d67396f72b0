package services

import (
	"context"

	"github.com/yungbote/examprep-backend/internal/realtime"
	"github.com/yungbote/examprep-backend/internal/realtime/bus"
)

// SSEEmitter pushes realtime messages to connected clients.
type SSEEmitter interface {
	Emit(ctx context.Context, msg realtime.SSEMessage)
}

// HubEmitter delivers to clients connected to this process.
type HubEmitter struct{ Hub *realtime.SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	if e == nil || e.Hub == nil {
		return
	}
	e.Hub.Broadcast(msg)
}

// RedisEmitter publishes to the bus, which delivers to this instance and to
// every peer's hub.
type RedisEmitter struct{ Bus bus.Bus }

func (e *RedisEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	if e == nil || e.Bus == nil {
		return
	}
	_ = e.Bus.Publish(ctx, msg)
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, realtime.SSEMessage) {}

func emitterOrNop(e SSEEmitter) SSEEmitter {
	if e == nil {
		return nopEmitter{}
	}
	return e
}
