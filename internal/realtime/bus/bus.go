package bus

import (
	"context"

	"github.com/yungbote/examprep-backend/internal/realtime"
)

// Bus fans realtime messages out across API instances. Once a forwarder is
// running, Publish also delivers to this instance directly, and the
// instance's own messages coming back over the wire are dropped.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
