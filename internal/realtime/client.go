package realtime

import (
	"github.com/google/uuid"

	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

type SSEClient struct {
	ID        uuid.UUID
	UID       string
	SessionID string
	Channels  map[string]bool
	Outbound  chan SSEMessage
	done      chan struct{}
	Logger    *logger.Logger
}

// Done is closed when the hub disconnects the client.
func (c *SSEClient) Done() <-chan struct{} { return c.done }
