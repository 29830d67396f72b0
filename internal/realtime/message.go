package realtime

import "strings"

type SSEEvent string

const (
	SSEEventSessionRevoked SSEEvent = "session_revoked"
	SSEEventProfileChanged SSEEvent = "profile_changed"
	SSEEventContentChanged SSEEvent = "content_changed"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// Channel names.

func SessionChannel(sessionID string) string { return "session:" + strings.TrimSpace(sessionID) }
func UserChannel(uid string) string          { return "user:" + strings.TrimSpace(uid) }
func DocChannel(ref string) string           { return "doc:" + strings.TrimSpace(ref) }
