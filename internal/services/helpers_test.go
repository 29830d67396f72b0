package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/examprep-backend/internal/events"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/realtime"
)

type fakeVerifier struct {
	tokens map[string]*VerifiedIdentity
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (*VerifiedIdentity, error) {
	if id, ok := f.tokens[token]; ok {
		return id, nil
	}
	return nil, apierr.Authentication(apierr.CodeInvalidToken, "fake.Verify", "unknown token")
}

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (e *recordingEmitter) Emit(_ context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, msg)
}

func (e *recordingEmitter) on(channel string, event realtime.SSEEvent) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, m := range e.msgs {
		if m.Channel == channel && m.Event == event {
			n++
		}
	}
	return n
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(start time.Time) *testClock { return &testClock{now: start.UTC()} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Tick advances the clock by d and returns the new time.
func (c *testClock) Tick(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	if !apierr.IsCode(err, code) {
		t.Fatalf("want code=%s got=%s (%v)", code, apierr.CodeOf(err), err)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ContentEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.ContentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Kind, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}
