package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

// StreamName is the JetStream stream holding content events.
const StreamName = "EXAMPREP_CONTENT"

// NATSBus wraps a NATS JetStream connection for publishing and consuming
// content events.
type NATSBus struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	log  *logger.Logger
}

// NewNATSBus connects to url and makes sure the content stream exists.
func NewNATSBus(log *logger.Logger, url string, opts ...nats.Option) (*NATSBus, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("missing NATS_URL")
	}
	opts = append([]nats.Option{
		nats.Name("examprep-backend"),
		nats.Timeout(5 * time.Second),
		nats.MaxReconnects(-1),
	}, opts...)
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	b := &NATSBus{conn: nc, js: js, log: log.With("service", "NATSBus")}
	if err := b.ensureStream(); err != nil {
		nc.Close()
		return nil, err
	}
	return b, nil
}

func (b *NATSBus) ensureStream() error {
	if _, err := b.js.StreamInfo(StreamName); err == nil {
		return nil
	} else if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info: %w", err)
	}
	_, err := b.js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectPrefix + ".>"},
		MaxAge:   7 * 24 * time.Hour,
		Storage:  nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("add stream: %w", err)
	}
	return nil
}

// Close drains the underlying NATS connection.
func (b *NATSBus) Close() error {
	if b == nil || b.conn == nil {
		return nil
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
	return nil
}

// Publish encodes ev as JSON and publishes it to its subject.
func (b *NATSBus) Publish(ctx context.Context, ev ContentEvent) error {
	if b == nil {
		return errors.New("nil bus")
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = b.js.Publish(ev.Subject(), data, nats.Context(ctx), nats.MsgId(ev.ID))
	return err
}

type subscription struct {
	sub    *nats.Subscription
	mu     sync.Mutex
	closed bool
}

func (s *subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.sub.Drain()
}

// Subscribe creates a durable consumer over all content events and invokes fn
// for each one. A handler error naks the message for redelivery; undecodable
// payloads are acked and dropped.
func (b *NATSBus) Subscribe(ctx context.Context, durable string, fn func(ctx context.Context, ev ContentEvent) error) (io.Closer, error) {
	if b == nil {
		return nil, errors.New("nil bus")
	}
	if fn == nil {
		return nil, errors.New("nil handler")
	}

	handler := func(msg *nats.Msg) {
		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		var ev ContentEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.log.Warn("bad content event payload", "subject", msg.Subject, "error", err)
			_ = msg.Ack()
			return
		}
		if err := fn(handlerCtx, ev); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}

	sub, err := b.js.Subscribe(SubjectPrefix+".>", handler, nats.Durable(durable), nats.ManualAck(), nats.AckExplicit())
	if err != nil {
		return nil, err
	}

	s := &subscription{sub: sub}

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	return s, nil
}
