package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/examprep-backend/internal/platform/logger"
	"github.com/yungbote/examprep-backend/internal/realtime"
)

const defaultChannel = "examprep:realtime"

// envelope is the wire format; Origin identifies the publishing instance.
type envelope struct {
	Origin string              `json:"origin"`
	Msg    realtime.SSEMessage `json:"msg"`
}

type redisBus struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
	origin  string

	mu    sync.RWMutex
	local func(realtime.SSEMessage)
}

// NewRedisBus shares rdb; Close leaves the client open for its owner.
func NewRedisBus(log *logger.Logger, rdb goredis.UniversalClient, channel string) Bus {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = defaultChannel
	}
	return &redisBus{
		log:     log.With("service", "RedisRealtimeBus"),
		rdb:     rdb,
		channel: channel,
		origin:  uuid.NewString(),
	}
}

func (b *redisBus) deliverLocal() func(realtime.SSEMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.local
}

// Publish delivers locally first so this instance's clients are served even
// when the broker is unreachable.
func (b *redisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if b == nil || b.rdb == nil {
		return errors.New("redis realtime bus not initialized")
	}
	if local := b.deliverLocal(); local != nil {
		local(msg)
	}
	raw, err := json.Marshal(envelope{Origin: b.origin, Msg: msg})
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		b.log.Warn("realtime publish failed", "channel", msg.Channel, "event", msg.Event, "error", err)
		return err
	}
	return nil
}

// decode returns the message carried by payload and whether it should be
// delivered here.
func (b *redisBus) decode(payload string) (realtime.SSEMessage, bool) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.log.Warn("bad realtime payload", "error", err)
		return realtime.SSEMessage{}, false
	}
	if env.Origin == b.origin || env.Msg.Channel == "" {
		return realtime.SSEMessage{}, false
	}
	return env.Msg, true
}

func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if b == nil || b.rdb == nil {
		return errors.New("redis realtime bus not initialized")
	}
	if onMsg == nil {
		return errors.New("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}

	b.mu.Lock()
	b.local = onMsg
	b.mu.Unlock()

	go func() {
		defer func() {
			_ = sub.Close()
			b.mu.Lock()
			b.local = nil
			b.mu.Unlock()
		}()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					b.log.Warn("realtime subscription closed", "channel", b.channel)
					return
				}
				if msg, ok := b.decode(m.Payload); ok {
					onMsg(msg)
				}
			}
		}
	}()
	return nil
}

func (b *redisBus) Close() error { return nil }
