package events

import (
	"context"
	"errors"
)

type HandlerFunc func(ctx context.Context, ev ContentEvent) error

type localPublisher struct {
	handlers []HandlerFunc
}

// NewLocalPublisher delivers events synchronously to in-process handlers.
// Single-instance deployments without NATS use it so cache invalidation
// still follows publishes.
func NewLocalPublisher(handlers ...HandlerFunc) Publisher {
	return &localPublisher{handlers: handlers}
}

func (p *localPublisher) Publish(ctx context.Context, ev ContentEvent) error {
	var errs []error
	for _, h := range p.handlers {
		if h == nil {
			continue
		}
		if err := h(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *localPublisher) Close() error { return nil }
