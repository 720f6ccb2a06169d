// Package event is an in-process publish/subscribe bus for domain events
// such as "inquiry.created".
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/decorhub/decorhub/pkg/logger"
)

// Handler receives an event payload. Handlers run synchronously on the
// dispatching goroutine and must hand slow work to a worker pool.
type Handler func(ctx context.Context, payload interface{})

// Bus holds listeners by event name.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func New() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Listen registers h for name.
func (b *Bus) Listen(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Dispatch calls every listener of name in registration order. A panicking
// listener is logged and does not stop the others.
func (b *Bus) Dispatch(ctx context.Context, name string, payload interface{}) {
	b.mu.RLock()
	hs := make([]Handler, len(b.handlers[name]))
	copy(hs, b.handlers[name])
	b.mu.RUnlock()

	for _, h := range hs {
		b.call(ctx, name, h, payload)
	}
}

func (b *Bus) call(ctx context.Context, name string, h Handler, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event: listener panicked", "event", name, "panic", fmt.Sprint(r))
		}
	}()
	h(ctx, payload)
}

// Listeners reports how many handlers are registered for name.
func (b *Bus) Listeners(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}
