package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
	// Drain blocks until in-flight handlers finish or ctx is done.
	Drain(ctx context.Context) error
}

// inMemoryDispatcher runs each handler on its own goroutine. Publish never
// waits for handlers and never reports their failures to the caller.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	inflight  sync.WaitGroup
	logger    *zap.Logger
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher(logger *zap.Logger) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
		logger:    logger,
	}
}

// Publish schedules handlers for the given event. Handlers get a context that
// survives the end of the originating request.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	detached := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		d.inflight.Add(1)
		go func(h EventHandler) {
			defer d.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("event handler panic", zap.String("event_type", string(event.Type)), zap.Any("panic", r))
				}
			}()
			if err := h(detached, event); err != nil {
				d.logger.Warn("event handler failed",
					zap.String("event_type", string(event.Type)),
					zap.String("ticket_id", event.TicketID),
					zap.Error(err))
			}
		}(handler)
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

func (d *inMemoryDispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
