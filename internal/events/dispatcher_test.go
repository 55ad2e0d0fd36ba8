package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_PublishRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls atomic.Int32

	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls.Add(1)
		return errors.New("smtp down")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls.Add(1)
		return nil
	})
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		calls.Add(100)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
	require.NoError(t, d.Drain(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestDispatcher_HandlerOutlivesCancelledRequest(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var sawCancel atomic.Bool

	d.Subscribe(EventTicketStatusChanged, func(ctx context.Context, _ Event) error {
		time.Sleep(10 * time.Millisecond)
		sawCancel.Store(ctx.Err() != nil)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Publish(ctx, Event{Type: EventTicketStatusChanged}))
	cancel()

	require.NoError(t, d.Drain(context.Background()))
	assert.False(t, sawCancel.Load())
}

func TestDispatcher_PanickingHandlerIsContained(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	d.Subscribe(EventTicketCommentAdded, func(context.Context, Event) error {
		panic("boom")
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCommentAdded}))
	require.NoError(t, d.Drain(context.Background()))
}

func TestDispatcher_DrainHonoursDeadline(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	release := make(chan struct{})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		<-release
		return nil
	})
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Drain(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, d.Drain(context.Background()))
}
