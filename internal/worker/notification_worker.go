package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/civicdesk/helpdesk/internal/events"
	"github.com/civicdesk/helpdesk/internal/service"
)

// NotificationWorker owns the notification subscribers for the lifetime of
// the process.
type NotificationWorker struct {
	notifications *service.NotificationService
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notifications *service.NotificationService, dispatcher events.Dispatcher, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	return &NotificationWorker{notifications: notifications, dispatcher: dispatcher, logger: logger}
}

// Stop waits up to timeout for in-flight notifications.
func (w *NotificationWorker) Stop(timeout time.Duration) {
	if w == nil || w.dispatcher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := w.dispatcher.Drain(ctx); err != nil {
		w.logger.Warn("notifications still in flight at shutdown", zap.Error(err))
	}
}
