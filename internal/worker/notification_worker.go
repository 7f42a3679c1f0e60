package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-console/internal/events"
	"github.com/spec-kit/restaurant-console/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartSignOutBridge runs the Redis bridge until ctx is cancelled. It returns
// once the subscription is confirmed (or has failed), so sign-outs published
// after startup are not missed. The returned channel yields the exit error.
func StartSignOutBridge(ctx context.Context, bridge *events.RedisBridge, dispatcher events.Dispatcher, logger *zap.Logger) <-chan error {
	done := make(chan error, 1)
	if bridge == nil {
		close(done)
		return done
	}
	bridge.Register(dispatcher)

	ready := make(chan struct{})
	go func() {
		err := bridge.Run(ctx, ready)
		if err != nil && ctx.Err() == nil {
			logger.Error("sign-out bridge stopped", zap.Error(err))
		}
		done <- err
		close(done)
	}()

	select {
	case <-ready:
	case <-ctx.Done():
	}
	return done
}
