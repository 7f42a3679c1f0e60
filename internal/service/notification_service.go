package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-console/internal/config"
	"github.com/spec-kit/restaurant-console/internal/domain"
	"github.com/spec-kit/restaurant-console/internal/events"
)

// PushSender delivers a push notification to a device token.
type PushSender interface {
	Send(ctx context.Context, token, title, body string) error
}

// NotificationService audits identity events and pushes a sign-in notice to
// staff devices.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	push       PushSender
}

// NewNotificationService creates the service. push may be nil, in which case
// pushes are only logged.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, push PushSender) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		push:       push,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventIdentityResolved, n.handleIdentityResolved)
	n.dispatcher.Subscribe(events.EventIdentityUnprovisioned, n.handleIdentityUnprovisioned)
	n.dispatcher.Subscribe(events.EventIdentityLookupFailed, n.handleLookupFailed)
	n.dispatcher.Subscribe(events.EventSignedOut, n.handleSignedOut)
}

func (n *NotificationService) handleIdentityResolved(ctx context.Context, event events.Event) error {
	n.logger.Info("IdentityResolved",
		zap.String("uid", event.UID),
		zap.String("role", event.Role.String()),
		zap.Uint64("generation", event.Generation))
	if event.Role == domain.RoleAdmin {
		n.sendPushNotificationStub(ctx, event)
	}
	return nil
}

func (n *NotificationService) handleIdentityUnprovisioned(_ context.Context, event events.Event) error {
	n.logger.Warn("IdentityUnprovisioned", zap.String("uid", event.UID))
	return nil
}

func (n *NotificationService) handleLookupFailed(_ context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("uid", event.UID), zap.Uint64("generation", event.Generation)}
	if payload, ok := event.Payload.(events.IdentityPayload); ok {
		fields = append(fields, zap.String("error", payload.Error))
	}
	n.logger.Error("IdentityLookupFailed", fields...)
	return nil
}

func (n *NotificationService) handleSignedOut(ctx context.Context, event events.Event) error {
	n.logger.Info("SignedOut",
		zap.String("uid", event.UID),
		zap.Bool("remote", events.IsRemote(ctx)))
	return nil
}

func (n *NotificationService) sendPushNotificationStub(ctx context.Context, event events.Event) {
	if !n.cfg.PushEnabled {
		return
	}
	payload, ok := event.Payload.(events.IdentityPayload)
	if !ok || payload.Identity == nil || payload.Identity.FCMToken == nil || *payload.Identity.FCMToken == "" {
		return
	}

	token := *payload.Identity.FCMToken
	if n.push == nil {
		n.logger.Debug("sendPushNotificationStub",
			zap.String("uid", event.UID),
			zap.String("event_type", string(event.Type)))
		return
	}
	if err := n.push.Send(ctx, token, "New sign-in", "Your console account was just signed in."); err != nil {
		n.logger.Warn("push notification failed", zap.String("uid", event.UID), zap.Error(err))
	}
}
