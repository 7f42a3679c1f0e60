package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RemoteSignOutFunc applies a sign-out that happened on another instance.
type RemoteSignOutFunc func(ctx context.Context, uid string)

// RedisBridge fans sign-out events out to every instance over Redis pub/sub.
type RedisBridge struct {
	client   *redis.Client
	channel  string
	origin   string
	logger   *zap.Logger
	onRemote RemoteSignOutFunc
}

// NewRedisBridge builds a bridge. origin must be unique per process.
func NewRedisBridge(client *redis.Client, channel, origin string, logger *zap.Logger, onRemote RemoteSignOutFunc) *RedisBridge {
	return &RedisBridge{
		client:   client,
		channel:  channel,
		origin:   origin,
		logger:   logger,
		onRemote: onRemote,
	}
}

// Register forwards local sign-out events to Redis.
func (b *RedisBridge) Register(dispatcher Dispatcher) {
	dispatcher.Subscribe(EventSignedOut, b.forward)
}

func (b *RedisBridge) forward(ctx context.Context, event Event) error {
	if IsRemote(ctx) {
		return nil
	}
	event.Origin = b.origin
	event.Payload = nil
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, body).Err(); err != nil {
		b.logger.Warn("publish sign-out failed", zap.String("uid", event.UID), zap.Error(err))
		return err
	}
	return nil
}

// Run consumes the channel until ctx is cancelled. ready, if non-nil, is
// closed once the subscription is confirmed.
func (b *RedisBridge) Run(ctx context.Context, ready chan<- struct{}) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ready != nil {
			close(ready)
		}
		return err
	}
	if ready != nil {
		close(ready)
	}

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("redis subscription closed")
			}
			b.handle(ctx, msg.Payload)
		}
	}
}

func (b *RedisBridge) handle(ctx context.Context, payload string) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		b.logger.Warn("discarding malformed identity event", zap.Error(err))
		return
	}
	if event.Origin == b.origin || event.Type != EventSignedOut || event.UID == "" {
		return
	}
	b.logger.Debug("applying remote sign-out", zap.String("uid", event.UID), zap.String("origin", event.Origin))
	b.onRemote(WithRemote(ctx), event.UID)
}
