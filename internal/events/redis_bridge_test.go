package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

type signOutRecorder struct {
	mu   sync.Mutex
	uids []string
}

func (r *signOutRecorder) apply(ctx context.Context, uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if IsRemote(ctx) {
		r.uids = append(r.uids, uid)
	}
}

func (r *signOutRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.uids...)
}

func TestRedisBridgeFansOutSignOut(t *testing.T) {
	client := setupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local := &signOutRecorder{}
	remote := &signOutRecorder{}

	localDispatcher := NewInMemoryDispatcher()
	localBridge := NewRedisBridge(client, "identity", "instance-a", zap.NewNop(), local.apply)
	localBridge.Register(localDispatcher)

	remoteBridge := NewRedisBridge(client, "identity", "instance-b", zap.NewNop(), remote.apply)

	readyA := make(chan struct{})
	readyB := make(chan struct{})
	go func() { _ = localBridge.Run(ctx, readyA) }()
	go func() { _ = remoteBridge.Run(ctx, readyB) }()
	<-readyA
	<-readyB

	require.NoError(t, localDispatcher.Publish(ctx, Event{Type: EventSignedOut, UID: "owner-1"}))

	require.Eventually(t, func() bool {
		return len(remote.seen()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"owner-1"}, remote.seen())
	assert.Empty(t, local.seen(), "an instance ignores its own events")
}

func TestRedisBridgeSkipsRemoteEvents(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, "identity")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	bridge := NewRedisBridge(client, "identity", "instance-a", zap.NewNop(), func(context.Context, string) {})
	require.NoError(t, bridge.forward(WithRemote(ctx), Event{Type: EventSignedOut, UID: "u1"}))

	select {
	case msg := <-sub.Channel():
		t.Fatalf("unexpected re-publish: %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}
