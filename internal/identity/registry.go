package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-console/internal/events"
)

// Registry owns one Session per principal UID for the life of the process.
// Sessions are never evicted, so a subscriber on an old page keeps seeing
// later sign-ins and sign-outs of the same principal.
type Registry struct {
	resolver   IdentityResolver
	dispatcher events.Dispatcher
	logger     *zap.Logger
	opts       []SessionOption

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry builds a registry. dispatcher may be nil. opts apply to every
// session the registry creates.
func NewRegistry(resolver IdentityResolver, dispatcher events.Dispatcher, logger *zap.Logger, opts ...SessionOption) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		resolver:   resolver,
		dispatcher: dispatcher,
		logger:     logger,
		opts:       opts,
		sessions:   make(map[string]*Session),
	}
}

// Session returns the session for uid, creating it on first use.
func (r *Registry) Session(uid string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[uid]
	if !ok {
		sess = newSession(uid, r.resolver, r.publish, r.logger, r.opts...)
		r.sessions[uid] = sess
	}
	return sess
}

// Lookup returns an existing session without creating one.
func (r *Registry) Lookup(uid string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[uid]
	return sess, ok
}

// SignOutRemote applies a sign-out reported by another instance. Principals
// this instance has never seen are ignored.
func (r *Registry) SignOutRemote(ctx context.Context, uid string) {
	sess, ok := r.Lookup(uid)
	if !ok {
		return
	}
	sess.OnAuthChange(ctx, nil)
}

func (r *Registry) publish(ctx context.Context, uid string, st State, signedOut bool) {
	if r.dispatcher == nil {
		return
	}

	event := events.Event{
		ID:         uuid.NewString(),
		UID:        uid,
		Role:       st.Role(),
		Generation: st.Generation,
		Timestamp:  time.Now().UTC(),
	}
	switch {
	case signedOut:
		event.Type = events.EventSignedOut
	case st.Err != nil:
		event.Type = events.EventIdentityLookupFailed
		event.Payload = events.IdentityPayload{Identity: st.Identity, Error: st.Err.Error()}
	case !st.Role().Provisioned():
		event.Type = events.EventIdentityUnprovisioned
		event.Payload = events.IdentityPayload{Identity: st.Identity}
	default:
		event.Type = events.EventIdentityResolved
		event.Payload = events.IdentityPayload{Identity: st.Identity}
	}

	if err := r.dispatcher.Publish(ctx, event); err != nil {
		r.logger.Warn("identity event handler failed",
			zap.String("uid", uid),
			zap.String("event", string(event.Type)),
			zap.Error(err))
	}
}
