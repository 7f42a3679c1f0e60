package identity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-console/internal/domain"
)

// State is the published view of one principal's session.
type State struct {
	// Identity is nil when nobody is signed in.
	Identity *domain.ResolvedIdentity
	// Loading is true between an auth change and the end of both lookups.
	Loading bool
	// Err is set when the lookups failed; Identity then carries no role.
	Err error
	// Generation increases with every auth change on the session.
	Generation uint64
}

// Authenticated reports whether a principal is present.
func (s State) Authenticated() bool {
	return s.Identity != nil
}

// Role is the resolved role, or RoleUnprovisioned when there is none.
func (s State) Role() domain.Role {
	if s.Identity == nil {
		return domain.RoleUnprovisioned
	}
	return s.Identity.Role
}

// SessionOption tunes sessions built by NewSession or a Registry.
type SessionOption func(*Session)

// WithMaxAge makes Ensure re-resolve a published identity once it has been
// settled for at least d. Zero re-resolves on every Ensure. A negative d, or
// no option at all, keeps a published identity until the next auth change.
func WithMaxAge(d time.Duration) SessionOption {
	return func(s *Session) {
		s.maxAge = d
	}
}

// transitionFunc is told about every settled transition, outside the lock.
type transitionFunc func(ctx context.Context, uid string, st State, signedOut bool)

// Session is an observable holder of one principal's State. Each auth change
// starts a new generation; a resolution that finishes after a newer change
// has started is discarded, so only the latest event's result is published.
type Session struct {
	uid      string
	resolver IdentityResolver
	notify   transitionFunc
	logger   *zap.Logger
	maxAge   time.Duration

	mu        sync.Mutex
	gen       uint64
	state     State
	settledAt time.Time
	subs    map[uint64]chan State
	nextSub uint64
}

// NewSession builds a standalone session. Most callers get sessions from a Registry.
func NewSession(uid string, resolver IdentityResolver, logger *zap.Logger, opts ...SessionOption) *Session {
	return newSession(uid, resolver, nil, logger, opts...)
}

func newSession(uid string, resolver IdentityResolver, notify transitionFunc, logger *zap.Logger, opts ...SessionOption) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		uid:      uid,
		resolver: resolver,
		notify:   notify,
		logger:   logger,
		maxAge:   -1,
		subs:     make(map[uint64]chan State),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UID returns the principal this session belongs to.
func (s *Session) UID() string {
	return s.uid
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel that always holds the latest state, starting
// with the current one. Slow readers skip intermediate states. The returned
// func unsubscribes and closes the channel.
func (s *Session) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan State, 1)
	ch <- s.state
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

// OnAuthChange handles an auth state event. A nil principal signs the
// session out; otherwise the principal is resolved and the result published.
func (s *Session) OnAuthChange(ctx context.Context, principal *domain.Principal) State {
	return s.transition(ctx, principal, false)
}

// Ensure resolves principal only when nothing usable has been published:
// the session is new, signed out, its last lookup failed, or the published
// identity is older than the max age. An in-flight resolution is left alone
// and its loading state returned.
//
// Re-resolving an aged identity of the same principal keeps it published
// until the new result lands, and only a changed outcome is reported to the
// registry.
func (s *Session) Ensure(ctx context.Context, principal *domain.Principal) State {
	return s.transition(ctx, principal, true)
}

func (s *Session) transition(ctx context.Context, principal *domain.Principal, onlyIfStale bool) State {
	s.mu.Lock()
	if onlyIfStale && !s.staleLocked() {
		st := s.state
		s.mu.Unlock()
		return st
	}
	s.gen++
	gen := s.gen
	prev := s.state
	refresh := onlyIfStale && principal != nil && prev.Identity != nil &&
		prev.Err == nil && prev.Identity.UID == principal.UID

	if principal == nil {
		s.setLocked(State{Generation: gen})
		st := s.state
		s.mu.Unlock()
		s.settled(ctx, st, true)
		return st
	}

	if !refresh {
		s.setLocked(State{Loading: true, Generation: gen})
	}
	s.mu.Unlock()

	started := time.Now()
	identity, err := s.resolver.Resolve(ctx, *principal)
	if identity == nil {
		identity = domain.NewResolvedIdentity(*principal, time.Now().UTC())
	}

	s.mu.Lock()
	if gen != s.gen {
		st := s.state
		s.mu.Unlock()
		s.logger.Debug("dropping superseded resolution",
			zap.String("uid", s.uid),
			zap.Uint64("generation", gen),
			zap.Uint64("current", st.Generation))
		return st
	}
	s.setLocked(State{Identity: identity, Err: err, Generation: gen})
	s.settledAt = time.Now()
	st := s.state
	s.mu.Unlock()

	s.logger.Debug("identity resolved",
		zap.String("uid", s.uid),
		zap.String("role", identity.Role.String()),
		zap.Bool("refresh", refresh),
		zap.Duration("took", time.Since(started)),
		zap.Error(err))
	if refresh && err == nil && st.Role() == prev.Role() {
		return st
	}
	s.settled(ctx, st, false)
	return st
}

func (s *Session) staleLocked() bool {
	if s.state.Loading {
		return false
	}
	if s.gen == 0 || s.state.Identity == nil || s.state.Err != nil {
		return true
	}
	return s.maxAge >= 0 && time.Since(s.settledAt) >= s.maxAge
}

func (s *Session) setLocked(st State) {
	s.state = st
	for _, ch := range s.subs {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- st
		}
	}
}

func (s *Session) settled(ctx context.Context, st State, signedOut bool) {
	if s.notify != nil {
		s.notify(ctx, s.uid, st, signedOut)
	}
}
