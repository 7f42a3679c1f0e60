package guard

import (
	"context"

	"github.com/spec-kit/restaurant-console/internal/identity"
)

// Watch re-evaluates the guard on every state sess publishes and sends a
// decision only when it differs from the previous one, so a redirect is
// signalled once per transition. The channel closes when ctx is done.
func Watch(ctx context.Context, sess *identity.Session, allowed RoleSet) <-chan Decision {
	out := make(chan Decision)
	states, cancel := sess.Subscribe()

	go func() {
		defer close(out)
		defer cancel()

		last := Decision(-1)
		for {
			select {
			case <-ctx.Done():
				return
			case st, ok := <-states:
				if !ok {
					return
				}
				d := Decide(st, allowed)
				if d == last {
					continue
				}
				last = d
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
