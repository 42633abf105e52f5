package session

import (
	"context"
	"sync"

	"github.com/portalgate/portal/pkg/identity"
)

// State is what observers see: the current user (nil when signed out) and
// whether the initial check is still in flight.
type State struct {
	User    *identity.User
	Loading bool
}

// Observer is an observable cell holding the current sign-in state.
// Loading starts true and flips to false exactly once, when Seed finishes
// its eager check; nothing re-enters loading afterwards, including
// sign-out.
type Observer struct {
	mu          sync.Mutex
	user        *identity.User
	loading     bool
	subscribers map[int]func(State)
	nextID      int
}

// NewObserver creates an observer in the loading state
func NewObserver() *Observer {
	return &Observer{
		loading:     true,
		subscribers: make(map[int]func(State)),
	}
}

// Subscribe registers a callback invoked on every state change. The
// callback immediately receives the current state. The returned function
// unsubscribes.
func (o *Observer) Subscribe(fn func(State)) func() {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subscribers[id] = fn
	state := State{User: o.user, Loading: o.loading}
	o.mu.Unlock()

	fn(state)

	return func() {
		o.mu.Lock()
		delete(o.subscribers, id)
		o.mu.Unlock()
	}
}

// Snapshot returns the current state
func (o *Observer) Snapshot() (*identity.User, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.user, o.loading
}

// Seed performs the one eager current-user check. Whatever the check
// returns, loading flips to false; a failed check means no user, not an
// error. On repeated calls only the first one takes effect.
func (o *Observer) Seed(ctx context.Context, check func(context.Context) (*identity.User, error)) {
	user, err := check(ctx)
	if err != nil {
		user = nil
	}

	o.mu.Lock()
	if !o.loading {
		o.mu.Unlock()
		return
	}
	o.loading = false
	o.user = user
	o.notifyLocked()
}

// SignedIn records a completed sign-in
func (o *Observer) SignedIn(user *identity.User) {
	o.mu.Lock()
	o.user = user
	o.loading = false
	o.notifyLocked()
}

// SignedOut clears the current user. Loading stays false.
func (o *Observer) SignedOut() {
	o.mu.Lock()
	o.user = nil
	o.notifyLocked()
}

// notifyLocked snapshots the subscribers, releases the lock, then calls
// them. Callers must hold o.mu.
func (o *Observer) notifyLocked() {
	state := State{User: o.user, Loading: o.loading}
	fns := make([]func(State), 0, len(o.subscribers))
	for _, fn := range o.subscribers {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
