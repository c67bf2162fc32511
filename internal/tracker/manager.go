package tracker

import (
	"context"
	"sync"

	"github.com/stratushq/tenant_go_server/internal/pkg/authevents"
)

// Manager holds one Tracker per authenticated principal and gates them on
// the auth-state event stream.
type Manager struct {
	store Store
	opts  []Option

	mu       sync.Mutex
	trackers map[int64]*Tracker
}

func NewManager(store Store, opts ...Option) *Manager {
	return &Manager{
		store:    store,
		opts:     opts,
		trackers: make(map[int64]*Tracker),
	}
}

// Touch records a liveness signal for the user. The caller is authenticated,
// so a missing tracker (e.g. after a restart ate the login event) is started
// on first contact; it restores its snapshot from the store.
func (m *Manager) Touch(ctx context.Context, userID int64, event string) {
	t := m.obtain(userID)
	if !t.LoggedIn() {
		t.Start(ctx)
	}
	t.Touch(ctx, event)
}

// Counters returns the user's running totals; zeros when untracked.
func (m *Manager) Counters(userID int64) (activeMs, inactiveMs int64, active bool) {
	m.mu.Lock()
	t, ok := m.trackers[userID]
	m.mu.Unlock()
	if !ok {
		return 0, 0, false
	}
	activeMs, inactiveMs = t.Counters()
	return activeMs, inactiveMs, t.Active()
}

// Run consumes auth-state events until ctx is done, starting trackers at
// login and tearing them down at logout.
func (m *Manager) Run(ctx context.Context, sub *authevents.Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			switch evt.State {
			case authevents.StateLoggedIn:
				m.obtain(evt.UserID).Start(ctx)
			case authevents.StateLoggedOut:
				m.release(ctx, evt.UserID)
			}
		}
	}
}

func (m *Manager) obtain(userID int64) *Tracker {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trackers[userID]
	if !ok {
		t = New(userID, m.store, m.opts...)
		m.trackers[userID] = t
	}
	return t
}

func (m *Manager) release(ctx context.Context, userID int64) {
	m.mu.Lock()
	t, ok := m.trackers[userID]
	delete(m.trackers, userID)
	m.mu.Unlock()

	if ok {
		t.Stop(ctx)
	}
}
