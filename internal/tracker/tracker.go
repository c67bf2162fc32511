package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/stratushq/tenant_go_server/internal/pkg/authevents"
)

// Event kinds recognized as liveness signals.
const (
	EventPointerMove = "pointermove"
	EventPointerDown = "pointerdown"
	EventKeyDown     = "keydown"
	EventTouchStart  = "touchstart"
	EventScroll      = "scroll"
	EventFocus       = "focus"
	EventBlur        = "blur"
	EventVisibility  = "visibilitychange"
)

const (
	DefaultInactivityTimeout = 10 * time.Second
	DefaultPointerSampleRate = 5
	DefaultLoginPollInterval = 5 * time.Second
)

// Tracker classifies a principal's session as active or inactive and
// accumulates elapsed milliseconds in each state. It only accounts while a
// login is known to be present; logout wipes all state.
//
// Store failures are swallowed: accounting continues in memory only.
type Tracker struct {
	userID     int64
	timeout    time.Duration
	sampleRate int
	store      Store
	clock      func() time.Time

	mu              sync.Mutex
	loggedIn        bool
	active          bool
	stateSince      time.Time
	lastEvent       string
	lastActivity    time.Time
	totalActiveMs   int64
	totalInactiveMs int64
	pointerMoves    int
	wakeTransitions int64
	timer           *time.Timer
}

type Option func(*Tracker)

func WithInactivityTimeout(d time.Duration) Option {
	return func(t *Tracker) { t.timeout = d }
}

func WithPointerSampleRate(n int) Option {
	return func(t *Tracker) { t.sampleRate = n }
}

func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) { t.clock = clock }
}

func New(userID int64, store Store, opts ...Option) *Tracker {
	t := &Tracker{
		userID:     userID,
		timeout:    DefaultInactivityTimeout,
		sampleRate: DefaultPointerSampleRate,
		store:      store,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.store == nil {
		t.store = NewMemoryStore()
	}
	return t
}

// Start marks the principal as logged in, restores any persisted snapshot
// and begins in the active state.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.loggedIn {
		return
	}

	if snap, err := t.store.Load(ctx, t.userID); err == nil && snap != nil {
		t.lastEvent = snap.LastEvent
		t.lastActivity = snap.LastActivity
		t.totalActiveMs = snap.TotalActiveMs
		t.totalInactiveMs = snap.TotalInactiveMs
	}

	now := t.clock()
	t.loggedIn = true
	t.active = true
	t.stateSince = now
	t.resetTimerLocked()
}

// Stop clears timers, accumulators and the persisted snapshot. Called at
// sign-out.
func (t *Tracker) Stop(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopTimerLocked()
	t.loggedIn = false
	t.active = false
	t.lastEvent = ""
	t.lastActivity = time.Time{}
	t.totalActiveMs = 0
	t.totalInactiveMs = 0
	t.pointerMoves = 0
	t.wakeTransitions = 0

	_ = t.store.Clear(ctx, t.userID)
}

// Touch records a liveness signal. Pointer moves are sampled 1-in-N for the
// accounting path, but every occurrence resets the inactivity timer.
func (t *Tracker) Touch(ctx context.Context, event string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.loggedIn {
		return
	}

	t.resetTimerLocked()

	if event == EventPointerMove {
		t.pointerMoves++
		if t.sampleRate > 1 && t.pointerMoves%t.sampleRate != 0 {
			return
		}
	}

	now := t.clock()
	if !t.active {
		// Credit the idle span that just ended.
		idle := now.Sub(t.stateSince).Milliseconds()
		if idle > 0 {
			t.totalInactiveMs += idle
		}
		t.active = true
		t.stateSince = now
		t.wakeTransitions++
	}

	t.lastEvent = event
	t.lastActivity = now
	t.persistLocked(ctx)
}

// onTimeout fires when the inactivity timer lapses without a reset.
func (t *Tracker) onTimeout() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.loggedIn || !t.active {
		return
	}

	now := t.clock()
	activeSpan := now.Sub(t.stateSince).Milliseconds()
	if activeSpan > 0 {
		t.totalActiveMs += activeSpan
	}
	t.active = false
	t.stateSince = now
	t.persistLocked(context.Background())
}

// Counters returns the accumulated active/inactive milliseconds, including
// the currently running span. Zeroes while logged out.
func (t *Tracker) Counters() (activeMs, inactiveMs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.loggedIn {
		return 0, 0
	}

	activeMs = t.totalActiveMs
	inactiveMs = t.totalInactiveMs
	running := t.clock().Sub(t.stateSince).Milliseconds()
	if running > 0 {
		if t.active {
			activeMs += running
		} else {
			inactiveMs += running
		}
	}
	return activeMs, inactiveMs
}

func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loggedIn && t.active
}

// LoggedIn reports whether the tracker has been through Start since its
// last Stop.
func (t *Tracker) LoggedIn() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loggedIn
}

// WakeTransitions counts inactive-to-active transitions since Start.
func (t *Tracker) WakeTransitions() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wakeTransitions
}

// Run consumes auth-state events until ctx is done, gating accounting on the
// principal's login state.
func (t *Tracker) Run(ctx context.Context, sub *authevents.Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			if evt.UserID != t.userID {
				continue
			}
			switch evt.State {
			case authevents.StateLoggedIn:
				t.Start(ctx)
			case authevents.StateLoggedOut:
				t.Stop(ctx)
			}
		}
	}
}

// Poll is the fallback gate for callers without an auth-event source: probe
// is checked on an interval and login transitions are applied.
func (t *Tracker) Poll(ctx context.Context, probe func() bool, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultLoginPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			loggedIn := probe()
			t.mu.Lock()
			was := t.loggedIn
			t.mu.Unlock()
			if loggedIn && !was {
				t.Start(ctx)
			} else if !loggedIn && was {
				t.Stop(ctx)
			}
		}
	}
}

func (t *Tracker) persistLocked(ctx context.Context) {
	snap := &Snapshot{
		LastEvent:       t.lastEvent,
		LastActivity:    t.lastActivity,
		TotalActiveMs:   t.totalActiveMs,
		TotalInactiveMs: t.totalInactiveMs,
	}
	// Best effort; a failing store degrades to in-memory accounting.
	_ = t.store.Save(ctx, t.userID, snap)
}

func (t *Tracker) resetTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.timeout, t.onTimeout)
}

func (t *Tracker) stopTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
