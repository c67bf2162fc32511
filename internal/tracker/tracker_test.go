package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratushq/tenant_go_server/internal/testutil"
)

func newTestTracker(t *testing.T, timeout time.Duration) *Tracker {
	t.Helper()
	tr := New(1, NewMemoryStore(),
		WithInactivityTimeout(timeout),
		WithPointerSampleRate(1),
	)
	tr.Start(context.Background())
	return tr
}

func TestTracker_StaysActiveUnderContinuousActivity(t *testing.T) {
	tr := newTestTracker(t, 80*time.Millisecond)
	ctx := context.Background()

	// Gaps well under the timeout must never flip the state.
	for i := 0; i < 6; i++ {
		tr.Touch(ctx, EventKeyDown)
		time.Sleep(20 * time.Millisecond)
	}

	assert.True(t, tr.Active())
	assert.Equal(t, int64(0), tr.WakeTransitions())

	_, inactiveMs := tr.Counters()
	assert.Equal(t, int64(0), inactiveMs)
}

func TestTracker_IdleGapCreditsInactiveOnce(t *testing.T) {
	tr := newTestTracker(t, 50*time.Millisecond)
	ctx := context.Background()

	tr.Touch(ctx, EventPointerDown)

	// Let the inactivity timer fire, then stay idle a while longer.
	time.Sleep(180 * time.Millisecond)
	assert.False(t, tr.Active())

	tr.Touch(ctx, EventKeyDown)

	assert.True(t, tr.Active())
	assert.Equal(t, int64(1), tr.WakeTransitions())

	activeMs, inactiveMs := tr.Counters()
	assert.Greater(t, activeMs, int64(0))
	// Idle span after the timer fired is credited to the inactive side.
	assert.Greater(t, inactiveMs, int64(50))
}

func TestTracker_PointerMoveSampling(t *testing.T) {
	store := NewMemoryStore()
	tr := New(1, store,
		WithInactivityTimeout(60*time.Millisecond),
		WithPointerSampleRate(5),
	)
	tr.Start(context.Background())
	ctx := context.Background()

	// Unsampled moves still keep the session alive.
	for i := 0; i < 9; i++ {
		tr.Touch(ctx, EventPointerMove)
		time.Sleep(15 * time.Millisecond)
	}

	assert.True(t, tr.Active())
	assert.Equal(t, int64(0), tr.WakeTransitions())
}

func TestTracker_StopZeroesEverything(t *testing.T) {
	tr := newTestTracker(t, time.Second)
	ctx := context.Background()

	tr.Touch(ctx, EventScroll)
	time.Sleep(20 * time.Millisecond)

	tr.Stop(ctx)

	assert.False(t, tr.Active())
	activeMs, inactiveMs := tr.Counters()
	assert.Equal(t, int64(0), activeMs)
	assert.Equal(t, int64(0), inactiveMs)
}

func TestTracker_IgnoresEventsWhileLoggedOut(t *testing.T) {
	tr := New(1, NewMemoryStore(), WithInactivityTimeout(time.Second))
	ctx := context.Background()

	tr.Touch(ctx, EventKeyDown)

	assert.False(t, tr.Active())
	activeMs, inactiveMs := tr.Counters()
	assert.Equal(t, int64(0), activeMs)
	assert.Equal(t, int64(0), inactiveMs)
}

func TestDecodeSnapshot_CorruptNumericField(t *testing.T) {
	snap := DecodeSnapshot([]byte(`{"lastEvent":"keydown","lastActivity":"2026-01-02T15:04:05Z","totalActiveTime":"not-a-number","totalInactiveTime":1234}`))

	assert.Equal(t, int64(0), snap.TotalActiveMs)
	assert.Equal(t, int64(1234), snap.TotalInactiveMs)
	assert.Equal(t, "keydown", snap.LastEvent)
}

func TestDecodeSnapshot_Garbage(t *testing.T) {
	snap := DecodeSnapshot([]byte(`not json at all`))

	assert.Equal(t, int64(0), snap.TotalActiveMs)
	assert.Equal(t, int64(0), snap.TotalInactiveMs)
}

func TestTracker_RestoresSnapshotOnStart(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, 1, &Snapshot{
		TotalActiveMs:   5000,
		TotalInactiveMs: 2000,
	}))

	tr := New(1, store, WithInactivityTimeout(time.Second))
	tr.Start(ctx)

	activeMs, inactiveMs := tr.Counters()
	assert.GreaterOrEqual(t, activeMs, int64(5000))
	assert.GreaterOrEqual(t, inactiveMs, int64(2000))
}

type failingStore struct{}

func (failingStore) Load(context.Context, int64) (*Snapshot, error) {
	return nil, errors.New("store down")
}
func (failingStore) Save(context.Context, int64, *Snapshot) error {
	return errors.New("store down")
}
func (failingStore) Clear(context.Context, int64) error {
	return errors.New("store down")
}

func TestTracker_DegradesWhenStoreFails(t *testing.T) {
	tr := New(1, failingStore{}, WithInactivityTimeout(time.Second), WithPointerSampleRate(1))
	ctx := context.Background()

	tr.Start(ctx)
	tr.Touch(ctx, EventKeyDown)
	time.Sleep(20 * time.Millisecond)

	// In-memory accounting continues despite the store failing.
	activeMs, _ := tr.Counters()
	assert.Greater(t, activeMs, int64(0))
}

func TestTracker_PollFollowsLoginState(t *testing.T) {
	tr := New(1, NewMemoryStore(), WithInactivityTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	loggedIn := false
	probe := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return loggedIn
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		tr.Poll(ctx, probe, 10*time.Millisecond)
	}()

	mu.Lock()
	loggedIn = true
	mu.Unlock()
	require.Eventually(t, tr.LoggedIn, time.Second, 5*time.Millisecond)

	mu.Lock()
	loggedIn = false
	mu.Unlock()
	require.Eventually(t, func() bool { return !tr.LoggedIn() }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestRedisStore_RoundTrip(t *testing.T) {
	client, cleanup := testutil.SetupTestRedis(t)
	defer cleanup()

	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 7, &Snapshot{
		LastEvent:       EventScroll,
		TotalActiveMs:   111,
		TotalInactiveMs: 222,
	}))

	snap, err := store.Load(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, int64(111), snap.TotalActiveMs)
	assert.Equal(t, int64(222), snap.TotalInactiveMs)

	require.NoError(t, store.Clear(ctx, 7))
	snap, err = store.Load(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, snap)
}
