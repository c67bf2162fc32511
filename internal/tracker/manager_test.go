package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratushq/tenant_go_server/internal/pkg/authevents"
	"github.com/stratushq/tenant_go_server/internal/testutil"
)

func TestManager_TouchStartsTrackerLazily(t *testing.T) {
	m := NewManager(NewMemoryStore(), WithInactivityTimeout(time.Second))
	ctx := context.Background()

	_, _, active := m.Counters(1)
	assert.False(t, active)

	m.Touch(ctx, 1, EventKeyDown)

	_, _, active = m.Counters(1)
	assert.True(t, active)
}

func TestManager_TrackersAreIndependent(t *testing.T) {
	m := NewManager(NewMemoryStore(), WithInactivityTimeout(time.Second))
	ctx := context.Background()

	m.Touch(ctx, 1, EventKeyDown)

	_, _, active := m.Counters(2)
	assert.False(t, active)
	_, _, active = m.Counters(1)
	assert.True(t, active)
}

func TestManager_AuthEventsGateTracking(t *testing.T) {
	rdb, cleanup := testutil.SetupTestRedis(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := authevents.Subscribe(ctx, rdb)
	require.NoError(t, err)
	defer sub.Close()

	m := NewManager(NewMemoryStore(), WithInactivityTimeout(time.Second))
	go m.Run(ctx, sub)

	pub := authevents.NewPublisher(rdb)
	require.NoError(t, pub.Publish(ctx, &authevents.Event{UserID: 5, State: authevents.StateLoggedIn}))

	require.Eventually(t, func() bool {
		_, _, active := m.Counters(5)
		return active
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, pub.Publish(ctx, &authevents.Event{UserID: 5, State: authevents.StateLoggedOut}))

	require.Eventually(t, func() bool {
		_, _, active := m.Counters(5)
		return !active
	}, 2*time.Second, 10*time.Millisecond)
}
