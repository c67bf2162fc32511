package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_SetGet(t *testing.T) {
	s := New(10, time.Minute)

	s.Set("token", "user@example.com", int64(42))

	v, ok := s.Get("token", "user@example.com")
	require.True(t, ok)
	assert.Equal(t, int64(42), v)
}

func TestService_OperationIsolation(t *testing.T) {
	s := New(10, time.Minute)

	s.Set("token", "alice", "a")
	s.Set("otp", "alice", "b")

	v1, ok := s.Get("token", "alice")
	require.True(t, ok)
	v2, ok := s.Get("otp", "alice")
	require.True(t, ok)

	assert.NotEqual(t, v1, v2)
}

func TestService_Invalidate(t *testing.T) {
	s := New(10, time.Minute)

	s.Set("token", "alice", "a")
	s.Invalidate("token", "alice")

	_, ok := s.Get("token", "alice")
	assert.False(t, ok)
}

func TestService_TTLExpiry(t *testing.T) {
	s := New(10, 30*time.Millisecond)

	s.Set("token", "alice", "a")
	time.Sleep(80 * time.Millisecond)

	_, ok := s.Get("token", "alice")
	assert.False(t, ok)
}

func TestService_MaxEntriesEviction(t *testing.T) {
	s := New(3, time.Minute)

	for i := 0; i < 5; i++ {
		s.Set("token", fmt.Sprintf("user%d", i), i)
	}

	assert.LessOrEqual(t, s.Len(), 3)

	// Oldest entries are gone.
	_, ok := s.Get("token", "user0")
	assert.False(t, ok)
	_, ok = s.Get("token", "user4")
	assert.True(t, ok)
}
