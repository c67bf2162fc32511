package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Snapshot is the persisted tracker state. Restoring tolerates corrupt
// values: a field that fails to decode resets to its zero value instead of
// failing the restore.
type Snapshot struct {
	LastEvent       string    `json:"lastEvent"`
	LastActivity    time.Time `json:"lastActivity"`
	TotalActiveMs   int64     `json:"totalActiveTime"`
	TotalInactiveMs int64     `json:"totalInactiveTime"`
}

// rawSnapshot defers field decoding so one bad field cannot poison the rest.
type rawSnapshot struct {
	LastEvent       json.RawMessage `json:"lastEvent"`
	LastActivity    json.RawMessage `json:"lastActivity"`
	TotalActiveMs   json.RawMessage `json:"totalActiveTime"`
	TotalInactiveMs json.RawMessage `json:"totalInactiveTime"`
}

// DecodeSnapshot parses a stored snapshot leniently.
func DecodeSnapshot(data []byte) *Snapshot {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return &Snapshot{}
	}

	snap := &Snapshot{}
	_ = json.Unmarshal(raw.LastEvent, &snap.LastEvent)
	_ = json.Unmarshal(raw.LastActivity, &snap.LastActivity)
	if err := json.Unmarshal(raw.TotalActiveMs, &snap.TotalActiveMs); err != nil {
		snap.TotalActiveMs = 0
	}
	if err := json.Unmarshal(raw.TotalInactiveMs, &snap.TotalInactiveMs); err != nil {
		snap.TotalInactiveMs = 0
	}
	if snap.TotalActiveMs < 0 {
		snap.TotalActiveMs = 0
	}
	if snap.TotalInactiveMs < 0 {
		snap.TotalInactiveMs = 0
	}
	return snap
}

// Store persists tracker snapshots between restarts.
type Store interface {
	Load(ctx context.Context, userID int64) (*Snapshot, error)
	Save(ctx context.Context, userID int64, snap *Snapshot) error
	Clear(ctx context.Context, userID int64) error
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func snapshotKey(userID int64) string {
	return fmt.Sprintf("tracker:snapshot:%d", userID)
}

func (s *RedisStore) Load(ctx context.Context, userID int64) (*Snapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return DecodeSnapshot(data), nil
}

func (s *RedisStore) Save(ctx context.Context, userID int64, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, snapshotKey(userID), data, s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, snapshotKey(userID)).Err()
}

// MemoryStore is the in-process fallback used when no redis is configured.
type MemoryStore struct {
	mu    sync.Mutex
	snaps map[int64]*Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[int64]*Snapshot)}
}

func (s *MemoryStore) Load(_ context.Context, userID int64) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[userID]
	if !ok {
		return nil, nil
	}
	copied := *snap
	return &copied, nil
}

func (s *MemoryStore) Save(_ context.Context, userID int64, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *snap
	s.snaps[userID] = &copied
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, userID)
	return nil
}
