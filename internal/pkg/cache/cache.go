package cache

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Service is an explicit auth-result cache keyed by operation+identity.
// It is constructed once and passed to the middleware and services that
// need it; there is no package-level instance. Entries evict on LRU
// pressure past maxEntries and expire after the configured TTL.
type Service struct {
	lru *expirable.LRU[string, interface{}]
}

func New(maxEntries int, ttl time.Duration) *Service {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &Service{
		lru: expirable.NewLRU[string, interface{}](maxEntries, nil, ttl),
	}
}

func key(op, identity string) string {
	return fmt.Sprintf("%s:%s", op, identity)
}

func (s *Service) Get(op, identity string) (interface{}, bool) {
	return s.lru.Get(key(op, identity))
}

func (s *Service) Set(op, identity string, value interface{}) {
	s.lru.Add(key(op, identity), value)
}

func (s *Service) Invalidate(op, identity string) {
	s.lru.Remove(key(op, identity))
}

func (s *Service) Len() int {
	return s.lru.Len()
}
