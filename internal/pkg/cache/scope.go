package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"
)

// Scope groups cache entries under a name and a version counter. Entry keys
// embed the current version, so Flush only has to bump the counter: every
// key written under the old version becomes unreachable and ages out via
// its TTL. This replaces wildcard deletes, which most key-value backends
// silently ignore.
type Scope struct {
	store Store
	name  string
	ttl   time.Duration
}

// NewScope creates a scope with the given entry TTL.
func NewScope(store Store, name string, ttl time.Duration) *Scope {
	return &Scope{store: store, name: name, ttl: ttl}
}

// Key computes the cache key for a parameter set. Params are serialized to
// JSON and hashed, so any difference in the normalized parameters yields a
// distinct key.
func (s *Scope) Key(ctx context.Context, params any) string {
	payload, err := json.Marshal(params)
	if err != nil {
		// Unmarshalable params cannot be cached deterministically
		payload = []byte(fmt.Sprintf("%+v", params))
	}
	return fmt.Sprintf("%s:%d:%x", s.name, s.version(ctx), md5.Sum(payload))
}

// Get unmarshals the entry at key into dest. Returns false on a miss or a
// decode failure.
func (s *Scope) Get(ctx context.Context, key string, dest any) bool {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false
	}
	return true
}

// Set marshals value and stores it at key. Errors are logged rather than
// returned; a failed cache write is non-fatal.
func (s *Scope) Set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache: marshal error for key %s: %v", key, err)
		return
	}
	if err := s.store.Set(ctx, key, data, s.ttl); err != nil {
		log.Printf("cache: write error for key %s: %v", key, err)
	}
}

// Flush invalidates every entry in the scope by bumping the version counter.
func (s *Scope) Flush(ctx context.Context) {
	if _, err := s.store.Increment(ctx, s.versionKey()); err != nil {
		log.Printf("cache: flush error for scope %s: %v", s.name, err)
	}
}

func (s *Scope) versionKey() string {
	return s.name + ":ver"
}

// version reads the current scope version; an absent counter reads as 0.
// The counter never expires.
func (s *Scope) version(ctx context.Context) int64 {
	data, err := s.store.Get(ctx, s.versionKey())
	if err != nil {
		return 0
	}
	ver, _ := strconv.ParseInt(string(data), 10, 64)
	return ver
}
