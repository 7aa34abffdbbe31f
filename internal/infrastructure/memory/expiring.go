package memory

import (
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

// Status describes what a lookup found under a key.
type Status int

const (
	EntryMissing Status = iota
	EntryExpired        // an entry existed but had expired; it has been removed
	EntryLive
)

// Entry is a live value together with its expiry (zero when it never expires).
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

func (e Entry[V]) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

type shard[V any] struct {
	mu    sync.Mutex
	items map[string]Entry[V]
}

// ExpiringMap is a concurrent string-keyed map whose entries carry an optional expiry.
// Keys are spread over independently locked shards, so operations on unrelated keys
// never wait on each other. Every operation is atomic with respect to its key.
//
// Expired entries are evicted lazily by the operation that observes them, or in bulk by Sweep.
type ExpiringMap[V any] struct {
	shards [shardCount]shard[V]
	now    func() time.Time
}

// NewExpiringMap creates an empty map using now as its clock (time.Now when nil).
func NewExpiringMap[V any](now func() time.Time) *ExpiringMap[V] {
	if now == nil {
		now = time.Now
	}
	m := &ExpiringMap[V]{now: now}
	for i := range m.shards {
		m.shards[i].items = make(map[string]Entry[V])
	}
	return m
}

func (m *ExpiringMap[V]) shardFor(key string) *shard[V] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &m.shards[h.Sum32()%shardCount]
}

// Set stores v under key, replacing any previous entry. A ttl <= 0 stores the value
// without expiry. It returns the new entry's expiry.
func (m *ExpiringMap[V]) Set(key string, v V, ttl time.Duration) time.Time {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.now().Add(ttl)
	}
	s := m.shardFor(key)
	s.mu.Lock()
	s.items[key] = Entry[V]{Value: v, ExpiresAt: expiresAt}
	s.mu.Unlock()
	return expiresAt
}

// Get returns the entry stored under key if it is still live.
func (m *ExpiringMap[V]) Get(key string) (Entry[V], Status) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		return Entry[V]{}, EntryMissing
	}
	if e.expired(m.now()) {
		delete(s.items, key)
		return Entry[V]{}, EntryExpired
	}
	return e, EntryLive
}

// Has reports whether a live entry exists under key.
func (m *ExpiringMap[V]) Has(key string) bool {
	_, st := m.Get(key)
	return st == EntryLive
}

// Delete removes key. Deleting an absent key is a no-op.
func (m *ExpiringMap[V]) Delete(key string) {
	s := m.shardFor(key)
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// Op tells Apply what to do with the value its callback returned.
type Op int

const (
	OpKeep   Op = iota // leave the stored value untouched
	OpStore            // replace the stored value, keeping its expiry
	OpDelete           // remove the entry
)

// Apply runs fn on the live value under key while holding the key's lock and then
// performs the Op it returns. fn is not called when the key is missing or expired.
// fn must not call back into this map.
func (m *ExpiringMap[V]) Apply(key string, fn func(V) (V, Op)) Status {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		return EntryMissing
	}
	if e.expired(m.now()) {
		delete(s.items, key)
		return EntryExpired
	}
	v, op := fn(e.Value)
	switch op {
	case OpStore:
		e.Value = v
		s.items[key] = e
	case OpDelete:
		delete(s.items, key)
	}
	return EntryLive
}

// Update applies fn to the live value under key while holding the key's lock. When fn
// returns write=true the returned value replaces the old one, keeping its expiry.
// Update reports whether a value was written.
func (m *ExpiringMap[V]) Update(key string, fn func(V) (V, bool)) bool {
	written := false
	m.Apply(key, func(v V) (V, Op) {
		nv, write := fn(v)
		if !write {
			return v, OpKeep
		}
		written = true
		return nv, OpStore
	})
	return written
}

// Take removes the entry under key and returns it if it was live. Of several callers
// racing on the same key at most one receives EntryLive.
func (m *ExpiringMap[V]) Take(key string) (Entry[V], Status) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		return Entry[V]{}, EntryMissing
	}
	delete(s.items, key)
	if e.expired(m.now()) {
		return Entry[V]{}, EntryExpired
	}
	return e, EntryLive
}

// SetIfAbsent stores v under key only when no live entry is there, and reports whether it did.
func (m *ExpiringMap[V]) SetIfAbsent(key string, v V, ttl time.Duration) bool {
	now := m.now()
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[key]; ok && !e.expired(now) {
		return false
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}
	s.items[key] = Entry[V]{Value: v, ExpiresAt: expiresAt}
	return true
}

// DeleteFunc removes every entry for which del returns true and reports how many were removed.
// del runs under the entry's shard lock and must not call back into this map.
func (m *ExpiringMap[V]) DeleteFunc(del func(key string, v V) bool) int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for k, e := range s.items {
			if del(k, e.Value) {
				delete(s.items, k)
				n++
			}
		}
		s.mu.Unlock()
	}
	return n
}

// Sweep removes all expired entries and reports how many were removed.
func (m *ExpiringMap[V]) Sweep() int {
	now := m.now()
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for k, e := range s.items {
			if e.expired(now) {
				delete(s.items, k)
				n++
			}
		}
		s.mu.Unlock()
	}
	return n
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (m *ExpiringMap[V]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		n += len(s.items)
		s.mu.Unlock()
	}
	return n
}
