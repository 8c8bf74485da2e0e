package store

import (
	"context"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps entries in process memory
type MemoryStore struct {
	cache *gocache.Cache
	hub   *hub
}

// NewMemoryStore creates a memory store. A ttl of zero keeps entries forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	cleanup := 10 * time.Minute
	if ttl <= 0 {
		ttl = gocache.NoExpiration
		cleanup = 0
	}
	return &MemoryStore{
		cache: gocache.New(ttl, cleanup),
		hub:   newHub(),
	}
}

// Get implements Store
func (m *MemoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	if val, found := m.cache.Get(path); found {
		return val.([]byte), nil
	}
	return nil, ErrNotFound
}

// Put implements Store
func (m *MemoryStore) Put(ctx context.Context, path string, value []byte) error {
	if err := validPath(path); err != nil {
		return err
	}
	stored := append([]byte(nil), value...)
	m.cache.Set(path, stored, gocache.DefaultExpiration)
	m.hub.publish(path, stored)
	return nil
}

// Append implements Store
func (m *MemoryStore) Append(ctx context.Context, collection string, value []byte) (string, error) {
	key, err := newAppendKey()
	if err != nil {
		return "", err
	}
	if err := m.Put(ctx, Join(collection, key), value); err != nil {
		return "", err
	}
	return key, nil
}

// List implements Store
func (m *MemoryStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	var entries []Entry
	for path, item := range m.cache.Items() {
		if isChild(path, prefix) {
			entries = append(entries, Entry{Path: path, Value: item.Object.([]byte)})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Subscribe implements Store
func (m *MemoryStore) Subscribe(ctx context.Context, prefix string) (<-chan Change, error) {
	return m.hub.subscribe(ctx, prefix), nil
}

// Delete removes the value at path
func (m *MemoryStore) Delete(path string) {
	m.cache.Delete(path)
}

// Close ends all subscriptions
func (m *MemoryStore) Close() error {
	m.hub.closeAll()
	return nil
}
