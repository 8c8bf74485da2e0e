package store

import (
	"context"
	"time"
)

// LayeredStore reads through a memory layer in front of a disk store
type LayeredStore struct {
	memory *MemoryStore
	disk   *DiskStore
}

// NewLayeredStore creates a layered store. Memory entries expire after memoryTTL.
func NewLayeredStore(memoryTTL time.Duration, disk *DiskStore) *LayeredStore {
	if memoryTTL <= 0 {
		memoryTTL = 30 * time.Minute
	}
	return &LayeredStore{
		memory: NewMemoryStore(memoryTTL),
		disk:   disk,
	}
}

// Get checks memory first, then disk
func (l *LayeredStore) Get(ctx context.Context, path string) ([]byte, error) {
	if val, err := l.memory.Get(ctx, path); err == nil {
		return val, nil
	}

	val, err := l.disk.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	// Promote to memory
	_ = l.memory.Put(ctx, path, val)
	return val, nil
}

// Put writes to disk, then memory
func (l *LayeredStore) Put(ctx context.Context, path string, value []byte) error {
	if err := l.disk.Put(ctx, path, value); err != nil {
		return err
	}
	return l.memory.Put(ctx, path, value)
}

// Append writes through the disk store and caches the new entry
func (l *LayeredStore) Append(ctx context.Context, collection string, value []byte) (string, error) {
	key, err := l.disk.Append(ctx, collection, value)
	if err != nil {
		return "", err
	}
	_ = l.memory.Put(ctx, Join(collection, key), value)
	return key, nil
}

// List reads from disk, which holds every entry
func (l *LayeredStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	return l.disk.List(ctx, prefix)
}

// Subscribe follows disk writes
func (l *LayeredStore) Subscribe(ctx context.Context, prefix string) (<-chan Change, error) {
	return l.disk.Subscribe(ctx, prefix)
}

// Close closes both layers
func (l *LayeredStore) Close() error {
	_ = l.memory.Close()
	return l.disk.Close()
}
