package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const diskExt = ".json"

// DiskStore persists each entry as a JSON file under dir. Subscriptions see
// writes made through this process only.
type DiskStore struct {
	dir string
	mu  sync.Mutex
	hub *hub
}

// NewDiskStore creates a disk store rooted at dir
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &DiskStore{dir: dir, hub: newHub()}, nil
}

type diskEntry struct {
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Get implements Store
func (d *DiskStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := validPath(path); err != nil {
		return nil, err
	}
	return d.read(d.file(path))
}

func (d *DiskStore) read(file string) ([]byte, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode store file %s: %w", filepath.Base(file), err)
	}
	return entry.Data, nil
}

// Put implements Store
func (d *DiskStore) Put(ctx context.Context, path string, value []byte) error {
	if err := validPath(path); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("value for %s is not valid JSON", path)
	}

	data, err := json.Marshal(diskEntry{Data: value, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	file := d.file(path)

	d.mu.Lock()
	err = writeFileAtomic(file, data)
	d.mu.Unlock()
	if err != nil {
		return err
	}

	d.hub.publish(path, append([]byte(nil), value...))
	return nil
}

// writeFileAtomic writes via a temp file and rename so readers never see a partial entry
func writeFileAtomic(file string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(file), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), file); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write store file: %w", err)
	}
	return nil
}

// Append implements Store
func (d *DiskStore) Append(ctx context.Context, collection string, value []byte) (string, error) {
	key, err := newAppendKey()
	if err != nil {
		return "", err
	}
	if err := d.Put(ctx, Join(collection, key), value); err != nil {
		return "", err
	}
	return key, nil
}

// List implements Store
func (d *DiskStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	if err := validPath(prefix); err != nil {
		return nil, err
	}

	files, err := os.ReadDir(d.children(prefix))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	var entries []Entry
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, diskExt) || strings.HasPrefix(name, ".") {
			continue
		}
		path := Join(prefix, strings.TrimSuffix(name, diskExt))
		value, err := d.read(d.file(path))
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Path: path, Value: value})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Subscribe implements Store
func (d *DiskStore) Subscribe(ctx context.Context, prefix string) (<-chan Change, error) {
	return d.hub.subscribe(ctx, prefix), nil
}

// Close ends all subscriptions
func (d *DiskStore) Close() error {
	d.hub.closeAll()
	return nil
}

// Clear removes every stored file
func (d *DiskStore) Clear() error {
	return os.RemoveAll(d.dir)
}

// file maps a store path to its JSON file. links/k is links/k.json, and
// its children live in the links/k/ directory.
func (d *DiskStore) file(path string) string {
	return d.children(path) + diskExt
}

// children is the directory holding path's children
func (d *DiskStore) children(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = fileSegment(seg)
	}
	return filepath.Join(d.dir, filepath.Join(segments...))
}

// maxSegment keeps every file and directory name well under the common
// 255-byte limit once the extension is added
const maxSegment = 120

// fileSegment shortens an over-long path segment to a prefix plus a digest.
// Shortened names are stable, so List returns them and Get accepts them.
func fileSegment(seg string) string {
	if len(seg) <= maxSegment {
		return seg
	}
	cut := 64
	for cut > 0 && !utf8.RuneStart(seg[cut]) {
		cut--
	}
	sum := sha256.Sum256([]byte(seg))
	return seg[:cut] + "~" + hex.EncodeToString(sum[:16])
}
