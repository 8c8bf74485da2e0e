// Package store persists scan history and community state under
// slash-separated paths (history/{id}, links/{key}, ...). Backends offer
// point reads and writes, keyed appends and change subscriptions.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when nothing is stored at a path
var ErrNotFound = errors.New("not found")

// Entry is a stored value and its path
type Entry struct {
	Path  string
	Value []byte
}

// Key returns the last path segment
func (e Entry) Key() string {
	return e.Path[strings.LastIndex(e.Path, "/")+1:]
}

// Change is pushed to subscribers when a value under their prefix changes
type Change struct {
	Path  string
	Value []byte
}

// Store is the persistence contract shared by all backends
type Store interface {
	// Get reads the value at path (ErrNotFound when absent)
	Get(ctx context.Context, path string) ([]byte, error)

	// Put writes or overwrites the value at path
	Put(ctx context.Context, path string, value []byte) error

	// Append stores value under collection with a generated, time-ordered key
	Append(ctx context.Context, collection string, value []byte) (string, error)

	// List returns the direct children of prefix, ordered by key
	List(ctx context.Context, prefix string) ([]Entry, error)

	// Subscribe streams changes at or below prefix until ctx is done
	Subscribe(ctx context.Context, prefix string) (<-chan Change, error)

	Close() error
}

// HistoryRoot holds one serialized ScanResult per scan
const HistoryRoot = "history"

// HistoryPath is where a scan result is stored
func HistoryPath(id string) string { return HistoryRoot + "/" + id }

// LinkPath is where community state for a canonical key is stored
func LinkPath(key string) string { return "links/" + key }

// CommentsPath is the append-only comment collection for a link
func CommentsPath(key string) string { return LinkPath(key) + "/comments" }

// ReactionsPath holds one reaction per viewer for a link
func ReactionsPath(key string) string { return LinkPath(key) + "/reactions" }

// Join builds a path from segments
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// GetJSON reads path and decodes it into v
func GetJSON(ctx context.Context, s Store, path string, v any) error {
	data, err := s.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// PutJSON encodes v and writes it to path
func PutJSON(ctx context.Context, s Store, path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return s.Put(ctx, path, data)
}

// AppendJSON encodes v and appends it to collection
func AppendJSON(ctx context.Context, s Store, collection string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", collection, err)
	}
	return s.Append(ctx, collection, data)
}

func validPath(path string) error {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") || strings.Contains(path, "//") {
		return fmt.Errorf("invalid store path %q", path)
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "." || seg == ".." {
			return fmt.Errorf("invalid store path %q", path)
		}
	}
	return nil
}

// under reports whether path is prefix or below it
func under(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// isChild reports whether path is a direct child of prefix
func isChild(path, prefix string) bool {
	rest, ok := strings.CutPrefix(path, prefix+"/")
	return ok && rest != "" && !strings.Contains(rest, "/")
}

// newAppendKey returns a UUIDv7, which sorts by creation time
func newAppendKey() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return id.String(), nil
}

// subscriberBuffer is the per-subscriber queue; a subscriber that falls
// further behind misses changes until it catches up
const subscriberBuffer = 64

type subscriber struct {
	prefix string
	ch     chan Change
}

// hub fans changes out to in-process subscribers
type hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[*subscriber]struct{})}
}

func (h *hub) subscribe(ctx context.Context, prefix string) <-chan Change {
	sub := &subscriber{prefix: prefix, ch: make(chan Change, subscriberBuffer)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		if _, ok := h.subs[sub]; ok {
			delete(h.subs, sub)
			close(sub.ch)
		}
		h.mu.Unlock()
	}()

	return sub.ch
}

func (h *hub) publish(path string, value []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if !under(path, sub.prefix) {
			continue
		}
		select {
		case sub.ch <- Change{Path: path, Value: value}:
		default:
		}
	}
}

// closeAll ends every subscription
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.ch)
	}
}
