package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/safelink/internal/model"
)

// Open creates the backend selected by cfg
func Open(ctx context.Context, cfg model.StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory":
		return NewMemoryStore(0), nil

	case "disk", "":
		disk, err := NewDiskStore(expandHome(cfg.Dir))
		if err != nil {
			return nil, err
		}
		return NewLayeredStore(cfg.MemoryTTL, disk), nil

	case "postgres", "postgresql":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("store.database_url is required for the postgres backend")
		}
		return NewPostgresStore(ctx, cfg.DatabaseURL)

	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: memory, disk, postgres)", cfg.Backend)
	}
}

func expandHome(dir string) string {
	if dir == "" {
		dir = "~/.safelink/data"
	}
	if rest, ok := strings.CutPrefix(dir, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return dir
}
