package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// notifyChannel must match the trigger in migrations
const notifyChannel = "safelink_changes"

// PostgresStore keeps entries in a single Postgres table and streams changes
// with LISTEN/NOTIFY, so subscribers see writes from every process.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, applies migrations and returns the store
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if err := migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func migrate(pool *pgxpool.Pool) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Get implements Store
func (p *PostgresStore) Get(ctx context.Context, path string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM entries WHERE path = $1`, path).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return value, nil
}

// Put implements Store
func (p *PostgresStore) Put(ctx context.Context, path string, value []byte) error {
	if err := validPath(path); err != nil {
		return err
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO entries (path, parent, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (path) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		path, parentOf(path), value)
	if err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	return nil
}

// Append implements Store
func (p *PostgresStore) Append(ctx context.Context, collection string, value []byte) (string, error) {
	key, err := newAppendKey()
	if err != nil {
		return "", err
	}
	if err := p.Put(ctx, Join(collection, key), value); err != nil {
		return "", err
	}
	return key, nil
}

// List implements Store
func (p *PostgresStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	rows, err := p.pool.Query(ctx, `SELECT path, value FROM entries WHERE parent = $1 ORDER BY path`, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.Value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", prefix, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Subscribe holds a dedicated connection in LISTEN mode until ctx is done
func (p *PostgresStore) Subscribe(ctx context.Context, prefix string) (<-chan Change, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen: %w", err)
	}

	ch := make(chan Change, subscriberBuffer)
	go func() {
		defer close(ch)
		defer func() {
			// Connection goes back to the pool; it must not keep listening
			_, _ = conn.Exec(context.Background(), "UNLISTEN *")
			conn.Release()
		}()

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				return
			}
			if !under(n.Payload, prefix) {
				continue
			}
			value, err := p.Get(ctx, n.Payload)
			if err != nil {
				continue
			}
			select {
			case ch <- Change{Path: n.Payload, Value: value}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// Close closes the pool
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func parentOf(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}
