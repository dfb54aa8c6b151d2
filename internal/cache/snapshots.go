// Package cache provides an optional Redis-backed read-through cache
// for commit snapshots. Snapshots are immutable, so entries are written
// once and never invalidated; TTL alone bounds memory. The cache is
// best-effort and never authoritative: every failure degrades to a
// store read.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/buildforge/buildvc/internal/model"
)

const keyPrefix = "buildvc:snapshot:"

// Config defines Redis connection settings.
type Config struct {
	Addr     string
	Username string
	Password string
	Database int
	TTL      time.Duration
}

// SnapshotCache caches snapshots keyed by commit id. Implements
// engine.SnapshotCache.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// New connects to Redis and returns a snapshot cache. The connection is
// verified with a short ping so a misconfigured cache fails at startup,
// not on first read.
func New(cfg Config, log *slog.Logger) (*SnapshotCache, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &SnapshotCache{client: client, ttl: ttl, log: log}, nil
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(client *redis.Client, ttl time.Duration, log *slog.Logger) *SnapshotCache {
	if log == nil {
		log = slog.Default()
	}
	return &SnapshotCache{client: client, ttl: ttl, log: log}
}

// Get returns the cached snapshot for a commit, or false on miss.
// Errors count as misses.
func (c *SnapshotCache) Get(ctx context.Context, commitID string) (*model.Snapshot, bool) {
	raw, err := c.client.Get(ctx, keyPrefix+commitID).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.WarnContext(ctx, "snapshot cache read failed", "commit_id", commitID, "error", err)
		return nil, false
	}

	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// A corrupt entry is dropped so the next read repopulates it.
		c.log.WarnContext(ctx, "snapshot cache entry corrupt", "commit_id", commitID, "error", err)
		c.client.Del(ctx, keyPrefix+commitID)
		return nil, false
	}
	return &snap, true
}

// Set stores a snapshot. Failures are logged and swallowed.
func (c *SnapshotCache) Set(ctx context.Context, commitID string, snap *model.Snapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		c.log.WarnContext(ctx, "snapshot cache marshal failed", "commit_id", commitID, "error", err)
		return
	}
	if err := c.client.Set(ctx, keyPrefix+commitID, raw, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "snapshot cache write failed", "commit_id", commitID, "error", err)
	}
}

// Close releases the Redis connection.
func (c *SnapshotCache) Close() error {
	return c.client.Close()
}
