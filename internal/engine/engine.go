package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/buildforge/buildvc/internal/model"
	"github.com/buildforge/buildvc/internal/store"
)

// Clock supplies timestamps for created/merged records.
// Injected so tests can pin time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator produces entity ids.
// Implemented by UUIDv7Generator (production) and the sequential
// generator in internal/testutil (tests).
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator generates time-ordered UUIDs. V7 ids sort by creation
// time, which keeps SQLite index pages warm on append-heavy tables.
type UUIDv7Generator struct{}

func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// IdentityResolver resolves opaque identity ids to display names.
// Supplied by the surrounding application; the engine never validates
// identity itself.
type IdentityResolver interface {
	DisplayName(ctx context.Context, id string) string
}

type noopIdentity struct{}

func (noopIdentity) DisplayName(context.Context, string) string { return "" }

// SnapshotCache is an optional read-through cache for commit snapshots.
// Snapshots are immutable, so cached entries never need invalidation.
// The cache is never authoritative: a miss or a cache failure falls back
// to the store.
type SnapshotCache interface {
	Get(ctx context.Context, commitID string) (*model.Snapshot, bool)
	Set(ctx context.Context, commitID string, snap *model.Snapshot)
}

// Engine exposes the version-control operations. Safe for concurrent
// use; all mutating calls run as single store transactions.
type Engine struct {
	store    *store.Store
	clock    Clock
	ids      IDGenerator
	cache    SnapshotCache
	identity IdentityResolver
	comments CommentAuthorizer
	log      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithIDGenerator overrides entity id generation.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithIdentityResolver installs the external identity collaborator.
func WithIdentityResolver(r IdentityResolver) Option {
	return func(e *Engine) { e.identity = r }
}

// WithSnapshotCache installs a read-through snapshot cache.
func WithSnapshotCache(c SnapshotCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithCommentAuthorizer overrides the comment modification policy
// (default: author only).
func WithCommentAuthorizer(a CommentAuthorizer) Option {
	return func(e *Engine) { e.comments = a }
}

// WithLogger overrides the logger (default slog.Default).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an Engine over the given store.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		clock:    systemClock{},
		ids:      UUIDv7Generator{},
		identity: noopIdentity{},
		comments: authorOnlyPolicy{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
