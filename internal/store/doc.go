// Package store provides SQLite-backed durable storage for the version
// control engine: repositories, branches, commits, snapshots, tags,
// merge requests and comments.
//
// # Critical patterns
//
//   - Branch heads advance ONLY through CreateCommitCAS, which verifies
//     the expected parent inside the same transaction that inserts the
//     commit and its snapshot. A mismatch aborts with ErrHeadMoved and
//     leaves no partial writes.
//   - Every multi-row write (repository + default branch + initial
//     commit, commit + snapshot, merge + timestamp) runs in a single
//     transaction. Readers never observe intermediate state.
//   - Name uniqueness (branches and tags per repository, build refs
//     globally) is enforced by UNIQUE indexes; violations surface as
//     ErrDuplicateName.
//   - Deletes cascade through foreign keys: removing a repository row
//     removes its branches, commits, snapshots, tags, merge requests
//     and comments.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Snapshot payload blobs are stored zstd-compressed; see blob.go.
package store
