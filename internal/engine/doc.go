// Package engine implements the version-control operations for build
// repositories: repository and branch management, the commit graph with
// compare-and-swap head updates, tags, merge requests, threaded comments
// and snapshot diffing.
//
// The engine is stateless between calls: every operation takes explicit
// ids, holds no locks, and performs its writes through a single store
// transaction. The only concurrency hazard - two writers racing to
// advance the same branch head - is resolved optimistically by the CAS
// in CreateCommit; the loser receives a CONFLICT error and decides its
// own retry policy.
//
// Identity is an external collaborator: author and creator ids are
// opaque strings, stored and echoed. An IdentityResolver hook resolves
// display names on reads; the default resolver resolves nothing.
package engine
