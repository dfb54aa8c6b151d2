// Package model defines the domain entities of the build version-control
// engine: repositories, branches, commits, snapshots, tags, merge requests
// and comments.
//
// Entities are plain data carriers. Lifecycle rules (commit immutability,
// CAS head updates, terminal merge-request states) are enforced by
// internal/store and internal/engine, not here.
//
// Identity fields (AuthorID, CreatedBy, ...) are opaque strings supplied by
// an external identity collaborator. The engine stores and echoes them
// without validation.
package model
