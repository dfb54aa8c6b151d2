// Package canon produces canonical JSON and content-addressed hashes for
// snapshots and commits.
//
// Canonical serialization follows RFC 8785: object keys sorted by UTF-16
// code units, NFC-normalized strings, no HTML escaping, no insignificant
// whitespace. Unlike strict RFC 8785 this package accepts null and
// numbers as decoded (json.Number values are emitted verbatim), because
// snapshot payloads are opaque JSON owned by the build-domain
// collaborator and must round-trip unchanged.
//
// Commit hashes are SHA-256 with domain separation; the same bytes hashed
// under different domains never collide.
package canon
