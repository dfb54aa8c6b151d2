package canon

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// Domain prefixes for content-addressed hashing. The version suffix
// allows future algorithm migration without colliding with old hashes.
const (
	DomainCommit   = "buildvc/commit/v1"
	DomainSnapshot = "buildvc/snapshot/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data...). The null
// separator prevents boundary ambiguity between domain and data, and
// between consecutive data segments.
func hashWithDomain(domain string, data ...[]byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	for _, d := range data {
		h.Write([]byte{0x00})
		h.Write(d)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CommitHash computes the deterministic hash of a commit from its parent
// hash (empty string for an initial commit), message, and canonically
// serialized snapshot.
func CommitHash(parentHash, message string, canonicalSnapshot []byte) string {
	return hashWithDomain(DomainCommit, []byte(parentHash), []byte(message), canonicalSnapshot)
}

// SnapshotDigest computes the content address of a canonically
// serialized snapshot.
func SnapshotDigest(canonicalSnapshot []byte) string {
	return hashWithDomain(DomainSnapshot, canonicalSnapshot)
}

// Fingerprint is a fast non-cryptographic hash of canonical bytes, used
// for cheap structural-equality checks during diffing. Equal fingerprints
// are confirmed with a byte comparison before content is reported equal.
func Fingerprint(canonical []byte) uint64 {
	return xxhash.Sum64(canonical)
}
