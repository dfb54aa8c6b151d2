package testutil

import (
	"fmt"
	"sync/atomic"
)

// SequentialIDs generates ids of the form "<prefix>-0001", "<prefix>-0002"
// in creation order. Deterministic across runs, which keeps golden files
// and scenario assertions stable. Safe for concurrent use.
type SequentialIDs struct {
	prefix string
	n      atomic.Int64
}

// NewSequentialIDs creates a generator with the given prefix.
// An empty prefix defaults to "id".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "id"
	}
	return &SequentialIDs{prefix: prefix}
}

// NewID returns the next id in sequence.
func (g *SequentialIDs) NewID() string {
	return fmt.Sprintf("%s-%04d", g.prefix, g.n.Add(1))
}
