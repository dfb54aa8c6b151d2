package model

import "encoding/json"

// OptimizationLastUpdatedKey is a bookkeeping entry maintained by the
// build-domain collaborator. It is stored verbatim but excluded from
// structural diffs.
const OptimizationLastUpdatedKey = "lastUpdated"

// Part is one record of a snapshot's ordered parts sequence. The engine
// treats it as opaque apart from the stable "id" field used for diffing.
type Part map[string]any

// StableID returns the part's stable identifier, or "" when missing.
func (p Part) StableID() string {
	id, _ := p["id"].(string)
	return id
}

// Snapshot is the build state frozen at a commit (1:1, immutable).
// BuildData and AnalysisData are opaque blobs owned by the build-domain
// collaborator; the engine stores them verbatim.
type Snapshot struct {
	CommitID      string            `json:"commit_id,omitempty"`
	BuildData     json.RawMessage   `json:"build_data,omitempty"`
	Parts         []Part            `json:"parts"`
	AnalysisData  json.RawMessage   `json:"analysis_data,omitempty"`
	Optimizations map[string]string `json:"optimizations,omitempty"`
}

// EmptySnapshot is the state of a freshly created repository's initial
// commit: no parts, no optimizations.
func EmptySnapshot() *Snapshot {
	return &Snapshot{Parts: []Part{}, Optimizations: map[string]string{}}
}

// PartChange records a part present in both snapshots under the same id
// but with structurally different content.
type PartChange struct {
	ID     string `json:"id"`
	Before Part   `json:"before"`
	After  Part   `json:"after"`
}

// OptimizationChange records an optimization key whose value differs
// between two snapshots. An absent side is the empty string.
type OptimizationChange struct {
	Key    string `json:"key"`
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// ChangeSet is the structural comparison of two snapshots.
type ChangeSet struct {
	Added                []Part               `json:"added"`
	Removed              []Part               `json:"removed"`
	Modified             []PartChange         `json:"modified"`
	OptimizationsChanged []OptimizationChange `json:"optimizations_changed"`

	// BuildDataDiff is a unified text diff of the canonicalized build
	// data blobs, for display. Empty when the blobs are identical.
	BuildDataDiff string `json:"build_data_diff,omitempty"`
}

// Empty reports whether the change-set records no structural changes.
// BuildDataDiff is display-only and does not count.
func (c *ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 &&
		len(c.Modified) == 0 && len(c.OptimizationsChanged) == 0
}
