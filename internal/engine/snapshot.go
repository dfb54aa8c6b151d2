package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/buildforge/buildvc/internal/canon"
	"github.com/buildforge/buildvc/internal/model"
	"github.com/buildforge/buildvc/internal/store"
)

// canonicalSnapshot serializes a snapshot to its canonical form, the
// input to commit hashing and digests. Two snapshots with the same
// structural content always canonicalize identically.
func canonicalSnapshot(snap *model.Snapshot) ([]byte, error) {
	parts := make([]any, len(snap.Parts))
	for i, p := range snap.Parts {
		parts[i] = map[string]any(p)
	}
	opts := make(map[string]any, len(snap.Optimizations))
	for k, v := range snap.Optimizations {
		opts[k] = v
	}

	payload := map[string]any{
		"build_data":    snap.BuildData,
		"parts":         parts,
		"analysis_data": snap.AnalysisData,
		"optimizations": opts,
	}
	canonical, err := canon.MarshalCanonical(payload)
	if err != nil {
		return nil, fmt.Errorf("canonicalize snapshot: %w", err)
	}
	return canonical, nil
}

// snapshotRecord prepares the persistence shape of a snapshot and
// returns it with the canonical serialization used for hashing.
func snapshotRecord(commitID string, snap *model.Snapshot) (store.SnapshotRecord, []byte, error) {
	canonical, err := canonicalSnapshot(snap)
	if err != nil {
		return store.SnapshotRecord{}, nil, err
	}

	partsJSON, err := json.Marshal(snap.Parts)
	if err != nil {
		return store.SnapshotRecord{}, nil, fmt.Errorf("marshal parts: %w", err)
	}
	optsJSON, err := json.Marshal(snap.Optimizations)
	if err != nil {
		return store.SnapshotRecord{}, nil, fmt.Errorf("marshal optimizations: %w", err)
	}

	rec := store.SnapshotRecord{
		CommitID:         commitID,
		BuildData:        snap.BuildData,
		PartsData:        partsJSON,
		AnalysisData:     snap.AnalysisData,
		OptimizationData: optsJSON,
		Digest:           canon.SnapshotDigest(canonical),
	}
	return rec, canonical, nil
}

// recordToSnapshot rebuilds the domain snapshot from its stored form.
func recordToSnapshot(rec store.SnapshotRecord) (*model.Snapshot, error) {
	snap := &model.Snapshot{
		CommitID:     rec.CommitID,
		BuildData:    rec.BuildData,
		AnalysisData: rec.AnalysisData,
	}
	if err := json.Unmarshal(rec.PartsData, &snap.Parts); err != nil {
		return nil, fmt.Errorf("unmarshal parts for %s: %w", rec.CommitID, err)
	}
	if len(rec.OptimizationData) > 0 {
		if err := json.Unmarshal(rec.OptimizationData, &snap.Optimizations); err != nil {
			return nil, fmt.Errorf("unmarshal optimizations for %s: %w", rec.CommitID, err)
		}
	}
	if snap.Parts == nil {
		snap.Parts = []model.Part{}
	}
	if snap.Optimizations == nil {
		snap.Optimizations = map[string]string{}
	}
	return snap, nil
}

// loadSnapshot resolves a commit's snapshot, consulting the cache first
// when one is configured. Cache failures are invisible to callers.
func (e *Engine) loadSnapshot(ctx context.Context, commitID string) (*model.Snapshot, error) {
	if e.cache != nil {
		if snap, ok := e.cache.Get(ctx, commitID); ok {
			return snap, nil
		}
	}

	rec, err := e.store.GetSnapshot(ctx, commitID)
	if err != nil {
		return nil, mapStoreError(err, "snapshot not found")
	}
	snap, err := recordToSnapshot(rec)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.Set(ctx, commitID, snap)
	}
	return snap, nil
}
