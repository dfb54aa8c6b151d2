package engine

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/samber/lo"

	"github.com/buildforge/buildvc/internal/canon"
	"github.com/buildforge/buildvc/internal/model"
)

// CompareCommits computes the structural change-set from commit A to
// commit B. Parts are matched by stable id; content equality uses the
// canonical serialization, screened with a fast fingerprint and
// confirmed byte for byte. Comparing a commit with itself yields an
// empty change-set.
func (e *Engine) CompareCommits(ctx context.Context, commitIDA, commitIDB string) (*model.ChangeSet, error) {
	snapA, err := e.loadSnapshot(ctx, commitIDA)
	if err != nil {
		return nil, err
	}
	snapB, err := e.loadSnapshot(ctx, commitIDB)
	if err != nil {
		return nil, err
	}
	return diffSnapshots(snapA, snapB)
}

func diffSnapshots(a, b *model.Snapshot) (*model.ChangeSet, error) {
	byIDA := lo.KeyBy(a.Parts, model.Part.StableID)
	byIDB := lo.KeyBy(b.Parts, model.Part.StableID)

	cs := &model.ChangeSet{
		Added:                []model.Part{},
		Removed:              []model.Part{},
		Modified:             []model.PartChange{},
		OptimizationsChanged: []model.OptimizationChange{},
	}

	// Added and modified follow B's part order, removed follows A's, so
	// the change-set is stable across runs.
	for _, part := range b.Parts {
		id := part.StableID()
		before, ok := byIDA[id]
		if !ok {
			cs.Added = append(cs.Added, part)
			continue
		}
		equal, err := partsEqual(before, part)
		if err != nil {
			return nil, err
		}
		if !equal {
			cs.Modified = append(cs.Modified, model.PartChange{ID: id, Before: before, After: part})
		}
	}
	for _, part := range a.Parts {
		if _, ok := byIDB[part.StableID()]; !ok {
			cs.Removed = append(cs.Removed, part)
		}
	}

	cs.OptimizationsChanged = diffOptimizations(a.Optimizations, b.Optimizations)

	buildDiff, err := buildDataDiff(a.BuildData, b.BuildData)
	if err != nil {
		return nil, err
	}
	cs.BuildDataDiff = buildDiff

	return cs, nil
}

// partsEqual reports structural equality of two parts. The fingerprint
// is a cheap screen; matches are confirmed with a byte comparison so a
// fingerprint collision can never report unequal parts as equal.
func partsEqual(a, b model.Part) (bool, error) {
	ca, err := canon.MarshalCanonical(map[string]any(a))
	if err != nil {
		return false, fmt.Errorf("canonicalize part %q: %w", a.StableID(), err)
	}
	cb, err := canon.MarshalCanonical(map[string]any(b))
	if err != nil {
		return false, fmt.Errorf("canonicalize part %q: %w", b.StableID(), err)
	}
	if canon.Fingerprint(ca) != canon.Fingerprint(cb) {
		return false, nil
	}
	return bytes.Equal(ca, cb), nil
}

// diffOptimizations compares optimization maps key by key, excluding
// the lastUpdated bookkeeping entry. Results are sorted by key.
func diffOptimizations(a, b map[string]string) []model.OptimizationChange {
	keys := lo.Union(lo.Keys(a), lo.Keys(b))
	sort.Strings(keys)

	changes := []model.OptimizationChange{}
	for _, k := range keys {
		if k == model.OptimizationLastUpdatedKey {
			continue
		}
		if a[k] != b[k] {
			changes = append(changes, model.OptimizationChange{Key: k, Before: a[k], After: b[k]})
		}
	}
	return changes
}

// buildDataDiff renders a unified text diff of the canonicalized build
// data blobs. Display-only; structural emptiness ignores it.
func buildDataDiff(a, b []byte) (string, error) {
	ca, err := canon.CanonicalizeRaw(a)
	if err != nil {
		return "", fmt.Errorf("canonicalize build data: %w", err)
	}
	cb, err := canon.CanonicalizeRaw(b)
	if err != nil {
		return "", fmt.Errorf("canonicalize build data: %w", err)
	}
	if bytes.Equal(ca, cb) {
		return "", nil
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(ca)),
		B:        difflib.SplitLines(string(cb)),
		FromFile: "a/build_data",
		ToFile:   "b/build_data",
		Context:  3,
	})
}
