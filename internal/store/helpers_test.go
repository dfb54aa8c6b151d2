package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/buildforge/buildvc/internal/model"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSnapshotRecord(commitID string) SnapshotRecord {
	return SnapshotRecord{
		CommitID:         commitID,
		BuildData:        json.RawMessage(`{"material":"steel"}`),
		PartsData:        json.RawMessage(`[]`),
		OptimizationData: json.RawMessage(`{}`),
		Digest:           "digest-" + commitID,
	}
}

// seedRepository inserts a repository with a default branch and initial
// commit, mirroring what the engine does on repository creation.
func seedRepository(t *testing.T, s *Store, n int) (model.Repository, model.Branch, model.Commit) {
	t.Helper()
	ctx := context.Background()

	repo := model.Repository{
		ID:        fmt.Sprintf("repo-%d", n),
		BuildRef:  fmt.Sprintf("build-%d", n),
		Name:      "Test Build",
		CreatedBy: "user-1",
		CreatedAt: t0,
	}
	branch := model.Branch{
		ID:           fmt.Sprintf("branch-%d", n),
		RepositoryID: repo.ID,
		Name:         model.DefaultBranchName,
		IsDefault:    true,
		CreatedBy:    "user-1",
		CreatedAt:    t0,
	}
	commit := model.Commit{
		ID:           fmt.Sprintf("commit-%d-0", n),
		RepositoryID: repo.ID,
		BranchID:     branch.ID,
		CommitHash:   fmt.Sprintf("hash-%d-0", n),
		AuthorID:     "user-1",
		CommitterID:  "user-1",
		Message:      "Initial commit",
		CreatedAt:    t0,
	}

	if err := s.CreateRepository(ctx, repo, branch, commit, testSnapshotRecord(commit.ID)); err != nil {
		t.Fatalf("CreateRepository() failed: %v", err)
	}
	branch.HeadCommitID = commit.ID
	return repo, branch, commit
}

func appendCommit(t *testing.T, s *Store, branch model.Branch, parent, id string, at time.Time) model.Commit {
	t.Helper()
	commit := model.Commit{
		ID:             id,
		RepositoryID:   branch.RepositoryID,
		BranchID:       branch.ID,
		ParentCommitID: parent,
		CommitHash:     "hash-" + id,
		AuthorID:       "user-1",
		CommitterID:    "user-1",
		Message:        "commit " + id,
		CreatedAt:      at,
	}
	if err := s.CreateCommitCAS(context.Background(), commit, testSnapshotRecord(id), parent); err != nil {
		t.Fatalf("CreateCommitCAS(%s) failed: %v", id, err)
	}
	return commit
}
