package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/buildforge/buildvc/internal/model"
)

func TestCreateCommitCAS_AdvancesHead(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, branch, c0 := seedRepository(t, s, 1)

	c1 := appendCommit(t, s, branch, c0.ID, "commit-1-1", t0.Add(time.Second))

	got, err := s.GetBranch(ctx, branch.ID)
	if err != nil {
		t.Fatalf("GetBranch() failed: %v", err)
	}
	if got.HeadCommitID != c1.ID {
		t.Errorf("head = %q, want %q", got.HeadCommitID, c1.ID)
	}
}

func TestCreateCommitCAS_StaleParent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, branch, c0 := seedRepository(t, s, 1)
	appendCommit(t, s, branch, c0.ID, "commit-1-1", t0.Add(time.Second))

	// Second writer still expects c0.
	stale := model.Commit{
		ID:             "commit-1-stale",
		RepositoryID:   branch.RepositoryID,
		BranchID:       branch.ID,
		ParentCommitID: c0.ID,
		CommitHash:     "hash-stale",
		AuthorID:       "user-2",
		CommitterID:    "user-2",
		Message:        "stale",
		CreatedAt:      t0.Add(2 * time.Second),
	}
	err := s.CreateCommitCAS(ctx, stale, testSnapshotRecord(stale.ID), c0.ID)
	if !errors.Is(err, ErrHeadMoved) {
		t.Fatalf("expected ErrHeadMoved, got %v", err)
	}

	// The losing transaction must leave nothing behind.
	if _, err := s.GetCommit(ctx, stale.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale commit should not exist, got %v", err)
	}
	if _, err := s.GetSnapshot(ctx, stale.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale snapshot should not exist, got %v", err)
	}
}

func TestCreateCommitCAS_UnknownBranch(t *testing.T) {
	s := openTestStore(t)
	repo, _, c0 := seedRepository(t, s, 1)

	commit := model.Commit{
		ID:           "commit-x",
		RepositoryID: repo.ID,
		BranchID:     "ghost",
		CommitHash:   "hash-x",
		AuthorID:     "user-1",
		CommitterID:  "user-1",
		Message:      "x",
		CreatedAt:    t0,
	}
	err := s.CreateCommitCAS(context.Background(), commit, testSnapshotRecord(commit.ID), c0.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetCommit_NullParent(t *testing.T) {
	s := openTestStore(t)
	_, _, c0 := seedRepository(t, s, 1)

	got, err := s.GetCommit(context.Background(), c0.ID)
	if err != nil {
		t.Fatalf("GetCommit() failed: %v", err)
	}
	if got.ParentCommitID != "" {
		t.Errorf("initial commit parent = %q, want empty", got.ParentCommitID)
	}
}

func TestGetSnapshot_RoundTripsBlobs(t *testing.T) {
	s := openTestStore(t)
	_, _, c0 := seedRepository(t, s, 1)

	rec, err := s.GetSnapshot(context.Background(), c0.ID)
	if err != nil {
		t.Fatalf("GetSnapshot() failed: %v", err)
	}
	if string(rec.BuildData) != `{"material":"steel"}` {
		t.Errorf("build data = %s", rec.BuildData)
	}
	if string(rec.PartsData) != `[]` {
		t.Errorf("parts data = %s", rec.PartsData)
	}
	if rec.Digest != "digest-"+c0.ID {
		t.Errorf("digest = %q", rec.Digest)
	}
}

func TestListRecentCommits_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	repo, branch, c0 := seedRepository(t, s, 1)

	c1 := appendCommit(t, s, branch, c0.ID, "commit-1-1", t0.Add(time.Second))
	c2 := appendCommit(t, s, branch, c1.ID, "commit-1-2", t0.Add(2*time.Second))

	commits, err := s.ListRecentCommits(context.Background(), repo.ID, 2)
	if err != nil {
		t.Fatalf("ListRecentCommits() failed: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("got %d commits, want 2", len(commits))
	}
	if commits[0].ID != c2.ID || commits[1].ID != c1.ID {
		t.Errorf("order = [%s %s], want [%s %s]", commits[0].ID, commits[1].ID, c2.ID, c1.ID)
	}
}

func TestDeleteRepository_Cascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo, branch, c0 := seedRepository(t, s, 1)

	tag := model.Tag{
		ID: "tag-1", RepositoryID: repo.ID, CommitID: c0.ID,
		Name: "v1", CreatedBy: "user-1", CreatedAt: t0,
	}
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag() failed: %v", err)
	}

	if err := s.DeleteRepository(ctx, repo.ID); err != nil {
		t.Fatalf("DeleteRepository() failed: %v", err)
	}

	if _, err := s.GetBranch(ctx, branch.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("branch should cascade, got %v", err)
	}
	if _, err := s.GetCommit(ctx, c0.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("commit should cascade, got %v", err)
	}
	if _, err := s.GetSnapshot(ctx, c0.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("snapshot should cascade, got %v", err)
	}
	if _, err := s.GetTag(ctx, tag.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("tag should cascade, got %v", err)
	}
}

func TestCreateRepository_DuplicateBuildRef(t *testing.T) {
	s := openTestStore(t)
	seedRepository(t, s, 1)

	repo := model.Repository{
		ID: "repo-dup", BuildRef: "build-1", Name: "Dup",
		CreatedBy: "user-1", CreatedAt: t0,
	}
	branch := model.Branch{
		ID: "branch-dup", RepositoryID: repo.ID, Name: model.DefaultBranchName,
		IsDefault: true, CreatedBy: "user-1", CreatedAt: t0,
	}
	commit := model.Commit{
		ID: "commit-dup", RepositoryID: repo.ID, BranchID: branch.ID,
		CommitHash: "hash-dup", AuthorID: "user-1", CommitterID: "user-1",
		Message: "Initial commit", CreatedAt: t0,
	}
	err := s.CreateRepository(context.Background(), repo, branch, commit, testSnapshotRecord(commit.ID))
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	// Rolled back whole: no orphan branch or commit.
	if _, err := s.GetBranch(context.Background(), branch.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("orphan branch found: %v", err)
	}
}

func TestCreateBranch_DuplicateNamePerRepository(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo, _, c0 := seedRepository(t, s, 1)

	dup := model.Branch{
		ID: "branch-dup", RepositoryID: repo.ID, Name: model.DefaultBranchName,
		HeadCommitID: c0.ID, CreatedBy: "user-1", CreatedAt: t0,
	}
	if err := s.CreateBranch(ctx, dup); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	// Same name in a different repository is fine.
	repo2, _, c20 := seedRepository(t, s, 2)
	other := model.Branch{
		ID: "branch-other", RepositoryID: repo2.ID, Name: "feature",
		HeadCommitID: c20.ID, CreatedBy: "user-1", CreatedAt: t0,
	}
	if err := s.CreateBranch(ctx, other); err != nil {
		t.Fatalf("CreateBranch() in second repository failed: %v", err)
	}
}
