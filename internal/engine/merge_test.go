package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildforge/buildvc/internal/model"
)

type mrFixture struct {
	repo    *model.RepositoryDetail
	main    model.Branch
	feature *model.Branch
}

func setupMergeFixture(t *testing.T, e *Engine) mrFixture {
	t.Helper()
	repo := createTestRepository(t, e, "build-1")
	feature, err := e.CreateBranch(context.Background(), CreateBranchParams{
		RepositoryID: repo.ID, Name: "feature", CreatedBy: "user-1",
	})
	require.NoError(t, err)
	return mrFixture{repo: repo, main: repo.Branches[0], feature: feature}
}

func openMergeRequest(t *testing.T, e *Engine, f mrFixture) *model.MergeRequest {
	t.Helper()
	mr, err := e.CreateMergeRequest(context.Background(), CreateMergeRequestParams{
		RepositoryID:   f.repo.ID,
		SourceBranchID: f.feature.ID,
		TargetBranchID: f.main.ID,
		Title:          "Integrate feature",
		CreatedBy:      "user-1",
	})
	require.NoError(t, err)
	return mr
}

func TestCreateMergeRequest(t *testing.T) {
	e := newTestEngine(t)
	f := setupMergeFixture(t, e)

	mr := openMergeRequest(t, e, f)
	assert.Equal(t, model.MergeRequestOpen, mr.Status)
	assert.Empty(t, mr.MergeCommitID)
	assert.Nil(t, mr.MergedAt)
}

func TestCreateMergeRequest_SourceEqualsTarget(t *testing.T) {
	e := newTestEngine(t)
	f := setupMergeFixture(t, e)

	_, err := e.CreateMergeRequest(context.Background(), CreateMergeRequestParams{
		RepositoryID:   f.repo.ID,
		SourceBranchID: f.main.ID,
		TargetBranchID: f.main.ID,
		Title:          "self merge",
		CreatedBy:      "user-1",
	})
	assert.True(t, IsValidation(err), "got %v", err)
}

func TestCreateMergeRequest_BranchFromOtherRepository(t *testing.T) {
	e := newTestEngine(t)
	f := setupMergeFixture(t, e)
	other := createTestRepository(t, e, "build-2")

	_, err := e.CreateMergeRequest(context.Background(), CreateMergeRequestParams{
		RepositoryID:   f.repo.ID,
		SourceBranchID: other.Branches[0].ID,
		TargetBranchID: f.main.ID,
		Title:          "cross repo",
		CreatedBy:      "user-1",
	})
	assert.True(t, IsValidation(err), "got %v", err)
}

func TestMergeMergeRequest_Lifecycle(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := setupMergeFixture(t, e)
	mr := openMergeRequest(t, e, f)

	// The caller integrates on the target branch first, then records the
	// resulting commit on the merge request.
	mergeCommit, err := e.CreateCommit(ctx, CreateCommitParams{
		RepositoryID:           f.repo.ID,
		BranchID:               f.main.ID,
		ExpectedParentCommitID: f.main.HeadCommitID,
		AuthorID:               "user-1",
		Message:                "Merge feature",
		Snapshot:               snapshotWithParts("motor-1"),
	})
	require.NoError(t, err)

	merged, err := e.MergeMergeRequest(ctx, mr.ID, mergeCommit.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MergeRequestMerged, merged.Status)
	assert.Equal(t, mergeCommit.ID, merged.MergeCommitID)
	require.NotNil(t, merged.MergedAt)

	// Terminal: merging again is a conflict and mergedAt stays put.
	_, err = e.MergeMergeRequest(ctx, mr.ID, mergeCommit.ID)
	assert.True(t, IsConflict(err), "got %v", err)

	again, err := e.GetMergeRequest(ctx, mr.ID)
	require.NoError(t, err)
	require.NotNil(t, again.MergedAt)
	assert.True(t, merged.MergedAt.Equal(*again.MergedAt))
}

func TestCloseMergeRequest_Terminal(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := setupMergeFixture(t, e)
	mr := openMergeRequest(t, e, f)

	closed, err := e.CloseMergeRequest(ctx, mr.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MergeRequestClosed, closed.Status)

	_, err = e.CloseMergeRequest(ctx, mr.ID)
	assert.True(t, IsConflict(err), "closing twice should conflict, got %v", err)

	_, err = e.UpdateMergeRequest(ctx, mr.ID, UpdateMergeRequestParams{Title: "renamed"})
	assert.True(t, IsConflict(err), "updating terminal MR should conflict, got %v", err)
}

func TestUpdateMergeRequest_WhileOpen(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := setupMergeFixture(t, e)
	mr := openMergeRequest(t, e, f)

	updated, err := e.UpdateMergeRequest(ctx, mr.ID, UpdateMergeRequestParams{
		Title:       "Integrate feature v2",
		Description: "updated scope",
		AssignedTo:  "user-2",
	})
	require.NoError(t, err)
	assert.Equal(t, "Integrate feature v2", updated.Title)
	assert.Equal(t, "user-2", updated.AssignedTo)
	assert.Equal(t, model.MergeRequestOpen, updated.Status)
}

func TestMergeMergeRequest_CommitFromOtherRepository(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := setupMergeFixture(t, e)
	mr := openMergeRequest(t, e, f)
	other := createTestRepository(t, e, "build-2")

	_, err := e.MergeMergeRequest(ctx, mr.ID, other.RecentCommits[0].ID)
	assert.True(t, IsValidation(err), "got %v", err)
}

func TestGetMergeRequests_NewestFirst(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := setupMergeFixture(t, e)

	first := openMergeRequest(t, e, f)
	second, err := e.CreateMergeRequest(ctx, CreateMergeRequestParams{
		RepositoryID:   f.repo.ID,
		SourceBranchID: f.main.ID,
		TargetBranchID: f.feature.ID,
		Title:          "Back-merge",
		CreatedBy:      "user-2",
	})
	require.NoError(t, err)

	mrs, err := e.GetMergeRequests(ctx, f.repo.ID)
	require.NoError(t, err)
	require.Len(t, mrs, 2)
	assert.Equal(t, second.ID, mrs[0].ID)
	assert.Equal(t, first.ID, mrs[1].ID)
}
