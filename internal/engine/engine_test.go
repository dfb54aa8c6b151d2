package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildforge/buildvc/internal/model"
	"github.com/buildforge/buildvc/internal/store"
	"github.com/buildforge/buildvc/internal/testutil"
)

var testEpoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithClock(testutil.NewSteppingClock(testEpoch)),
		WithIDGenerator(testutil.NewSequentialIDs("id")),
	}
	return New(setupTestStore(t), append(base, opts...)...)
}

func createTestRepository(t *testing.T, e *Engine, buildRef string) *model.RepositoryDetail {
	t.Helper()
	repo, err := e.CreateRepository(context.Background(), CreateRepositoryParams{
		BuildRef:  buildRef,
		Name:      "Test Build",
		CreatedBy: "user-1",
	})
	require.NoError(t, err)
	return repo
}

func snapshotWithParts(ids ...string) *model.Snapshot {
	snap := model.EmptySnapshot()
	for _, id := range ids {
		snap.Parts = append(snap.Parts, model.Part{"id": id})
	}
	return snap
}

func TestEngine_New_Defaults(t *testing.T) {
	e := New(setupTestStore(t))

	assert.NotNil(t, e.clock)
	assert.NotNil(t, e.ids)
	assert.NotNil(t, e.identity)
	assert.NotNil(t, e.comments)
	assert.Nil(t, e.cache)
}

func TestCreateRepository(t *testing.T) {
	e := newTestEngine(t)

	repo, err := e.CreateRepository(context.Background(), CreateRepositoryParams{
		BuildRef:    "build-42",
		Name:        "Drivetrain",
		Description: "drivetrain assembly",
		CreatedBy:   "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "build-42", repo.BuildRef)
	require.Len(t, repo.Branches, 1)
	assert.Equal(t, model.DefaultBranchName, repo.Branches[0].Name)
	assert.True(t, repo.Branches[0].IsDefault)

	require.Len(t, repo.RecentCommits, 1)
	initial := repo.RecentCommits[0]
	assert.Equal(t, InitialCommitMessage, initial.Message)
	assert.Empty(t, initial.ParentCommitID)
	assert.NotEmpty(t, initial.CommitHash)
	assert.Equal(t, initial.ID, repo.Branches[0].HeadCommitID)
}

func TestCreateRepository_DuplicateBuildRef(t *testing.T) {
	e := newTestEngine(t)
	createTestRepository(t, e, "build-1")

	_, err := e.CreateRepository(context.Background(), CreateRepositoryParams{
		BuildRef:  "build-1",
		Name:      "Another",
		CreatedBy: "user-2",
	})
	require.Error(t, err)
	assert.True(t, IsConflict(err), "duplicate build ref should be a conflict, got %v", err)
}

func TestCreateRepository_Validation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		params CreateRepositoryParams
	}{
		{"missing build ref", CreateRepositoryParams{Name: "n", CreatedBy: "u"}},
		{"missing name", CreateRepositoryParams{BuildRef: "b", CreatedBy: "u"}},
		{"missing creator", CreateRepositoryParams{BuildRef: "b", Name: "n"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.CreateRepository(ctx, tc.params)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
}

func TestCreateRepository_RejectsPartWithoutID(t *testing.T) {
	e := newTestEngine(t)

	snap := model.EmptySnapshot()
	snap.Parts = []model.Part{{"name": "bolt"}}

	_, err := e.CreateRepository(context.Background(), CreateRepositoryParams{
		BuildRef:  "build-1",
		Name:      "Test",
		CreatedBy: "user-1",
		Snapshot:  snap,
	})
	assert.True(t, IsValidation(err), "got %v", err)
}

func TestGetRepository(t *testing.T) {
	e := newTestEngine(t)
	created := createTestRepository(t, e, "build-7")

	got, err := e.GetRepository(context.Background(), "build-7")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Len(t, got.Branches, 1)
	assert.Len(t, got.RecentCommits, 1)
}

func TestGetRepository_NotFound(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.GetRepository(context.Background(), "no-such-build")
	assert.True(t, IsNotFound(err), "got %v", err)
}

func TestDeleteRepository_Cascades(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	repo := createTestRepository(t, e, "build-9")

	require.NoError(t, e.DeleteRepository(ctx, repo.ID))

	_, err := e.GetRepository(ctx, "build-9")
	assert.True(t, IsNotFound(err))
	_, err = e.GetCommit(ctx, repo.RecentCommits[0].ID)
	assert.True(t, IsNotFound(err))

	assert.True(t, IsNotFound(e.DeleteRepository(ctx, repo.ID)))
}

// Mirrors the canonical end-to-end flow: repository with initial commit,
// feature branch, commit with CAS, structural diff, tag, then a stale
// writer losing the race.
func TestEndToEndScenario(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	repo := createTestRepository(t, e, "build-b1")
	c0 := repo.RecentCommits[0]

	feature, err := e.CreateBranch(ctx, CreateBranchParams{
		RepositoryID: repo.ID,
		Name:         "feature",
		FromCommitID: c0.ID,
		CreatedBy:    "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, c0.ID, feature.HeadCommitID)

	c1, err := e.CreateCommit(ctx, CreateCommitParams{
		RepositoryID:           repo.ID,
		BranchID:               feature.ID,
		ExpectedParentCommitID: c0.ID,
		AuthorID:               "user-1",
		Message:                "Add motor",
		Snapshot:               snapshotWithParts("motor-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, c0.ID, c1.ParentCommitID)

	cs, err := e.CompareCommits(ctx, c0.ID, c1.ID)
	require.NoError(t, err)
	require.Len(t, cs.Added, 1)
	assert.Equal(t, "motor-1", cs.Added[0].StableID())
	assert.Empty(t, cs.Removed)
	assert.Empty(t, cs.Modified)

	_, err = e.CreateTag(ctx, CreateTagParams{
		RepositoryID: repo.ID,
		CommitID:     c1.ID,
		Name:         "v1",
		CreatedBy:    "user-1",
	})
	require.NoError(t, err)

	// Stale writer: still expects c0 as parent, but the head moved to c1.
	_, err = e.CreateCommit(ctx, CreateCommitParams{
		RepositoryID:           repo.ID,
		BranchID:               feature.ID,
		ExpectedParentCommitID: c0.ID,
		AuthorID:               "user-2",
		Message:                "Stale write",
		Snapshot:               snapshotWithParts("gear-1"),
	})
	require.Error(t, err)
	assert.True(t, IsConflict(err), "stale parent should be a conflict, got %v", err)
}
