package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildforge/buildvc/internal/model"
)

func TestCreateCommit_AdvancesHead(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	repo := createTestRepository(t, e, "build-1")
	branch := repo.Branches[0]
	c0 := repo.RecentCommits[0]

	c1, err := e.CreateCommit(ctx, CreateCommitParams{
		RepositoryID:           repo.ID,
		BranchID:               branch.ID,
		ExpectedParentCommitID: c0.ID,
		AuthorID:               "user-1",
		Message:                "Add frame",
		Snapshot:               snapshotWithParts("frame-1"),
	})
	require.NoError(t, err)

	summary, snap, err := e.SwitchBranch(ctx, repo.ID, branch.Name)
	require.NoError(t, err)
	require.NotNil(t, summary.Head)
	assert.Equal(t, c1.ID, summary.Head.ID)
	require.Len(t, snap.Parts, 1)
	assert.Equal(t, "frame-1", snap.Parts[0].StableID())
}

func TestCreateCommit_HashChainsOnParent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	repo := createTestRepository(t, e, "build-1")
	branch := repo.Branches[0]
	c0 := repo.RecentCommits[0]

	c1, err := e.CreateCommit(ctx, CreateCommitParams{
		RepositoryID:           repo.ID,
		BranchID:               branch.ID,
		ExpectedParentCommitID: c0.ID,
		AuthorID:               "user-1",
		Message:                "Same message",
		Snapshot:               snapshotWithParts("part-1"),
	})
	require.NoError(t, err)

	c2, err := e.CreateCommit(ctx, CreateCommitParams{
		RepositoryID:           repo.ID,
		BranchID:               branch.ID,
		ExpectedParentCommitID: c1.ID,
		AuthorID:               "user-1",
		Message:                "Same message",
		Snapshot:               snapshotWithParts("part-1"),
	})
	require.NoError(t, err)

	// Identical message and snapshot, different parent: the hash differs
	// because it chains on the parent's hash.
	assert.NotEqual(t, c1.CommitHash, c2.CommitHash)
}

func TestCreateCommit_CommitterDefaultsToAuthor(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	repo := createTestRepository(t, e, "build-1")

	c, err := e.CreateCommit(ctx, CreateCommitParams{
		RepositoryID:           repo.ID,
		BranchID:               repo.Branches[0].ID,
		ExpectedParentCommitID: repo.RecentCommits[0].ID,
		AuthorID:               "user-1",
		Message:                "m",
		Snapshot:               model.EmptySnapshot(),
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.CommitterID)
}

func TestCreateCommit_CrossRepositoryParent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	repoA := createTestRepository(t, e, "build-a")
	repoB := createTestRepository(t, e, "build-b")

	_, err := e.CreateCommit(ctx, CreateCommitParams{
		RepositoryID:           repoA.ID,
		BranchID:               repoA.Branches[0].ID,
		ExpectedParentCommitID: repoB.RecentCommits[0].ID,
		AuthorID:               "user-1",
		Message:                "cross",
		Snapshot:               model.EmptySnapshot(),
	})
	assert.True(t, IsValidation(err), "got %v", err)
}

func TestCreateCommit_BranchFromOtherRepository(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	repoA := createTestRepository(t, e, "build-a")
	repoB := createTestRepository(t, e, "build-b")

	_, err := e.CreateCommit(ctx, CreateCommitParams{
		RepositoryID:           repoA.ID,
		BranchID:               repoB.Branches[0].ID,
		ExpectedParentCommitID: repoA.RecentCommits[0].ID,
		AuthorID:               "user-1",
		Message:                "cross",
		Snapshot:               model.EmptySnapshot(),
	})
	assert.True(t, IsValidation(err), "got %v", err)
}

// Two writers race with the same expected parent: exactly one commit
// lands, the other observes a conflict, and the branch head points at
// the winner.
func TestCreateCommit_ConcurrentSingleWinner(t *testing.T) {
	e := New(setupTestStore(t), WithClock(systemClock{}))
	ctx := context.Background()
	repo := createTestRepository(t, e, "build-race")
	branch := repo.Branches[0]
	c0 := repo.RecentCommits[0]

	const writers = 8
	var wg sync.WaitGroup
	wg.Add(writers)
	results := make([]error, writers)
	commits := make([]*model.Commit, writers)

	for i := 0; i < writers; i++ {
		go func(idx int) {
			defer wg.Done()
			c, err := e.CreateCommit(ctx, CreateCommitParams{
				RepositoryID:           repo.ID,
				BranchID:               branch.ID,
				ExpectedParentCommitID: c0.ID,
				AuthorID:               fmt.Sprintf("user-%d", idx),
				Message:                fmt.Sprintf("attempt %d", idx),
				Snapshot:               snapshotWithParts(fmt.Sprintf("part-%d", idx)),
			})
			commits[idx], results[idx] = c, err
		}(i)
	}
	wg.Wait()

	var winner *model.Commit
	wins := 0
	for i, err := range results {
		if err == nil {
			wins++
			winner = commits[i]
			continue
		}
		assert.True(t, IsConflict(err) || IsRetryable(err),
			"loser %d should see conflict or retryable, got %v", i, err)
	}
	require.Equal(t, 1, wins, "exactly one writer must win")

	head, err := e.store.GetBranch(ctx, branch.ID)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, head.HeadCommitID)
}

func TestGetCommitHistory_WalksNewestFirst(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	repo := createTestRepository(t, e, "build-1")
	branch := repo.Branches[0]

	parent := repo.RecentCommits[0].ID
	ids := []string{parent}
	for i := 1; i <= 4; i++ {
		c, err := e.CreateCommit(ctx, CreateCommitParams{
			RepositoryID:           repo.ID,
			BranchID:               branch.ID,
			ExpectedParentCommitID: parent,
			AuthorID:               "user-1",
			Message:                fmt.Sprintf("commit %d", i),
			Snapshot:               snapshotWithParts(fmt.Sprintf("part-%d", i)),
		})
		require.NoError(t, err)
		parent = c.ID
		ids = append(ids, c.ID)
	}

	history, err := e.GetCommitHistory(ctx, repo.ID, branch.Name, 0)
	require.NoError(t, err)
	require.Len(t, history, 5)
	for i := range history {
		assert.Equal(t, ids[len(ids)-1-i], history[i].ID)
	}

	limited, err := e.GetCommitHistory(ctx, repo.ID, branch.Name, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, ids[4], limited[0].ID)
	assert.Equal(t, ids[3], limited[1].ID)
}

func TestGetCommitHistory_UnknownBranch(t *testing.T) {
	e := newTestEngine(t)
	repo := createTestRepository(t, e, "build-1")

	_, err := e.GetCommitHistory(context.Background(), repo.ID, "nope", 0)
	assert.True(t, IsNotFound(err), "got %v", err)
}

func TestGetCommit_Detail(t *testing.T) {
	resolver := staticIdentity{"user-1": "Ada"}
	e := newTestEngine(t, WithIdentityResolver(resolver))
	ctx := context.Background()
	repo := createTestRepository(t, e, "build-1")

	detail, err := e.GetCommit(ctx, repo.RecentCommits[0].ID)
	require.NoError(t, err)
	assert.Equal(t, InitialCommitMessage, detail.Message)
	assert.Equal(t, "Ada", detail.AuthorName)
	require.NotNil(t, detail.Snapshot)
	assert.Empty(t, detail.Snapshot.Parts)
}

type staticIdentity map[string]string

func (m staticIdentity) DisplayName(_ context.Context, id string) string { return m[id] }
