package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildforge/buildvc/internal/model"
)

func TestAddComment_OnCommit(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	repo := createTestRepository(t, e, "build-1")
	commitID := repo.RecentCommits[0].ID

	c, err := e.AddComment(ctx, AddCommentParams{
		RepositoryID: repo.ID,
		CommitID:     commitID,
		AuthorID:     "user-1",
		Content:      "looks good",
	})
	require.NoError(t, err)
	assert.Equal(t, commitID, c.CommitID)
	assert.Empty(t, c.MergeRequestID)
}

func TestAddComment_ExactlyOneTarget(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := setupMergeFixture(t, e)
	mr := openMergeRequest(t, e, f)
	commitID := f.repo.RecentCommits[0].ID

	_, err := e.AddComment(ctx, AddCommentParams{
		RepositoryID: f.repo.ID,
		AuthorID:     "user-1",
		Content:      "no target",
	})
	assert.True(t, IsValidation(err), "got %v", err)

	_, err = e.AddComment(ctx, AddCommentParams{
		RepositoryID:   f.repo.ID,
		CommitID:       commitID,
		MergeRequestID: mr.ID,
		AuthorID:       "user-1",
		Content:        "both targets",
	})
	assert.True(t, IsValidation(err), "got %v", err)
}

func TestAddComment_ThreadParentMustShareTarget(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := setupMergeFixture(t, e)
	mr := openMergeRequest(t, e, f)
	commitID := f.repo.RecentCommits[0].ID

	root, err := e.AddComment(ctx, AddCommentParams{
		RepositoryID: f.repo.ID,
		CommitID:     commitID,
		AuthorID:     "user-1",
		Content:      "root",
	})
	require.NoError(t, err)

	reply, err := e.AddComment(ctx, AddCommentParams{
		RepositoryID:    f.repo.ID,
		CommitID:        commitID,
		ParentCommentID: root.ID,
		AuthorID:        "user-2",
		Content:         "reply",
	})
	require.NoError(t, err)
	assert.Equal(t, root.ID, reply.ParentCommentID)

	// Parent lives on the commit; attaching a reply to the MR must fail.
	_, err = e.AddComment(ctx, AddCommentParams{
		RepositoryID:    f.repo.ID,
		MergeRequestID:  mr.ID,
		ParentCommentID: root.ID,
		AuthorID:        "user-2",
		Content:         "wrong thread",
	})
	assert.True(t, IsValidation(err), "got %v", err)
}

func TestGetComments_ChronologicalAndFiltered(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	f := setupMergeFixture(t, e)
	mr := openMergeRequest(t, e, f)
	commitID := f.repo.RecentCommits[0].ID

	for _, c := range []AddCommentParams{
		{RepositoryID: f.repo.ID, CommitID: commitID, AuthorID: "user-1", Content: "first"},
		{RepositoryID: f.repo.ID, MergeRequestID: mr.ID, AuthorID: "user-2", Content: "second"},
		{RepositoryID: f.repo.ID, CommitID: commitID, AuthorID: "user-1", Content: "third"},
	} {
		_, err := e.AddComment(ctx, c)
		require.NoError(t, err)
	}

	all, err := e.GetComments(ctx, f.repo.ID, "", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Content)
	assert.Equal(t, "third", all[2].Content)

	onCommit, err := e.GetComments(ctx, f.repo.ID, commitID, "")
	require.NoError(t, err)
	require.Len(t, onCommit, 2)

	onMR, err := e.GetComments(ctx, f.repo.ID, "", mr.ID)
	require.NoError(t, err)
	require.Len(t, onMR, 1)
	assert.Equal(t, "second", onMR[0].Content)
}

func TestUpdateComment_AuthorOnly(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	repo := createTestRepository(t, e, "build-1")

	c, err := e.AddComment(ctx, AddCommentParams{
		RepositoryID: repo.ID,
		CommitID:     repo.RecentCommits[0].ID,
		AuthorID:     "user-1",
		Content:      "draft",
	})
	require.NoError(t, err)

	updated, err := e.UpdateComment(ctx, c.ID, "user-1", "final")
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)

	_, err = e.UpdateComment(ctx, c.ID, "user-2", "hijack")
	assert.True(t, IsValidation(err), "got %v", err)

	assert.True(t, IsValidation(e.DeleteComment(ctx, c.ID, "user-2")))
	require.NoError(t, e.DeleteComment(ctx, c.ID, "user-1"))
	assert.True(t, IsNotFound(e.DeleteComment(ctx, c.ID, "user-1")))
}

func TestUpdateComment_CustomAuthorizer(t *testing.T) {
	e := newTestEngine(t, WithCommentAuthorizer(allowAll{}))
	ctx := context.Background()
	repo := createTestRepository(t, e, "build-1")

	c, err := e.AddComment(ctx, AddCommentParams{
		RepositoryID: repo.ID,
		CommitID:     repo.RecentCommits[0].ID,
		AuthorID:     "user-1",
		Content:      "draft",
	})
	require.NoError(t, err)

	updated, err := e.UpdateComment(ctx, c.ID, "moderator", "moderated")
	require.NoError(t, err)
	assert.Equal(t, "moderated", updated.Content)
}

type allowAll struct{}

func (allowAll) CanModifyComment(context.Context, string, model.Comment) bool { return true }
