package engine

import (
	"context"
	"strings"

	"github.com/buildforge/buildvc/internal/model"
)

// CommentAuthorizer decides whether an actor may modify or delete a
// comment. The surrounding application supplies real policy; the
// default permits only the comment's author.
type CommentAuthorizer interface {
	CanModifyComment(ctx context.Context, actorID string, c model.Comment) bool
}

type authorOnlyPolicy struct{}

func (authorOnlyPolicy) CanModifyComment(_ context.Context, actorID string, c model.Comment) bool {
	return actorID != "" && actorID == c.AuthorID
}

// AddCommentParams are the inputs to AddComment. Exactly one of
// CommitID and MergeRequestID must be set.
type AddCommentParams struct {
	RepositoryID    string
	CommitID        string
	MergeRequestID  string
	ParentCommentID string
	AuthorID        string
	Content         string
}

// AddComment attaches a comment to a commit or a merge request. When
// ParentCommentID is set, the parent must be attached to the same
// target; replies form threads that callers reconstruct from the
// chronological listing.
func (e *Engine) AddComment(ctx context.Context, p AddCommentParams) (*model.Comment, error) {
	switch {
	case p.RepositoryID == "":
		return nil, validation("repository id is required")
	case strings.TrimSpace(p.AuthorID) == "":
		return nil, validation("author id is required")
	case strings.TrimSpace(p.Content) == "":
		return nil, validation("content is required")
	case (p.CommitID == "") == (p.MergeRequestID == ""):
		return nil, validation("exactly one of commit id and merge request id must be set")
	}

	if p.CommitID != "" {
		commit, err := e.store.GetCommit(ctx, p.CommitID)
		if err != nil {
			err = mapStoreError(err, "commit not found")
			if ee, ok := err.(*Error); ok {
				ee.RepositoryID, ee.CommitID = p.RepositoryID, p.CommitID
			}
			return nil, err
		}
		if commit.RepositoryID != p.RepositoryID {
			return nil, notFound("commit not found in repository")
		}
	} else {
		mr, err := e.store.GetMergeRequest(ctx, p.MergeRequestID)
		if err != nil {
			err = mapStoreError(err, "merge request not found")
			if ee, ok := err.(*Error); ok {
				ee.RepositoryID, ee.MergeRequestID = p.RepositoryID, p.MergeRequestID
			}
			return nil, err
		}
		if mr.RepositoryID != p.RepositoryID {
			return nil, notFound("merge request not found in repository")
		}
	}

	if p.ParentCommentID != "" {
		parent, err := e.store.GetComment(ctx, p.ParentCommentID)
		if err != nil {
			return nil, mapStoreError(err, "parent comment not found")
		}
		if parent.CommitID != p.CommitID || parent.MergeRequestID != p.MergeRequestID {
			return nil, validation("parent comment is attached to a different target")
		}
	}

	comment := model.Comment{
		ID:              e.ids.NewID(),
		RepositoryID:    p.RepositoryID,
		CommitID:        p.CommitID,
		MergeRequestID:  p.MergeRequestID,
		ParentCommentID: p.ParentCommentID,
		AuthorID:        p.AuthorID,
		Content:         p.Content,
		CreatedAt:       e.clock.Now(),
	}
	if err := e.store.CreateComment(ctx, comment); err != nil {
		return nil, mapStoreError(err, "create comment")
	}
	return &comment, nil
}

// GetComments lists a repository's comments in ascending chronological
// order, optionally narrowed to one commit or merge request.
func (e *Engine) GetComments(ctx context.Context, repositoryID, commitID, mergeRequestID string) ([]model.Comment, error) {
	comments, err := e.store.ListComments(ctx, repositoryID, commitID, mergeRequestID)
	if err != nil {
		return nil, mapStoreError(err, "list comments")
	}
	return comments, nil
}

// UpdateComment rewrites a comment's content on behalf of actorID.
// Authorization goes through the configured CommentAuthorizer.
func (e *Engine) UpdateComment(ctx context.Context, id, actorID, content string) (*model.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, validation("content is required")
	}

	comment, err := e.store.GetComment(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "comment not found")
	}
	if !e.comments.CanModifyComment(ctx, actorID, comment) {
		return nil, validation("actor is not permitted to modify this comment")
	}

	if err := e.store.UpdateCommentContent(ctx, id, content); err != nil {
		return nil, mapStoreError(err, "comment not found")
	}
	comment.Content = content
	return &comment, nil
}

// DeleteComment removes a comment on behalf of actorID. Replies to the
// deleted comment are kept; their parent reference simply no longer
// resolves.
func (e *Engine) DeleteComment(ctx context.Context, id, actorID string) error {
	comment, err := e.store.GetComment(ctx, id)
	if err != nil {
		return mapStoreError(err, "comment not found")
	}
	if !e.comments.CanModifyComment(ctx, actorID, comment) {
		return validation("actor is not permitted to delete this comment")
	}
	if err := e.store.DeleteComment(ctx, id); err != nil {
		return mapStoreError(err, "comment not found")
	}
	return nil
}
