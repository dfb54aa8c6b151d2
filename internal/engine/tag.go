package engine

import (
	"context"
	"strings"

	"github.com/buildforge/buildvc/internal/model"
)

// CreateTagParams are the inputs to CreateTag.
type CreateTagParams struct {
	RepositoryID string
	CommitID     string
	Name         string
	Description  string
	CreatedBy    string
}

// CreateTag pins a name to a commit. Names are unique per repository
// (CONFLICT otherwise) and the commit must live in the same repository.
// Tags are immutable; there is no update operation.
func (e *Engine) CreateTag(ctx context.Context, p CreateTagParams) (*model.Tag, error) {
	switch {
	case p.RepositoryID == "":
		return nil, validation("repository id is required")
	case p.CommitID == "":
		return nil, validation("commit id is required")
	case strings.TrimSpace(p.Name) == "":
		return nil, validation("tag name is required")
	case strings.TrimSpace(p.CreatedBy) == "":
		return nil, validation("creator id is required")
	}

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

	tag := model.Tag{
		ID:           e.ids.NewID(),
		RepositoryID: p.RepositoryID,
		CommitID:     p.CommitID,
		Name:         p.Name,
		Description:  p.Description,
		CreatedBy:    p.CreatedBy,
		CreatedAt:    e.clock.Now(),
	}
	if err := e.store.CreateTag(ctx, tag); err != nil {
		err = mapStoreError(err, "tag name already in use: "+p.Name)
		if ee, ok := err.(*Error); ok {
			ee.RepositoryID = p.RepositoryID
		}
		return nil, err
	}

	e.log.InfoContext(ctx, "tag created",
		"repository_id", p.RepositoryID, "tag_id", tag.ID, "name", tag.Name, "commit_id", p.CommitID)
	return &tag, nil
}

// GetTags lists a repository's tags, alphabetical by name.
func (e *Engine) GetTags(ctx context.Context, repositoryID string) ([]model.Tag, error) {
	tags, err := e.store.ListTags(ctx, repositoryID)
	if err != nil {
		return nil, mapStoreError(err, "list tags")
	}
	return tags, nil
}

// DeleteTag removes a tag. Pure metadata removal: the referenced commit
// and every branch head are untouched.
func (e *Engine) DeleteTag(ctx context.Context, id string) error {
	if err := e.store.DeleteTag(ctx, id); err != nil {
		return mapStoreError(err, "tag not found")
	}
	return nil
}
