package engine

import (
	"context"
	"strings"

	"github.com/buildforge/buildvc/internal/model"
)

// CreateMergeRequestParams are the inputs to CreateMergeRequest.
type CreateMergeRequestParams struct {
	RepositoryID   string
	SourceBranchID string
	TargetBranchID string
	Title          string
	Description    string
	CreatedBy      string
	AssignedTo     string
}

// CreateMergeRequest opens a merge request proposing integration of the
// source branch into the target branch. Source and target must differ
// and both must belong to the repository.
func (e *Engine) CreateMergeRequest(ctx context.Context, p CreateMergeRequestParams) (*model.MergeRequest, error) {
	switch {
	case p.RepositoryID == "":
		return nil, validation("repository id is required")
	case p.SourceBranchID == "" || p.TargetBranchID == "":
		return nil, validation("source and target branch ids are required")
	case p.SourceBranchID == p.TargetBranchID:
		return nil, validation("source and target branches must differ")
	case strings.TrimSpace(p.Title) == "":
		return nil, validation("title is required")
	case strings.TrimSpace(p.CreatedBy) == "":
		return nil, validation("creator id is required")
	}

	for _, branchID := range []string{p.SourceBranchID, p.TargetBranchID} {
		branch, err := e.store.GetBranch(ctx, branchID)
		if err != nil {
			err = mapStoreError(err, "branch not found")
			if ee, ok := err.(*Error); ok {
				ee.RepositoryID, ee.BranchID = p.RepositoryID, branchID
			}
			return nil, err
		}
		if branch.RepositoryID != p.RepositoryID {
			return nil, &Error{
				Kind: KindValidation, Message: "branch belongs to another repository",
				RepositoryID: p.RepositoryID, BranchID: branchID,
			}
		}
	}

	mr := model.MergeRequest{
		ID:             e.ids.NewID(),
		RepositoryID:   p.RepositoryID,
		SourceBranchID: p.SourceBranchID,
		TargetBranchID: p.TargetBranchID,
		Title:          p.Title,
		Description:    p.Description,
		Status:         model.MergeRequestOpen,
		CreatedBy:      p.CreatedBy,
		AssignedTo:     p.AssignedTo,
		CreatedAt:      e.clock.Now(),
	}
	if err := e.store.CreateMergeRequest(ctx, mr); err != nil {
		return nil, mapStoreError(err, "create merge request")
	}

	e.log.InfoContext(ctx, "merge request opened",
		"repository_id", p.RepositoryID, "merge_request_id", mr.ID,
		"source_branch_id", p.SourceBranchID, "target_branch_id", p.TargetBranchID)
	return &mr, nil
}

// GetMergeRequest retrieves a merge request by id.
func (e *Engine) GetMergeRequest(ctx context.Context, id string) (*model.MergeRequest, error) {
	mr, err := e.store.GetMergeRequest(ctx, id)
	if err != nil {
		err = mapStoreError(err, "merge request not found")
		if ee, ok := err.(*Error); ok {
			ee.MergeRequestID = id
		}
		return nil, err
	}
	return &mr, nil
}

// GetMergeRequests lists a repository's merge requests, newest first.
func (e *Engine) GetMergeRequests(ctx context.Context, repositoryID string) ([]model.MergeRequest, error) {
	mrs, err := e.store.ListMergeRequests(ctx, repositoryID)
	if err != nil {
		return nil, mapStoreError(err, "list merge requests")
	}
	return mrs, nil
}

// UpdateMergeRequestParams carry the mutable fields of an open merge
// request. All three are rewritten as given.
type UpdateMergeRequestParams struct {
	Title       string
	Description string
	AssignedTo  string
}

// UpdateMergeRequest rewrites an open merge request's mutable fields.
// Fails with CONFLICT once the merge request is merged or closed.
func (e *Engine) UpdateMergeRequest(ctx context.Context, id string, p UpdateMergeRequestParams) (*model.MergeRequest, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, validation("title is required")
	}
	if err := e.store.UpdateMergeRequest(ctx, id, p.Title, p.Description, p.AssignedTo); err != nil {
		err = mapStoreError(err, "merge request is not open")
		if ee, ok := err.(*Error); ok {
			ee.MergeRequestID = id
		}
		return nil, err
	}
	return e.GetMergeRequest(ctx, id)
}

// MergeMergeRequest transitions an open merge request to merged,
// recording the merge commit and timestamp in one atomic step. The
// engine never fabricates the merge commit itself: the caller supplies
// one it already created on the target branch through CreateCommit.
// Calling this on a terminal merge request fails with CONFLICT and
// leaves the original mergedAt untouched.
func (e *Engine) MergeMergeRequest(ctx context.Context, id, mergeCommitID string) (*model.MergeRequest, error) {
	if mergeCommitID == "" {
		return nil, validation("merge commit id is required")
	}

	mr, err := e.GetMergeRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	commit, err := e.store.GetCommit(ctx, mergeCommitID)
	if err != nil {
		err = mapStoreError(err, "merge commit not found")
		if ee, ok := err.(*Error); ok {
			ee.MergeRequestID, ee.CommitID = id, mergeCommitID
		}
		return nil, err
	}
	if commit.RepositoryID != mr.RepositoryID {
		return nil, &Error{
			Kind: KindValidation, Message: "merge commit belongs to another repository",
			RepositoryID: mr.RepositoryID, MergeRequestID: id, CommitID: mergeCommitID,
		}
	}

	if err := e.store.MergeMergeRequest(ctx, id, mergeCommitID, e.clock.Now()); err != nil {
		err = mapStoreError(err, "merge request is not open")
		if ee, ok := err.(*Error); ok {
			ee.MergeRequestID = id
		}
		return nil, err
	}

	e.log.InfoContext(ctx, "merge request merged",
		"merge_request_id", id, "merge_commit_id", mergeCommitID)
	return e.GetMergeRequest(ctx, id)
}

// CloseMergeRequest transitions an open merge request to closed without
// merging. Fails with CONFLICT on an already-terminal merge request.
func (e *Engine) CloseMergeRequest(ctx context.Context, id string) (*model.MergeRequest, error) {
	if err := e.store.CloseMergeRequest(ctx, id); err != nil {
		err = mapStoreError(err, "merge request is not open")
		if ee, ok := err.(*Error); ok {
			ee.MergeRequestID = id
		}
		return nil, err
	}
	e.log.InfoContext(ctx, "merge request closed", "merge_request_id", id)
	return e.GetMergeRequest(ctx, id)
}
