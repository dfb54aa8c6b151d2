package engine

import (
	"context"
	"strings"

	"github.com/buildforge/buildvc/internal/model"
)

// CreateBranchParams are the inputs to CreateBranch. FromCommitID
// selects the starting head; empty means the repository's current
// default-branch head.
type CreateBranchParams struct {
	RepositoryID string
	Name         string
	Description  string
	FromCommitID string
	CreatedBy    string
}

// CreateBranch creates a branch pointing at an existing commit. The new
// branch shares history with its source; no commits are copied. Fails
// with CONFLICT when the name is already taken in the repository.
func (e *Engine) CreateBranch(ctx context.Context, p CreateBranchParams) (*model.Branch, error) {
	switch {
	case p.RepositoryID == "":
		return nil, validation("repository id is required")
	case strings.TrimSpace(p.Name) == "":
		return nil, validation("branch name is required")
	case strings.TrimSpace(p.CreatedBy) == "":
		return nil, validation("creator id is required")
	}

	head := p.FromCommitID
	if head == "" {
		def, err := e.store.DefaultBranch(ctx, p.RepositoryID)
		if err != nil {
			err = mapStoreError(err, "repository has no default branch")
			if ee, ok := err.(*Error); ok {
				ee.RepositoryID = p.RepositoryID
			}
			return nil, err
		}
		head = def.HeadCommitID
	} else {
		commit, err := e.store.GetCommit(ctx, head)
		if err != nil {
			err = mapStoreError(err, "source commit not found")
			if ee, ok := err.(*Error); ok {
				ee.RepositoryID, ee.CommitID = p.RepositoryID, head
			}
			return nil, err
		}
		if commit.RepositoryID != p.RepositoryID {
			return nil, &Error{
				Kind: KindValidation, Message: "source commit belongs to another repository",
				RepositoryID: p.RepositoryID, CommitID: head,
			}
		}
	}

	branch := model.Branch{
		ID:           e.ids.NewID(),
		RepositoryID: p.RepositoryID,
		Name:         p.Name,
		Description:  p.Description,
		HeadCommitID: head,
		CreatedBy:    p.CreatedBy,
		CreatedAt:    e.clock.Now(),
	}
	if err := e.store.CreateBranch(ctx, branch); err != nil {
		err = mapStoreError(err, "branch name already in use: "+p.Name)
		if ee, ok := err.(*Error); ok {
			ee.RepositoryID = p.RepositoryID
		}
		return nil, err
	}

	e.log.InfoContext(ctx, "branch created",
		"repository_id", p.RepositoryID, "branch_id", branch.ID, "name", branch.Name, "head", head)
	return &branch, nil
}

// GetBranches lists a repository's branches with their resolved head
// commits, default branch first then alphabetical. Branches with no
// commits yet carry a nil head.
func (e *Engine) GetBranches(ctx context.Context, repositoryID string) ([]model.BranchSummary, error) {
	branches, err := e.store.ListBranches(ctx, repositoryID)
	if err != nil {
		return nil, mapStoreError(err, "list branches")
	}

	summaries := make([]model.BranchSummary, 0, len(branches))
	for _, b := range branches {
		s := model.BranchSummary{Branch: b}
		if b.HeadCommitID != "" {
			head, err := e.store.GetCommit(ctx, b.HeadCommitID)
			if err != nil {
				return nil, mapStoreError(err, "resolve head of "+b.Name)
			}
			e.resolveNames(ctx, &head)
			s.Head = &head
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// SwitchBranch resolves the head state of a named branch: the branch,
// its head commit and the head snapshot. The engine keeps no notion of
// a per-caller current branch; switching is a pure read.
func (e *Engine) SwitchBranch(ctx context.Context, repositoryID, name string) (*model.BranchSummary, *model.Snapshot, error) {
	branch, err := e.store.GetBranchByName(ctx, repositoryID, name)
	if err != nil {
		err = mapStoreError(err, "branch not found: "+name)
		if ee, ok := err.(*Error); ok {
			ee.RepositoryID = repositoryID
		}
		return nil, nil, err
	}

	summary := &model.BranchSummary{Branch: branch}
	if branch.HeadCommitID == "" {
		return summary, model.EmptySnapshot(), nil
	}

	head, err := e.store.GetCommit(ctx, branch.HeadCommitID)
	if err != nil {
		return nil, nil, mapStoreError(err, "resolve head of "+name)
	}
	e.resolveNames(ctx, &head)
	summary.Head = &head

	snap, err := e.loadSnapshot(ctx, branch.HeadCommitID)
	if err != nil {
		return nil, nil, err
	}
	return summary, snap, nil
}

// DeleteBranch removes a branch. The default branch cannot be deleted.
// Commits reached through the branch are preserved; only the pointer
// goes away.
func (e *Engine) DeleteBranch(ctx context.Context, branchID string) error {
	branch, err := e.store.GetBranch(ctx, branchID)
	if err != nil {
		err = mapStoreError(err, "branch not found")
		if ee, ok := err.(*Error); ok {
			ee.BranchID = branchID
		}
		return err
	}
	if branch.IsDefault {
		return &Error{
			Kind: KindValidation, Message: "default branch cannot be deleted",
			RepositoryID: branch.RepositoryID, BranchID: branchID,
		}
	}

	if err := e.store.DeleteBranch(ctx, branchID); err != nil {
		err = mapStoreError(err, "branch not found")
		if ee, ok := err.(*Error); ok {
			ee.RepositoryID, ee.BranchID = branch.RepositoryID, branchID
		}
		return err
	}
	e.log.InfoContext(ctx, "branch deleted",
		"repository_id", branch.RepositoryID, "branch_id", branchID, "name", branch.Name)
	return nil
}
