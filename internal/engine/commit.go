package engine

import (
	"context"
	"strings"

	"github.com/buildforge/buildvc/internal/canon"
	"github.com/buildforge/buildvc/internal/model"
)

// defaultHistoryLimit applies when callers pass a non-positive limit.
const defaultHistoryLimit = 50

// CreateCommitParams are the inputs to CreateCommit.
//
// ExpectedParentCommitID is the commit the caller based its snapshot on:
// the branch head it observed. Empty means the caller expects an empty
// branch. CommitterID defaults to AuthorID.
type CreateCommitParams struct {
	RepositoryID           string
	BranchID               string
	ExpectedParentCommitID string
	AuthorID               string
	CommitterID            string
	Message                string
	Snapshot               *model.Snapshot
}

// CreateCommit appends a commit to a branch using compare-and-swap head
// semantics: the write succeeds only if the branch head still equals
// ExpectedParentCommitID, otherwise it fails with CONFLICT and no
// partial state. This is the only way a branch head ever advances.
//
// On CONFLICT the caller is expected to reload the head, recompute its
// snapshot against the new state and resubmit; the engine enforces no
// retry policy.
func (e *Engine) CreateCommit(ctx context.Context, p CreateCommitParams) (*model.Commit, error) {
	switch {
	case p.RepositoryID == "":
		return nil, validation("repository id is required")
	case p.BranchID == "":
		return nil, validation("branch id is required")
	case strings.TrimSpace(p.AuthorID) == "":
		return nil, validation("author id is required")
	case strings.TrimSpace(p.Message) == "":
		return nil, validation("commit message is required")
	}
	if err := validateSnapshotShape(p.Snapshot); err != nil {
		return nil, err
	}
	if p.CommitterID == "" {
		p.CommitterID = p.AuthorID
	}

	branch, err := e.store.GetBranch(ctx, p.BranchID)
	if err != nil {
		err = mapStoreError(err, "branch not found")
		if ee, ok := err.(*Error); ok {
			ee.RepositoryID, ee.BranchID = p.RepositoryID, p.BranchID
		}
		return nil, err
	}
	if branch.RepositoryID != p.RepositoryID {
		return nil, &Error{
			Kind: KindValidation, Message: "branch belongs to another repository",
			RepositoryID: p.RepositoryID, BranchID: p.BranchID,
		}
	}

	// The commit hash chains on the parent's hash. Resolving the parent
	// also rejects cross-repository ancestry before the store is touched.
	parentHash := ""
	if p.ExpectedParentCommitID != "" {
		parent, err := e.store.GetCommit(ctx, p.ExpectedParentCommitID)
		if err != nil {
			err = mapStoreError(err, "parent commit not found")
			if ee, ok := err.(*Error); ok {
				ee.RepositoryID, ee.CommitID = p.RepositoryID, p.ExpectedParentCommitID
			}
			return nil, err
		}
		if parent.RepositoryID != p.RepositoryID {
			return nil, &Error{
				Kind: KindValidation, Message: "parent commit belongs to another repository",
				RepositoryID: p.RepositoryID, CommitID: p.ExpectedParentCommitID,
			}
		}
		parentHash = parent.CommitHash
	}

	commitID := e.ids.NewID()
	rec, canonical, err := snapshotRecord(commitID, p.Snapshot)
	if err != nil {
		return nil, err
	}

	commit := model.Commit{
		ID:             commitID,
		RepositoryID:   p.RepositoryID,
		BranchID:       p.BranchID,
		ParentCommitID: p.ExpectedParentCommitID,
		CommitHash:     canon.CommitHash(parentHash, p.Message, canonical),
		AuthorID:       p.AuthorID,
		CommitterID:    p.CommitterID,
		Message:        p.Message,
		CreatedAt:      e.clock.Now(),
	}

	if err := e.store.CreateCommitCAS(ctx, commit, rec, p.ExpectedParentCommitID); err != nil {
		err = mapStoreError(err, "branch head moved")
		if ee, ok := err.(*Error); ok {
			ee.RepositoryID, ee.BranchID, ee.CommitID = p.RepositoryID, p.BranchID, p.ExpectedParentCommitID
		}
		return nil, err
	}

	if e.cache != nil {
		e.cache.Set(ctx, commit.ID, p.Snapshot)
	}
	e.log.DebugContext(ctx, "commit created",
		"repository_id", p.RepositoryID, "branch_id", p.BranchID,
		"commit_id", commit.ID, "parent", p.ExpectedParentCommitID)

	return &commit, nil
}

// GetCommitHistory walks a branch's ancestry chain from its head,
// newest first, collecting up to limit commits. The walk is an explicit
// loop; chains of any length never recurse. A branch with no commits
// yields an empty list.
func (e *Engine) GetCommitHistory(ctx context.Context, repositoryID, branchName string, limit int) ([]model.Commit, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	branch, err := e.store.GetBranchByName(ctx, repositoryID, branchName)
	if err != nil {
		err = mapStoreError(err, "branch not found: "+branchName)
		if ee, ok := err.(*Error); ok {
			ee.RepositoryID = repositoryID
		}
		return nil, err
	}

	commits := []model.Commit{}
	current := branch.HeadCommitID
	for current != "" && len(commits) < limit {
		c, err := e.store.GetCommit(ctx, current)
		if err != nil {
			// A broken link mid-chain should not happen; stop the walk
			// rather than failing the whole listing.
			if IsNotFound(mapStoreError(err, "")) {
				break
			}
			return nil, mapStoreError(err, "walk history")
		}
		e.resolveNames(ctx, &c)
		commits = append(commits, c)
		current = c.ParentCommitID
	}
	return commits, nil
}

// GetCommit returns full commit detail: the commit, its snapshot and
// resolved author/committer display names.
func (e *Engine) GetCommit(ctx context.Context, id string) (*model.CommitDetail, error) {
	commit, err := e.store.GetCommit(ctx, id)
	if err != nil {
		err = mapStoreError(err, "commit not found")
		if ee, ok := err.(*Error); ok {
			ee.CommitID = id
		}
		return nil, err
	}
	e.resolveNames(ctx, &commit)

	snap, err := e.loadSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.CommitDetail{Commit: commit, Snapshot: snap}, nil
}

func (e *Engine) resolveNames(ctx context.Context, c *model.Commit) {
	c.AuthorName = e.identity.DisplayName(ctx, c.AuthorID)
	c.CommitterName = e.identity.DisplayName(ctx, c.CommitterID)
}
