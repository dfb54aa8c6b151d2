package engine

import (
	"context"
	"strings"

	"github.com/buildforge/buildvc/internal/canon"
	"github.com/buildforge/buildvc/internal/model"
)

// InitialCommitMessage is the message of the commit created with every
// new repository.
const InitialCommitMessage = "Initial commit"

// recentCommitLimit bounds the commit list attached to GetRepository
// responses. Full history paging goes through GetCommitHistory.
const recentCommitLimit = 20

// CreateRepositoryParams are the inputs to CreateRepository.
// Snapshot is optional; nil means an empty initial build state.
type CreateRepositoryParams struct {
	BuildRef    string
	Name        string
	Description string
	CreatedBy   string
	Snapshot    *model.Snapshot
}

// CreateRepository creates a repository, its default "main" branch and
// the initial commit (parent = none) in one transaction. Creation is
// strict: if the build ref already has a repository the call fails with
// CONFLICT rather than returning the existing one, so callers can
// distinguish "created" from "already there" without side effects.
func (e *Engine) CreateRepository(ctx context.Context, p CreateRepositoryParams) (*model.RepositoryDetail, error) {
	switch {
	case strings.TrimSpace(p.BuildRef) == "":
		return nil, validation("build ref is required")
	case strings.TrimSpace(p.Name) == "":
		return nil, validation("repository name is required")
	case strings.TrimSpace(p.CreatedBy) == "":
		return nil, validation("creator id is required")
	}

	snap := p.Snapshot
	if snap == nil {
		snap = model.EmptySnapshot()
	}
	if err := validateSnapshotShape(snap); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	repo := model.Repository{
		ID:          e.ids.NewID(),
		BuildRef:    p.BuildRef,
		Name:        p.Name,
		Description: p.Description,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   now,
	}
	branch := model.Branch{
		ID:           e.ids.NewID(),
		RepositoryID: repo.ID,
		Name:         model.DefaultBranchName,
		IsDefault:    true,
		CreatedBy:    p.CreatedBy,
		CreatedAt:    now,
	}

	commitID := e.ids.NewID()
	rec, canonical, err := snapshotRecord(commitID, snap)
	if err != nil {
		return nil, err
	}
	commit := model.Commit{
		ID:           commitID,
		RepositoryID: repo.ID,
		BranchID:     branch.ID,
		CommitHash:   canon.CommitHash("", InitialCommitMessage, canonical),
		AuthorID:     p.CreatedBy,
		CommitterID:  p.CreatedBy,
		Message:      InitialCommitMessage,
		CreatedAt:    now,
	}

	if err := e.store.CreateRepository(ctx, repo, branch, commit, rec); err != nil {
		err = mapStoreError(err, "repository already exists for build")
		if ee, ok := err.(*Error); ok {
			ee.RepositoryID = repo.ID
		}
		return nil, err
	}

	branch.HeadCommitID = commit.ID
	e.log.InfoContext(ctx, "repository created",
		"repository_id", repo.ID, "build_ref", repo.BuildRef, "initial_commit", commit.ID)

	return &model.RepositoryDetail{
		Repository:    repo,
		Branches:      []model.Branch{branch},
		RecentCommits: []model.Commit{commit},
	}, nil
}

// GetRepository resolves the repository versioning the given build,
// with its branches and recent commits (newest first).
func (e *Engine) GetRepository(ctx context.Context, buildRef string) (*model.RepositoryDetail, error) {
	repo, err := e.store.GetRepositoryByBuildRef(ctx, buildRef)
	if err != nil {
		return nil, mapStoreError(err, "no repository for build "+buildRef)
	}

	branches, err := e.store.ListBranches(ctx, repo.ID)
	if err != nil {
		return nil, mapStoreError(err, "list branches")
	}
	commits, err := e.store.ListRecentCommits(ctx, repo.ID, recentCommitLimit)
	if err != nil {
		return nil, mapStoreError(err, "list recent commits")
	}
	for i := range commits {
		e.resolveNames(ctx, &commits[i])
	}

	return &model.RepositoryDetail{
		Repository:    repo,
		Branches:      branches,
		RecentCommits: commits,
	}, nil
}

// DeleteRepository removes a repository and everything it owns:
// branches, commits, snapshots, tags, merge requests, comments.
func (e *Engine) DeleteRepository(ctx context.Context, id string) error {
	if err := e.store.DeleteRepository(ctx, id); err != nil {
		err = mapStoreError(err, "repository not found")
		if ee, ok := err.(*Error); ok {
			ee.RepositoryID = id
		}
		return err
	}
	e.log.InfoContext(ctx, "repository deleted", "repository_id", id)
	return nil
}
