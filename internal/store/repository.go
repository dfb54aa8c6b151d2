package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/buildforge/buildvc/internal/model"
)

// CreateRepository inserts a repository together with its default branch,
// initial commit and snapshot in one transaction. Either all four rows
// become visible or none do.
//
// Returns ErrDuplicateName if the build ref already has a repository.
func (s *Store) CreateRepository(ctx context.Context, repo model.Repository, branch model.Branch, commit model.Commit, snap SnapshotRecord) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return fmt.Errorf("create repository: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO repositories (id, build_ref, name, description, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, repo.ID, repo.BuildRef, repo.Name, repo.Description, repo.CreatedBy, repo.CreatedAt)
	if err != nil {
		return fmt.Errorf("create repository: %w", classify(err))
	}

	if err := insertBranchTx(ctx, tx, branch); err != nil {
		return fmt.Errorf("create repository: %w", err)
	}

	if err := insertCommitTx(ctx, tx, commit); err != nil {
		return fmt.Errorf("create repository: %w", err)
	}

	if err := insertSnapshotTx(ctx, tx, snap); err != nil {
		return fmt.Errorf("create repository: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE branches SET head_commit_id = ? WHERE id = ?
	`, commit.ID, branch.ID)
	if err != nil {
		return fmt.Errorf("create repository: set head: %w", classify(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create repository: commit tx: %w", classify(err))
	}
	return nil
}

// GetRepository retrieves a repository by id.
func (s *Store) GetRepository(ctx context.Context, id string) (model.Repository, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, build_ref, name, description, created_by, created_at
		FROM repositories WHERE id = ?
	`, id)
	return scanRepository(row, id)
}

// GetRepositoryByBuildRef retrieves the repository versioning a build.
func (s *Store) GetRepositoryByBuildRef(ctx context.Context, buildRef string) (model.Repository, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, build_ref, name, description, created_by, created_at
		FROM repositories WHERE build_ref = ?
	`, buildRef)
	return scanRepository(row, buildRef)
}

func scanRepository(row *sql.Row, key string) (model.Repository, error) {
	var r model.Repository
	err := row.Scan(&r.ID, &r.BuildRef, &r.Name, &r.Description, &r.CreatedBy, &r.CreatedAt)
	if err != nil {
		return model.Repository{}, fmt.Errorf("get repository %s: %w", key, classify(err))
	}
	return r, nil
}

// DeleteRepository removes a repository; foreign keys cascade the delete
// to branches, commits, snapshots, tags, merge requests and comments.
func (s *Store) DeleteRepository(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM repositories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete repository %s: %w", id, classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete repository %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete repository %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListRecentCommits returns a repository's newest commits across all
// branches, newest first.
func (s *Store) ListRecentCommits(ctx context.Context, repositoryID string, limit int) ([]model.Commit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, repository_id, branch_id, parent_commit_id, commit_hash,
		       author_id, committer_id, message, created_at
		FROM commits
		WHERE repository_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, repositoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent commits: %w", classify(err))
	}
	defer rows.Close()

	commits := []model.Commit{}
	for rows.Next() {
		c, err := scanCommitRows(rows)
		if err != nil {
			return nil, fmt.Errorf("list recent commits: %w", err)
		}
		commits = append(commits, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recent commits: %w", err)
	}
	return commits, nil
}
