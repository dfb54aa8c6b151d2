package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/buildforge/buildvc/internal/model"
)

// CreateBranch inserts a branch row.
// Returns ErrDuplicateName if the name is taken within the repository.
func (s *Store) CreateBranch(ctx context.Context, b model.Branch) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := insertBranchTx(ctx, tx, b); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create branch: commit tx: %w", classify(err))
	}
	return nil
}

func insertBranchTx(ctx context.Context, tx *sql.Tx, b model.Branch) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO branches
		(id, repository_id, name, description, is_default, head_commit_id, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.RepositoryID, b.Name, b.Description, b.IsDefault, b.HeadCommitID, b.CreatedBy, b.CreatedAt)
	if err != nil {
		return classify(err)
	}
	return nil
}

// GetBranch retrieves a branch by id.
func (s *Store) GetBranch(ctx context.Context, id string) (model.Branch, error) {
	row := s.db.QueryRowContext(ctx, branchSelect+` WHERE id = ?`, id)
	b, err := scanBranchRow(row)
	if err != nil {
		return model.Branch{}, fmt.Errorf("get branch %s: %w", id, err)
	}
	return b, nil
}

// GetBranchByName retrieves a branch by repository-scoped name.
func (s *Store) GetBranchByName(ctx context.Context, repositoryID, name string) (model.Branch, error) {
	row := s.db.QueryRowContext(ctx, branchSelect+` WHERE repository_id = ? AND name = ?`, repositoryID, name)
	b, err := scanBranchRow(row)
	if err != nil {
		return model.Branch{}, fmt.Errorf("get branch %s/%s: %w", repositoryID, name, err)
	}
	return b, nil
}

// DefaultBranch retrieves the repository's single default branch.
func (s *Store) DefaultBranch(ctx context.Context, repositoryID string) (model.Branch, error) {
	row := s.db.QueryRowContext(ctx, branchSelect+` WHERE repository_id = ? AND is_default`, repositoryID)
	b, err := scanBranchRow(row)
	if err != nil {
		return model.Branch{}, fmt.Errorf("default branch of %s: %w", repositoryID, err)
	}
	return b, nil
}

// ListBranches returns a repository's branches, default branch first,
// then alphabetical.
func (s *Store) ListBranches(ctx context.Context, repositoryID string) ([]model.Branch, error) {
	rows, err := s.db.QueryContext(ctx, branchSelect+`
		WHERE repository_id = ?
		ORDER BY is_default DESC, name ASC
	`, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", classify(err))
	}
	defer rows.Close()

	branches := []model.Branch{}
	for rows.Next() {
		var b model.Branch
		if err := rows.Scan(&b.ID, &b.RepositoryID, &b.Name, &b.Description, &b.IsDefault,
			&b.HeadCommitID, &b.CreatedBy, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("list branches: %w", err)
		}
		branches = append(branches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return branches, nil
}

// DeleteBranch removes a branch row. Commits created on the branch are
// kept. Returns ErrNotFound for unknown ids.
func (s *Store) DeleteBranch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM branches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete branch %s: %w", id, classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete branch %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete branch %s: %w", id, ErrNotFound)
	}
	return nil
}

const branchSelect = `
	SELECT id, repository_id, name, description, is_default, head_commit_id, created_by, created_at
	FROM branches`

func scanBranchRow(row *sql.Row) (model.Branch, error) {
	var b model.Branch
	err := row.Scan(&b.ID, &b.RepositoryID, &b.Name, &b.Description, &b.IsDefault,
		&b.HeadCommitID, &b.CreatedBy, &b.CreatedAt)
	if err != nil {
		return model.Branch{}, classify(err)
	}
	return b, nil
}
