package store

import (
	"context"
	"fmt"

	"github.com/buildforge/buildvc/internal/model"
)

// CreateTag inserts a tag row.
// Returns ErrDuplicateName if the name is taken within the repository.
func (s *Store) CreateTag(ctx context.Context, t model.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, repository_id, commit_id, name, description, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.RepositoryID, t.CommitID, t.Name, t.Description, t.CreatedBy, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create tag: %w", classify(err))
	}
	return nil
}

// GetTag retrieves a tag by id.
func (s *Store) GetTag(ctx context.Context, id string) (model.Tag, error) {
	var t model.Tag
	err := s.db.QueryRowContext(ctx, `
		SELECT id, repository_id, commit_id, name, description, created_by, created_at
		FROM tags WHERE id = ?
	`, id).Scan(&t.ID, &t.RepositoryID, &t.CommitID, &t.Name, &t.Description, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return model.Tag{}, fmt.Errorf("get tag %s: %w", id, classify(err))
	}
	return t, nil
}

// ListTags returns a repository's tags in name order.
func (s *Store) ListTags(ctx context.Context, repositoryID string) ([]model.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, repository_id, commit_id, name, description, created_by, created_at
		FROM tags
		WHERE repository_id = ?
		ORDER BY name ASC
	`, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", classify(err))
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.RepositoryID, &t.CommitID, &t.Name, &t.Description, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// DeleteTag removes a tag row. Pure metadata removal: the referenced
// commit and all branch heads are untouched.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag %s: %w", id, classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete tag %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete tag %s: %w", id, ErrNotFound)
	}
	return nil
}
