package store

import (
	"context"
	"fmt"

	"github.com/buildforge/buildvc/internal/model"
)

// CreateComment inserts a comment row. Target validation (exactly one of
// commit / merge request, parent on the same target) happens in the
// engine before this call.
func (s *Store) CreateComment(ctx context.Context, c model.Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments
		(id, repository_id, commit_id, merge_request_id, parent_comment_id, author_id, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.RepositoryID, c.CommitID, c.MergeRequestID, c.ParentCommentID, c.AuthorID, c.Content, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create comment: %w", classify(err))
	}
	return nil
}

// GetComment retrieves a comment by id.
func (s *Store) GetComment(ctx context.Context, id string) (model.Comment, error) {
	var c model.Comment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, repository_id, commit_id, merge_request_id, parent_comment_id, author_id, content, created_at
		FROM comments WHERE id = ?
	`, id).Scan(&c.ID, &c.RepositoryID, &c.CommitID, &c.MergeRequestID, &c.ParentCommentID,
		&c.AuthorID, &c.Content, &c.CreatedAt)
	if err != nil {
		return model.Comment{}, fmt.Errorf("get comment %s: %w", id, classify(err))
	}
	return c, nil
}

// ListComments returns comments for a repository in ascending
// chronological order (rowid breaks created_at ties deterministically).
// Optional commitID / mergeRequestID narrow the listing to one target.
func (s *Store) ListComments(ctx context.Context, repositoryID, commitID, mergeRequestID string) ([]model.Comment, error) {
	query := `
		SELECT id, repository_id, commit_id, merge_request_id, parent_comment_id, author_id, content, created_at
		FROM comments
		WHERE repository_id = ?`
	args := []any{repositoryID}
	if commitID != "" {
		query += ` AND commit_id = ?`
		args = append(args, commitID)
	}
	if mergeRequestID != "" {
		query += ` AND merge_request_id = ?`
		args = append(args, mergeRequestID)
	}
	query += ` ORDER BY created_at ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", classify(err))
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.RepositoryID, &c.CommitID, &c.MergeRequestID,
			&c.ParentCommentID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("list comments: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// UpdateCommentContent rewrites a comment's content.
func (s *Store) UpdateCommentContent(ctx context.Context, id, content string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE comments SET content = ? WHERE id = ?`, content, id)
	if err != nil {
		return fmt.Errorf("update comment %s: %w", id, classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update comment %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update comment %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteComment removes a comment row.
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment %s: %w", id, classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete comment %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete comment %s: %w", id, ErrNotFound)
	}
	return nil
}
