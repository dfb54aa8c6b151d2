package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/buildforge/buildvc/internal/model"
)

// CreateMergeRequest inserts a merge request row in the open state.
func (s *Store) CreateMergeRequest(ctx context.Context, mr model.MergeRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO merge_requests
		(id, repository_id, source_branch_id, target_branch_id, title, description, status, created_by, assigned_to, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, mr.ID, mr.RepositoryID, mr.SourceBranchID, mr.TargetBranchID, mr.Title, mr.Description,
		string(mr.Status), mr.CreatedBy, mr.AssignedTo, mr.CreatedAt)
	if err != nil {
		return fmt.Errorf("create merge request: %w", classify(err))
	}
	return nil
}

// GetMergeRequest retrieves a merge request by id.
func (s *Store) GetMergeRequest(ctx context.Context, id string) (model.MergeRequest, error) {
	row := s.db.QueryRowContext(ctx, mergeRequestSelect+` WHERE id = ?`, id)

	mr, err := scanMergeRequest(row.Scan)
	if err != nil {
		return model.MergeRequest{}, fmt.Errorf("get merge request %s: %w", id, classify(err))
	}
	return mr, nil
}

// ListMergeRequests returns a repository's merge requests, newest first.
func (s *Store) ListMergeRequests(ctx context.Context, repositoryID string) ([]model.MergeRequest, error) {
	rows, err := s.db.QueryContext(ctx, mergeRequestSelect+`
		WHERE repository_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("list merge requests: %w", classify(err))
	}
	defer rows.Close()

	mrs := []model.MergeRequest{}
	for rows.Next() {
		mr, err := scanMergeRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list merge requests: %w", err)
		}
		mrs = append(mrs, mr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list merge requests: %w", err)
	}
	return mrs, nil
}

// UpdateMergeRequest rewrites the mutable fields of an open merge
// request. Returns ErrTerminalState when the merge request has already
// been merged or closed.
func (s *Store) UpdateMergeRequest(ctx context.Context, id, title, description, assignedTo string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE merge_requests SET title = ?, description = ?, assigned_to = ?
		WHERE id = ? AND status = 'open'
	`, title, description, assignedTo, id)
	if err != nil {
		return fmt.Errorf("update merge request %s: %w", id, classify(err))
	}
	return s.explainConditionalMiss(ctx, res, id, "update merge request")
}

// MergeMergeRequest transitions an open merge request to merged, setting
// the merge commit and timestamp atomically. A terminal merge request is
// left untouched and reported as ErrTerminalState, so mergedAt is never
// applied twice.
func (s *Store) MergeMergeRequest(ctx context.Context, id, mergeCommitID string, mergedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE merge_requests SET status = 'merged', merge_commit_id = ?, merged_at = ?
		WHERE id = ? AND status = 'open'
	`, mergeCommitID, mergedAt, id)
	if err != nil {
		return fmt.Errorf("merge merge request %s: %w", id, classify(err))
	}
	return s.explainConditionalMiss(ctx, res, id, "merge merge request")
}

// CloseMergeRequest transitions an open merge request to closed.
func (s *Store) CloseMergeRequest(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE merge_requests SET status = 'closed'
		WHERE id = ? AND status = 'open'
	`, id)
	if err != nil {
		return fmt.Errorf("close merge request %s: %w", id, classify(err))
	}
	return s.explainConditionalMiss(ctx, res, id, "close merge request")
}

// explainConditionalMiss distinguishes "row absent" from "row terminal"
// after a conditional UPDATE matched nothing.
func (s *Store) explainConditionalMiss(ctx context.Context, res sql.Result, id, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: rows affected: %w", op, id, err)
	}
	if n > 0 {
		return nil
	}

	var status string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM merge_requests WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", op, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, id, classify(err))
	}
	return fmt.Errorf("%s %s: status %q: %w", op, id, status, ErrTerminalState)
}

const mergeRequestSelect = `
	SELECT id, repository_id, source_branch_id, target_branch_id, title, description,
	       status, merge_commit_id, created_by, assigned_to, created_at, merged_at
	FROM merge_requests`

func scanMergeRequest(scan func(dest ...any) error) (model.MergeRequest, error) {
	var mr model.MergeRequest
	var status string
	var mergedAt sql.NullTime
	err := scan(&mr.ID, &mr.RepositoryID, &mr.SourceBranchID, &mr.TargetBranchID,
		&mr.Title, &mr.Description, &status, &mr.MergeCommitID,
		&mr.CreatedBy, &mr.AssignedTo, &mr.CreatedAt, &mergedAt)
	if err != nil {
		return model.MergeRequest{}, err
	}
	mr.Status = model.MergeRequestStatus(status)
	if mergedAt.Valid {
		t := mergedAt.Time
		mr.MergedAt = &t
	}
	return mr, nil
}
