package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/buildforge/buildvc/internal/model"
)

// CreateCommitCAS appends a commit to a branch with compare-and-swap
// head semantics. Within one transaction it:
//
//  1. Reads the branch head and verifies it equals expectedParent.
//  2. Inserts the commit row and its snapshot.
//  3. Advances the branch head, re-checking the old value in the UPDATE
//     predicate.
//
// Returns ErrHeadMoved when the head no longer matches expectedParent,
// ErrNotFound when the branch does not exist in the repository, and
// ErrSnapshotPersist when the snapshot row cannot be written. In every
// failure case the transaction is rolled back whole.
func (s *Store) CreateCommitCAS(ctx context.Context, commit model.Commit, snap SnapshotRecord, expectedParent string) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return fmt.Errorf("create commit: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var head string
	err = tx.QueryRowContext(ctx, `
		SELECT head_commit_id FROM branches
		WHERE id = ? AND repository_id = ?
	`, commit.BranchID, commit.RepositoryID).Scan(&head)
	if err != nil {
		return fmt.Errorf("create commit: read head: %w", classify(err))
	}
	if head != expectedParent {
		return fmt.Errorf("create commit: expected head %q, found %q: %w", expectedParent, head, ErrHeadMoved)
	}

	if err := insertCommitTx(ctx, tx, commit); err != nil {
		return fmt.Errorf("create commit: %w", err)
	}
	if err := insertSnapshotTx(ctx, tx, snap); err != nil {
		return fmt.Errorf("create commit: %w", err)
	}

	// The UPDATE predicate repeats the CAS check. With a single write
	// connection the earlier SELECT already serializes racers, but the
	// guard keeps the invariant independent of pool configuration.
	res, err := tx.ExecContext(ctx, `
		UPDATE branches SET head_commit_id = ?
		WHERE id = ? AND head_commit_id = ?
	`, commit.ID, commit.BranchID, expectedParent)
	if err != nil {
		return fmt.Errorf("create commit: advance head: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create commit: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("create commit: %w", ErrHeadMoved)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create commit: commit tx: %w", classify(err))
	}
	return nil
}

func insertCommitTx(ctx context.Context, tx *sql.Tx, c model.Commit) error {
	var parent sql.NullString
	if c.ParentCommitID != "" {
		parent = sql.NullString{String: c.ParentCommitID, Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO commits
		(id, repository_id, branch_id, parent_commit_id, commit_hash, author_id, committer_id, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.RepositoryID, c.BranchID, parent, c.CommitHash, c.AuthorID, c.CommitterID, c.Message, c.CreatedAt)
	if err != nil {
		return classify(err)
	}
	return nil
}

// GetCommit retrieves a commit by id.
func (s *Store) GetCommit(ctx context.Context, id string) (model.Commit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, repository_id, branch_id, parent_commit_id, commit_hash,
		       author_id, committer_id, message, created_at
		FROM commits WHERE id = ?
	`, id)

	var c model.Commit
	var parent sql.NullString
	err := row.Scan(&c.ID, &c.RepositoryID, &c.BranchID, &parent, &c.CommitHash,
		&c.AuthorID, &c.CommitterID, &c.Message, &c.CreatedAt)
	if err != nil {
		return model.Commit{}, fmt.Errorf("get commit %s: %w", id, classify(err))
	}
	c.ParentCommitID = parent.String
	return c, nil
}

func scanCommitRows(rows *sql.Rows) (model.Commit, error) {
	var c model.Commit
	var parent sql.NullString
	err := rows.Scan(&c.ID, &c.RepositoryID, &c.BranchID, &parent, &c.CommitHash,
		&c.AuthorID, &c.CommitterID, &c.Message, &c.CreatedAt)
	if err != nil {
		return model.Commit{}, err
	}
	c.ParentCommitID = parent.String
	return c, nil
}
