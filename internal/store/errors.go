package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Sentinel errors returned by store operations. Callers match with
// errors.Is; the engine maps them to its typed error kinds.
var (
	// ErrNotFound indicates the addressed row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName indicates a UNIQUE constraint violation on a
	// name scoped to a repository (branch, tag) or on a build ref.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrHeadMoved indicates the branch head no longer equals the
	// expected parent commit: the compare-and-swap lost the race.
	ErrHeadMoved = errors.New("branch head moved")

	// ErrTerminalState indicates a write against a merge request that
	// already reached a terminal status.
	ErrTerminalState = errors.New("merge request is terminal")

	// ErrSnapshotPersist indicates the snapshot row could not be written
	// alongside its commit. The surrounding transaction is rolled back.
	ErrSnapshotPersist = errors.New("snapshot persist failed")

	// ErrBusy indicates a transient SQLite lock timeout. Safe to retry.
	ErrBusy = errors.New("database busy")
)

// classify wraps driver-level failures in the store's sentinels so that
// callers never depend on sqlite3 error codes directly.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w", ErrNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicateName, err)
	case isBusy(err):
		return fmt.Errorf("%w: %v", ErrBusy, err)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func isBusy(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}
