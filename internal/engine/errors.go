package engine

import (
	"errors"
	"fmt"

	"github.com/buildforge/buildvc/internal/store"
)

// Kind categorizes engine errors. Every failing operation returns an
// *Error carrying exactly one stable Kind, so callers can branch on the
// category without parsing messages.
type Kind string

const (
	// KindNotFound indicates a missing repository, branch, commit, tag,
	// merge request or comment.
	KindNotFound Kind = "NOT_FOUND"

	// KindConflict indicates a lost CAS race on a branch head, a
	// duplicate branch/tag name, or a write against a terminal merge
	// request. Retrying without recomputing will fail again.
	KindConflict Kind = "CONFLICT"

	// KindValidation indicates malformed input: missing required
	// fields, self-referential merge requests, cross-repository
	// references, or a comment without exactly one target.
	KindValidation Kind = "VALIDATION"

	// KindIntegrity indicates a snapshot failed to persist atomically
	// with its commit; the whole transaction was rolled back.
	KindIntegrity Kind = "INTEGRITY"

	// KindRetryable indicates a transient persistence failure.
	// An immediate retry with the same inputs may succeed.
	KindRetryable Kind = "RETRYABLE"
)

// Error is the typed error returned by all engine operations.
// Id fields are populated when known so callers get structured context.
type Error struct {
	Kind           Kind
	Message        string
	RepositoryID   string
	BranchID       string
	CommitID       string
	MergeRequestID string
	Err            error
}

func (e *Error) Error() string {
	if e.RepositoryID != "" && e.BranchID != "" {
		return fmt.Sprintf("%s: %s (repository=%s, branch=%s)", e.Kind, e.Message, e.RepositoryID, e.BranchID)
	}
	if e.RepositoryID != "" {
		return fmt.Sprintf("%s: %s (repository=%s)", e.Kind, e.Message, e.RepositoryID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from an error chain, or "" for untyped errors.
func KindOf(err error) Kind {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

// IsNotFound reports whether the error is a NOT_FOUND engine error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether the error is a CONFLICT engine error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsValidation reports whether the error is a VALIDATION engine error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsRetryable reports whether the error is transient and worth an
// immediate retry, as opposed to a logical Conflict that requires the
// caller to reload and recompute first.
func IsRetryable(err error) bool { return KindOf(err) == KindRetryable }

func notFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// mapStoreError lifts store sentinels into typed engine errors. Errors
// that are already typed, and errors with no matching sentinel, pass
// through unchanged.
func mapStoreError(err error, message string) error {
	if err == nil {
		return nil
	}
	var ee *Error
	if errors.As(err, &ee) {
		return err
	}

	e := &Error{Message: message, Err: err}
	switch {
	case errors.Is(err, store.ErrNotFound):
		e.Kind = KindNotFound
	case errors.Is(err, store.ErrDuplicateName):
		e.Kind = KindConflict
	case errors.Is(err, store.ErrHeadMoved):
		e.Kind = KindConflict
	case errors.Is(err, store.ErrTerminalState):
		e.Kind = KindConflict
	case errors.Is(err, store.ErrSnapshotPersist):
		e.Kind = KindIntegrity
	case errors.Is(err, store.ErrBusy):
		e.Kind = KindRetryable
	default:
		return err
	}
	return e
}
