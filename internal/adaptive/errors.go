package adaptive

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by every NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError reports an unknown student or concept.
type NotFoundError struct {
	Kind string // "student" or "concept"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError reports a malformed argument.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ConflictError reports that a profile write kept losing optimistic
// concurrency races until the retry budget ran out.
type ConflictError struct {
	StudentID string
	Attempts  int
	Err       error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("profile %s: gave up after %d conflicting writes: %v", e.StudentID, e.Attempts, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// StorageError wraps an I/O failure from the ledger or the profile store.
type StorageError struct {
	Op        string
	StudentID string
	ConceptID string
	Err       error
}

func (e *StorageError) Error() string {
	if e.ConceptID != "" {
		return fmt.Sprintf("%s (student=%s concept=%s): %v", e.Op, e.StudentID, e.ConceptID, e.Err)
	}
	return fmt.Sprintf("%s (student=%s): %v", e.Op, e.StudentID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
