package querydsl

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResult is returned by FetchOne and FetchFirst when nothing matched.
	ErrNoResult = errors.New("query returned no rows")
	// ErrNonUniqueResult is returned by FetchOne when more than one row matched.
	ErrNonUniqueResult = errors.New("query returned more than one row")
	// ErrInvalidPageRequest reports a negative offset or a non-positive limit.
	ErrInvalidPageRequest = errors.New("invalid page request")
	// ErrNoExecutor is returned when a statement is executed on a factory
	// that was created without an executor.
	ErrNoExecutor = errors.New("query factory has no executor")
)

// ExecutionError wraps a failure reported by the storage layer while
// running a plan.
type ExecutionError struct {
	Op  string
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// InvalidProjectionError reports that the selected expressions cannot be
// mapped onto the requested result type. It is raised when the plan is
// built, before anything is sent to the database.
type InvalidProjectionError struct {
	Target string
	Reason string
}

func (e *InvalidProjectionError) Error() string {
	return fmt.Sprintf("invalid projection into %s: %s", e.Target, e.Reason)
}

func invalidProjection(target, format string, args ...any) error {
	return &InvalidProjectionError{Target: target, Reason: fmt.Sprintf(format, args...)}
}
