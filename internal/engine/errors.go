package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for the matching engine's failure modes. Callers match these
// with errors.Is; the typed errors below carry context.
var (
	// ErrCapabilityUnavailable is returned when the embedding capability cannot
	// be acquired at initialization. The engine recovers by selecting lexical
	// mode, so this never surfaces from Initialize itself.
	ErrCapabilityUnavailable = errors.New("embedding capability unavailable")

	// ErrIndexBuild is returned when an index rebuild fails. The previously
	// published index stays active.
	ErrIndexBuild = errors.New("index build failed")

	// ErrInvalidQuery is returned for empty or whitespace-only query input.
	ErrInvalidQuery = errors.New("invalid query")
)

// CapabilityUnavailableError reports why embedding acquisition failed.
type CapabilityUnavailableError struct {
	Err error
}

func (e *CapabilityUnavailableError) Error() string {
	return fmt.Sprintf("embedding capability unavailable: %v", e.Err)
}

func (e *CapabilityUnavailableError) Unwrap() error {
	return e.Err
}

func (e *CapabilityUnavailableError) Is(target error) bool {
	return target == ErrCapabilityUnavailable
}

// IndexBuildError reports a failed rebuild: a malformed corpus entry or an
// encoding failure. Err is nil for malformed-corpus failures.
type IndexBuildError struct {
	Reason string
	Err    error
}

func (e *IndexBuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("index build failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("index build failed: %s", e.Reason)
}

func (e *IndexBuildError) Unwrap() error {
	return e.Err
}

func (e *IndexBuildError) Is(target error) bool {
	return target == ErrIndexBuild
}

// InvalidQueryError reports query input that violates the input contract.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: %s", e.Reason)
}

func (e *InvalidQueryError) Is(target error) bool {
	return target == ErrInvalidQuery
}
