package occache

import "errors"

// Sentinel errors, defined package-level in the same style
// internal/minisql/database.go declares its own (errTableDoesNotExist and
// friends): plain stdlib errors.New plus fmt.Errorf("...: %w", ...) for
// wrapping, never a third-party errors package.
var (
	// ErrAppendNoPredecessor is returned when Append is called at a
	// position with no preceding entry to extend (predecessor is head,
	// tail, or doesn't exist); callers are expected to fall back to
	// Insert semantics in this case.
	ErrAppendNoPredecessor = errors.New("occache: append has no preceding run to extend")

	// ErrWriteBackFailed is returned (never panics) when the backing
	// store rejects an eviction write-back batch. It is logged and
	// eviction continues regardless; it is surfaced to callers only
	// through the optional Config.StrictWriteBack path.
	ErrWriteBackFailed = errors.New("occache: write-back batch rejected by backing store")

	// errInvariantViolation names a broken structural invariant. No code
	// in this package checks invariants at run time or raises it.
	errInvariantViolation = errors.New("occache: invariant violation")
)
