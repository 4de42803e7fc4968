package repositories

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that a requested entity id does not exist. It is a
// normal outcome for id-based lookups, not a system fault.
var ErrNotFound = errors.New("entity not found")

// PersistenceError wraps a failed read or write against the system of
// record. The cache is never updated speculatively when one occurs.
type PersistenceError struct {
	Op         string
	Collection string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s on %s: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// CacheConsistencyError reports a terminal cache/store mismatch: the
// expectation still did not hold after one rebuild-and-recheck cycle. The
// affected key has already been invalidated when this is returned.
type CacheConsistencyError struct {
	Collection string
	ID         string
	Expected   Expectation
}

func (e *CacheConsistencyError) Error() string {
	return fmt.Sprintf("cache for %s diverged from store: entity %s expected %s", e.Collection, e.ID, e.Expected)
}

// Expectation is what the verifier checks for after a mutation.
type Expectation int

const (
	ExpectPresent Expectation = iota
	ExpectAbsent
)

func (x Expectation) String() string {
	if x == ExpectAbsent {
		return "absent"
	}
	return "present"
}
