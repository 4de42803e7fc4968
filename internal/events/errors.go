package events

import (
	"errors"
	"fmt"
)

// Wire error codes sent on ERROR frames. The codes are stable: clients
// branch on them.
const (
	CodeMalformedEnvelope = 4000
	CodeUnknownEvent      = 4001
	CodeSchemaViolation   = 4002
	CodeHandlerFailure    = 4003
	CodeNotFound          = 4004
	CodePersistence       = 4005
	CodeCacheConsistency  = 4006
)

// ErrMalformedEnvelope reports a frame that is not structured data or lacks
// the event or payload field.
var ErrMalformedEnvelope = errors.New("malformed envelope")

// UnknownEventError reports an event name outside the closed registered
// set.
type UnknownEventError struct {
	Event string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown event %q", e.Event)
}

// SchemaViolationError reports a payload that does not match the schema
// registered for its event.
type SchemaViolationError struct {
	Event string
	Err   error
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("payload for %s violates schema: %v", e.Event, e.Err)
}

func (e *SchemaViolationError) Unwrap() error { return e.Err }

// HandlerExecutionError wraps a failure from inside a dispatched handler,
// keeping it distinct from routing failures. The cause is for diagnostics
// only and is never sent verbatim to other clients.
type HandlerExecutionError struct {
	Event string
	Err   error
}

func (e *HandlerExecutionError) Error() string {
	return fmt.Sprintf("handler for %s failed: %v", e.Event, e.Err)
}

func (e *HandlerExecutionError) Unwrap() error { return e.Err }
