package events

import (
	"context"
	"errors"
	"log"
	"time"

	"community-service/internal/observability"
	"community-service/internal/repositories"
	"community-service/internal/ws"
)

// Router turns raw inbound frames into handler invocations. Client input
// errors are answered on the originating connection only; nothing that
// happens here may take down the read loop of any connection.
type Router struct {
	registry *Registry
}

// NewRouter wraps a populated registry.
func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// HandleFrame parses, validates and dispatches one frame. The handler runs
// in its own goroutine so frames from other connections are never blocked
// behind this one's persistence calls.
func (r *Router) HandleFrame(ctx context.Context, conn ws.Conn, userID string, raw []byte, receivedAt time.Time) {
	sess := NewSession(conn, userID)

	env, data, err := r.registry.Parse(raw)
	if err != nil {
		code, message := classifyParseError(err)
		observability.IncWSEvent("client_error")
		sess.SendError(code, message)
		return
	}

	observability.IncWSEvent(env.Event)
	reg := r.registry.entries[env.Event]

	go func() {
		if err := reg.handler(ctx, sess, env, data, receivedAt); err != nil {
			wrapped := &HandlerExecutionError{Event: env.Event, Err: err}
			log.Printf("dispatch: %v", wrapped)
			code, message := classifyHandlerError(env.Event, err)
			sess.SendError(code, message)
		}
	}()
}

func classifyParseError(err error) (int, string) {
	var unknown *UnknownEventError
	var schema *SchemaViolationError
	switch {
	case errors.As(err, &unknown):
		return CodeUnknownEvent, unknown.Error()
	case errors.As(err, &schema):
		return CodeSchemaViolation, schema.Error()
	default:
		return CodeMalformedEnvelope, err.Error()
	}
}

// classifyHandlerError maps a handler failure to a wire code. The message
// stays generic: the cause is logged, not leaked.
func classifyHandlerError(event string, err error) (int, string) {
	var perr *repositories.PersistenceError
	var cerr *repositories.CacheConsistencyError
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return CodeNotFound, "entity not found"
	case errors.As(err, &perr):
		return CodePersistence, "persistence failure handling " + event
	case errors.As(err, &cerr):
		return CodeCacheConsistency, "cache consistency failure handling " + event
	default:
		return CodeHandlerFailure, "failed to handle " + event
	}
}
