package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Closed set of inbound event names. Outbound echoes append "_RECEIVED".
const (
	EventError = "ERROR"

	EventMessageSend           = "MESSAGE_SEND"
	EventMessageEdit           = "MESSAGE_EDIT"
	EventMessageDelete         = "MESSAGE_DELETE"
	EventMessageReactionAdd    = "MESSAGE_REACTION_ADD"
	EventMessageReactionRemove = "MESSAGE_REACTION_REMOVE"
	EventPollVoteAdd           = "POLL_VOTE_ADD"
	EventPollVoteRemove        = "POLL_VOTE_REMOVE"
	EventChatTargetAdd         = "CHAT_TARGET_ADD"
	EventChatTargetRemove      = "CHAT_TARGET_REMOVE"
	EventChatCourseAdd         = "CHAT_COURSE_ADD"
	EventChatCourseRemove      = "CHAT_COURSE_REMOVE"
	EventChatClubAdd           = "CHAT_CLUB_ADD"
	EventChatClubRemove        = "CHAT_CLUB_REMOVE"
	EventBlackboardCreate      = "BLACKBOARD_CREATE"
	EventBlackboardUpdate      = "BLACKBOARD_UPDATE"
	EventBlackboardDelete      = "BLACKBOARD_DELETE"
)

// ReceivedEvent derives the outbound echo name for an inbound event.
func ReceivedEvent(event string) string {
	return event + "_RECEIVED"
}

// Envelope is one decoded inbound frame. It lives for the duration of the
// dispatch and is never persisted.
type Envelope struct {
	Event   string  `json:"event"`
	Payload Payload `json:"payload"`
}

// Payload carries the sender identity and the event-specific data object.
type Payload struct {
	Sender string          `json:"sender" validate:"required"`
	Data   json.RawMessage `json:"data"`
}

// HandlerFunc processes one validated envelope. data is the decoded
// event-specific payload, of the type registered for the event.
type HandlerFunc func(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error

type registration struct {
	newData func() any
	handler HandlerFunc
}

// Registry maps each event name to its payload schema and handler in one
// entry, so an event can never be dispatchable without validation or
// validated without a handler.
type Registry struct {
	validate *validator.Validate
	entries  map[string]registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		entries:  make(map[string]registration),
	}
}

// Register binds an event name to its payload prototype and handler.
func (r *Registry) Register(event string, newData func() any, handler HandlerFunc) {
	r.entries[event] = registration{newData: newData, handler: handler}
}

// Parse decodes and validates one inbound frame. The error taxonomy is
// three-way and deliberate: MalformedEnvelope, UnknownEventError and
// SchemaViolationError map to distinct wire codes.
func (r *Registry) Parse(raw []byte) (Envelope, any, error) {
	var probe struct {
		Event   *string          `json:"event"`
		Payload *json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Envelope{}, nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if probe.Event == nil {
		return Envelope{}, nil, fmt.Errorf("%w: missing event", ErrMalformedEnvelope)
	}
	if probe.Payload == nil {
		return Envelope{}, nil, fmt.Errorf("%w: missing payload", ErrMalformedEnvelope)
	}

	reg, ok := r.entries[*probe.Event]
	if !ok {
		return Envelope{}, nil, &UnknownEventError{Event: *probe.Event}
	}

	env := Envelope{Event: *probe.Event}
	if err := json.Unmarshal(*probe.Payload, &env.Payload); err != nil {
		return Envelope{}, nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if err := r.validate.Struct(env.Payload); err != nil {
		return Envelope{}, nil, &SchemaViolationError{Event: env.Event, Err: err}
	}

	data := reg.newData()
	if len(env.Payload.Data) > 0 {
		if err := json.Unmarshal(env.Payload.Data, data); err != nil {
			return Envelope{}, nil, &SchemaViolationError{Event: env.Event, Err: err}
		}
	}
	if err := r.validate.Struct(data); err != nil {
		return Envelope{}, nil, &SchemaViolationError{Event: env.Event, Err: err}
	}

	return env, data, nil
}
