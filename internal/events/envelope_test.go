package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func noopHandler(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	return nil
}

func testRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(EventMessageSend, func() any { return &MessageSendData{} }, noopHandler)
	return reg
}

func TestParseValidFrame(t *testing.T) {
	req := require.New(t)
	reg := testRegistry()

	env, data, err := reg.Parse([]byte(`{"event":"MESSAGE_SEND","payload":{"sender":"u1","data":{"chat":"c1","content":"hi"}}}`))
	req.NoError(err)
	req.Equal(EventMessageSend, env.Event)
	req.Equal("u1", env.Payload.Sender)

	d, ok := data.(*MessageSendData)
	req.True(ok)
	req.Equal("c1", d.Chat)
	req.Equal("hi", d.Content)
}

func TestParseMalformedFrames(t *testing.T) {
	reg := testRegistry()

	for name, frame := range map[string]string{
		"not json":        `{{{`,
		"missing event":   `{"payload":{"sender":"u1","data":{}}}`,
		"missing payload": `{"event":"MESSAGE_SEND"}`,
		"payload not an object": `{"event":"MESSAGE_SEND","payload":"x"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := reg.Parse([]byte(frame))
			require.ErrorIs(t, err, ErrMalformedEnvelope)
		})
	}
}

func TestParseUnknownEvent(t *testing.T) {
	reg := testRegistry()

	_, _, err := reg.Parse([]byte(`{"event":"NOT_A_REAL_EVENT","payload":{"sender":"u1","data":{}}}`))

	var unknown *UnknownEventError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "NOT_A_REAL_EVENT", unknown.Event)
}

func TestParseSchemaViolations(t *testing.T) {
	reg := testRegistry()

	for name, frame := range map[string]string{
		"missing required content": `{"event":"MESSAGE_SEND","payload":{"sender":"u1","data":{"chat":"c1"}}}`,
		"missing sender":           `{"event":"MESSAGE_SEND","payload":{"data":{"chat":"c1","content":"hi"}}}`,
		"missing data":             `{"event":"MESSAGE_SEND","payload":{"sender":"u1"}}`,
		"wrong field type":         `{"event":"MESSAGE_SEND","payload":{"sender":"u1","data":{"chat":1,"content":"hi"}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := reg.Parse([]byte(frame))

			var schema *SchemaViolationError
			require.ErrorAs(t, err, &schema)
			require.NotErrorIs(t, err, ErrMalformedEnvelope)
		})
	}
}

func TestErrorTaxonomyStaysDistinct(t *testing.T) {
	req := require.New(t)
	reg := testRegistry()

	_, _, unknownErr := reg.Parse([]byte(`{"event":"NOPE","payload":{"sender":"u1","data":{}}}`))
	_, _, malformedErr := reg.Parse([]byte(`{"event":"MESSAGE_SEND"}`))

	var unknown *UnknownEventError
	req.False(errors.As(malformedErr, &unknown))
	req.False(errors.Is(unknownErr, ErrMalformedEnvelope))
}
