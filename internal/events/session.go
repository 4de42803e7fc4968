package events

import (
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"

	"community-service/internal/models"
	"community-service/internal/ws"
)

// Session binds one dispatched frame to its originating connection. Error
// frames go to this connection only.
type Session struct {
	conn   ws.Conn
	userID string
}

// NewSession wraps a registered connection.
func NewSession(conn ws.Conn, userID string) *Session {
	return &Session{conn: conn, userID: userID}
}

func (s *Session) UserID() string { return s.userID }

func (s *Session) Conn() ws.Conn { return s.conn }

// Send writes an outbound event to the session's own connection.
func (s *Session) Send(event models.OutboundEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

type errorPayload struct {
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// SendError writes a coded ERROR frame. A failed write here means the peer
// is gone, which the read loop will notice on its own.
func (s *Session) SendError(code int, message string) {
	err := s.Send(models.OutboundEvent{
		Event:   EventError,
		Payload: errorPayload{ErrorCode: code, ErrorMessage: message},
	})
	if err != nil {
		log.Printf("error frame write failed: %v", err)
	}
}
