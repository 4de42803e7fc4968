package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"community-service/internal/auth"
	"community-service/internal/observability"
)

// FrameHandler consumes one inbound client frame. Implemented by the event
// router; the ws layer never inspects frame contents itself.
type FrameHandler interface {
	HandleFrame(ctx context.Context, conn Conn, userID string, raw []byte, receivedAt time.Time)
}

// SocketHandler upgrades client connections, binds them to their
// authenticated user and pumps inbound frames into the router.
type SocketHandler struct {
	hub       *Hub
	router    FrameHandler
	jwtSecret string
}

// NewSocketHandler constructs a SocketHandler.
func NewSocketHandler(hub *Hub, router FrameHandler, jwtSecret string) *SocketHandler {
	return &SocketHandler{hub: hub, router: router, jwtSecret: jwtSecret}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client. The user
// identity is bound exactly once, at handshake, and is immutable for the
// connection's lifetime.
func (h *SocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("community-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token, ok := auth.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		token = c.Query("token")
	}
	userID, err := auth.VerifyToken(h.jwtSecret, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	// All writers (broadcasts, error replies) share this handle; reads
	// stay on the raw connection, which has exactly one reader.
	client := NewLockedConn(conn)
	h.hub.Register(userID, client, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishLifecycle(ctx, info, "ws_connect", "")

	go h.readLoop(ctx, conn, client, info)
}

func (h *SocketHandler) readLoop(ctx context.Context, conn *websocket.Conn, client Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		// Unregister synchronously with the close so no handle outlives
		// its connection; in-flight handler work may still complete and
		// will hit the broadcaster's partial-failure path instead.
		h.hub.Unregister(client)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		h.publishLifecycle(ctx, info, "ws_disconnect", closeReason)
		client.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				h.publishLifecycle(ctx, info, "ws_error", closeReason)
			}
			return
		}
		h.router.HandleFrame(ctx, client, info.UserID, raw, time.Now())
	}
}

func (h *SocketHandler) publishLifecycle(ctx context.Context, info ConnInfo, event, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	_ = observability.PublishEvent(ctx, "ws_events.community", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
