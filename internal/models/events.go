package models

// OutboundEvent is serialized as-is onto client websockets.
type OutboundEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}
