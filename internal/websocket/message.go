package websocket

import (
	"encoding/json"
	"time"

	"mediapulse/pkg/contracts/events"
)

// Message types sent by the hub itself. Domain events use the type passed to
// Broadcast.
const (
	TypeConnection = events.TypeConnection
	TypeHeartbeat  = events.TypeHeartbeat
)

// Message is the envelope of every frame sent to clients
type Message = events.Message

func encode(messageType string, data interface{}, traceID string) ([]byte, error) {
	return json.Marshal(Message{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		TraceID:   traceID,
	})
}

// inbound is the only message shape clients send
type inbound struct {
	Type string `json:"type"`
}
