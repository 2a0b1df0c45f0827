// Package events defines the WebSocket event contract of MediaPulse.
// Every frame is a JSON envelope whose type is one of the constants below.
package events

const (
	// TypeConnection is sent once to every client after the upgrade
	TypeConnection = "connection"

	// TypeHeartbeat is the only message clients send; it extends the read deadline
	TypeHeartbeat = "heartbeat"

	// TypeDatasetLoaded is published after a new dataset is ingested.
	// Data is the dataset summary.
	TypeDatasetLoaded = "dataset:loaded"

	// TypeInsightReady is published once per finished insight.
	// Data carries the dataset ID and the insight.
	TypeInsightReady = "insight:ready"
)

// Message is the envelope of every frame sent to clients
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}
