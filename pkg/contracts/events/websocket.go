// Package events defines the messages pushed to WebSocket clients.
package events

import "time"

// MessageType is the "type" field of a WebSocket message
type MessageType string

const (
	MessageTypeConnection MessageType = "connection"

	// Dataset lifecycle, published as "<update>:<action>"
	MessageTypeDatasetReloaded     MessageType = "dataset:reloaded"
	MessageTypeDatasetReloadFailed MessageType = "dataset:reload_failed"
)

// Update and action names the server publishes with
const (
	UpdateDataset      = "dataset"
	ActionReloaded     = "reloaded"
	ActionReloadFailed = "reload_failed"
)

// WebSocketMessage is the envelope of every message
type WebSocketMessage struct {
	Type      MessageType `json:"type"`
	Subtype   string      `json:"subtype,omitempty"`
	Action    string      `json:"action,omitempty"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// DatasetReloaded is the payload of a dataset:reloaded message. Clients
// refetch anything computed from an older generation.
type DatasetReloaded struct {
	Generation uint64    `json:"generation"`
	Source     string    `json:"source"`
	Rows       int       `json:"rows"`
	Warnings   int       `json:"warnings"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// DatasetReloadFailed is the payload of a dataset:reload_failed message.
// The previous generation stays in service.
type DatasetReloadFailed struct {
	Error      string `json:"error"`
	Generation uint64 `json:"generation"`
}

// Connection is the payload of the greeting sent on connect
type Connection struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
}
