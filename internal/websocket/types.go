package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/raaihank/pii-sentinel/privacy"
)

// EventType represents the type of WebSocket event.
type EventType string

const (
	// EventTypeDetection reports a detection or scan outcome.
	EventTypeDetection EventType = "detection"
	// EventTypeAudit mirrors an engine audit entry.
	EventTypeAudit EventType = "audit"
	// EventTypeSystemStatus represents a system status event.
	EventTypeSystemStatus EventType = "system_status"
	// EventTypeConnection represents connection events.
	EventTypeConnection EventType = "connection"
)

// Event represents a WebSocket event sent to clients.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	RequestID string    `json:"request_id,omitempty"`
}

// DetectionEvent summarizes a detection or scan without carrying raw values.
// Matched substrings never leave the engine through this channel.
type DetectionEvent struct {
	RequestID    string            `json:"request_id"`
	Operation    string            `json:"operation"` // detect, scan
	Types        []privacy.PIIType `json:"types"`
	Paths        []string          `json:"paths,omitempty"`
	Count        int               `json:"count"`
	ProcessingMS float64           `json:"processing_ms"`
}

// AuditEvent mirrors one engine audit entry for live viewers.
type AuditEvent struct {
	Operation privacy.AuditOperation `json:"operation"`
	DataType  privacy.PIIType        `json:"data_type,omitempty"`
	Success   bool                   `json:"success"`
}

// SystemStatusEvent represents system status information.
type SystemStatusEvent struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	TotalRequests    int64  `json:"total_requests"`
	TotalDetections  int64  `json:"total_detections"`
	PatternCount     int    `json:"pattern_count"`
	ConnectedClients int    `json:"connected_clients"`
}

// ConnectionEvent represents WebSocket connection events.
type ConnectionEvent struct {
	Action   string `json:"action"` // "connected", "disconnected"
	ClientID string `json:"client_id"`
	ClientIP string `json:"client_ip"`
	Message  string `json:"message,omitempty"`
}

// ClientMessage represents messages sent from clients to server.
type ClientMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// SubscriptionRequest represents a client subscription request.
type SubscriptionRequest struct {
	Events []EventType  `json:"events"`
	Filter *EventFilter `json:"filter,omitempty"`
}

// EventFilter narrows which detection events a subscribed client receives.
type EventFilter struct {
	Operations []string          `json:"operations,omitempty"`
	Types      []privacy.PIIType `json:"types,omitempty"`
}

// Client represents a WebSocket client connection.
type Client struct {
	ID           string
	Conn         *websocket.Conn
	Send         chan Event
	Subscription *SubscriptionRequest
	ConnectedAt  time.Time
	LastPing     time.Time
	IP           string
	UserAgent    string
}
