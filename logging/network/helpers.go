package network

import (
	"context"

	"zombie-siege/logging"
)

const (
	// EventMalformedMessage is emitted when an inbound frame cannot be used.
	EventMalformedMessage logging.EventType = "network.malformed_message"
	// EventSendDropped is emitted when a session's outbound queue is full.
	EventSendDropped logging.EventType = "network.send_dropped"
)

// MalformedPayload captures the decode failure.
type MalformedPayload struct {
	Type  string `json:"type,omitempty"`
	Error string `json:"error"`
}

// SendDroppedPayload captures the message lost to backpressure.
type SendDroppedPayload struct {
	Type  string `json:"type"`
	Count uint64 `json:"count"`
}

// MalformedMessage publishes a warning for an unusable inbound frame.
func MalformedMessage(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload MalformedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMalformedMessage,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

// SendDropped publishes a warning when an outbound message was discarded.
func SendDropped(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload SendDroppedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSendDropped,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}
