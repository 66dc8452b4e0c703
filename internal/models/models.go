// Package models holds the wire and in-memory shapes shared by the
// registry, queue, dispatcher, prober, and API layers.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a single log entry, either submitted by an agent or lifted
// from a bare string in the array ingress form.
type Message struct {
	ID        string         `json:"id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Source    string         `json:"source"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Packet is a batch of messages submitted together by an agent.
type Packet struct {
	ID         string    `json:"id"`
	AgentID    string    `json:"agentId,omitempty"`
	Messages   []Message `json:"messages"`
	EnqueuedAt time.Time `json:"-"`
}

// NewPacket creates a packet with a freshly generated ID; a caller that
// has its own ID overwrites the field afterwards.
func NewPacket(agentID string, messages []Message) Packet {
	return Packet{
		ID:       uuid.New().String(),
		AgentID:  agentID,
		Messages: messages,
	}
}

// NewMessage fills in an ID and timestamp for a message lifted from the
// bare-array ingress shape.
func NewMessage(level, source, message string) Message {
	return Message{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Level:     level,
		Source:    source,
		Message:   message,
	}
}

// ValidLevels enumerates the recognized log levels (spec.md §6).
var ValidLevels = map[string]bool{
	"DEBUG": true,
	"INFO":  true,
	"WARN":  true,
	"ERROR": true,
	"FATAL": true,
}
