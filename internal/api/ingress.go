// ingress.go decodes the two accepted /logs body shapes from spec.md
// §6: an envelope object, or a bare array of messages/strings.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/karteekpv77/loggateway/internal/models"
)

// Limits bounds an incoming packet, mirroring the teacher's
// config.MaxMessagesPerPacket/MaxLogMessageLength/MaxPacketSizeBytes
// caps (config/config.go in the teacher repo).
type Limits struct {
	MaxMessagesPerPacket int
	MaxLogMessageLength  int
	MaxPacketSizeBytes   int
}

type envelopeBody struct {
	ID       string       `json:"id"`
	AgentID  string       `json:"agentId"`
	Messages []rawMessage `json:"messages"`
}

// rawMessage decodes one array element that may be either a full
// LogMessage object or a bare string (lifted to an INFO/unknown-source
// message per spec.md §6).
type rawMessage struct {
	msg      models.Message
	isString bool
}

func (r *rawMessage) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		r.isString = true
		r.msg = models.NewMessage("INFO", "unknown", s)
		return nil
	}

	var m struct {
		ID        string         `json:"id"`
		Timestamp *time.Time     `json:"timestamp"`
		Level     string         `json:"level"`
		Source    string         `json:"source"`
		Message   string         `json:"message"`
		Metadata  map[string]any `json:"metadata"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	ts := time.Now()
	if m.Timestamp != nil {
		ts = *m.Timestamp
	}
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	r.msg = models.Message{
		ID:        id,
		Timestamp: ts,
		Level:     m.Level,
		Source:    m.Source,
		Message:   m.Message,
		Metadata:  m.Metadata,
	}
	return nil
}

// decodePacket parses body into a Packet per spec.md §6's two accepted
// shapes, validating every message's required fields and enforcing
// limits (packet size, message count, message length).
func decodePacket(body []byte, limits Limits) (models.Packet, error) {
	if len(body) > limits.MaxPacketSizeBytes {
		return models.Packet{}, fmt.Errorf("packet size %d bytes exceeds maximum %d bytes", len(body), limits.MaxPacketSizeBytes)
	}

	trimmed := bytes.TrimSpace(body)

	var rawMessages []rawMessage
	var agentID, explicitID string

	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &rawMessages); err != nil {
			return models.Packet{}, fmt.Errorf("decoding bare message array: %w", err)
		}
	} else {
		var env envelopeBody
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return models.Packet{}, fmt.Errorf("decoding log envelope: %w", err)
		}
		rawMessages = env.Messages
		agentID = env.AgentID
		explicitID = env.ID
	}

	if len(rawMessages) == 0 {
		return models.Packet{}, fmt.Errorf("packet must contain at least one message")
	}
	if len(rawMessages) > limits.MaxMessagesPerPacket {
		return models.Packet{}, fmt.Errorf("packet contains %d messages, maximum allowed is %d", len(rawMessages), limits.MaxMessagesPerPacket)
	}

	messages := make([]models.Message, 0, len(rawMessages))
	for _, rm := range rawMessages {
		msg := rm.msg
		if err := validateMessage(msg, limits); err != nil {
			return models.Packet{}, err
		}
		messages = append(messages, msg)
	}

	packet := models.NewPacket(agentID, messages)
	if explicitID != "" {
		packet.ID = explicitID
	}
	return packet, nil
}

func validateMessage(m models.Message, limits Limits) error {
	if m.Source == "" {
		return fmt.Errorf("message source must not be empty")
	}
	if m.Message == "" {
		return fmt.Errorf("message body must not be empty")
	}
	if !models.ValidLevels[m.Level] {
		return fmt.Errorf("unrecognized log level %q", m.Level)
	}
	if len(m.Message) > limits.MaxLogMessageLength {
		return fmt.Errorf("message length %d exceeds maximum %d", len(m.Message), limits.MaxLogMessageLength)
	}
	return nil
}
