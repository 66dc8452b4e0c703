package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLimits = Limits{
	MaxMessagesPerPacket: 1000,
	MaxLogMessageLength:  10000,
	MaxPacketSizeBytes:   1024 * 1024,
}

func TestDecodePacket_EnvelopeShape(t *testing.T) {
	body := []byte(`{
		"agentId": "agent-1",
		"messages": [
			{"level": "INFO", "source": "svc", "message": "hello"},
			{"level": "ERROR", "source": "svc", "message": "boom", "metadata": {"k": "v"}}
		]
	}`)

	packet, err := decodePacket(body, testLimits)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", packet.AgentID)
	require.Len(t, packet.Messages, 2)
	assert.Equal(t, "hello", packet.Messages[0].Message)
	assert.Equal(t, "v", packet.Messages[1].Metadata["k"])
}

func TestDecodePacket_BareArrayOfStringsLiftedToInfo(t *testing.T) {
	body := []byte(`["first line", "second line"]`)

	packet, err := decodePacket(body, testLimits)
	require.NoError(t, err)
	require.Len(t, packet.Messages, 2)
	assert.Equal(t, "INFO", packet.Messages[0].Level)
	assert.Equal(t, "unknown", packet.Messages[0].Source)
	assert.Equal(t, "first line", packet.Messages[0].Message)
}

func TestDecodePacket_BareArrayOfObjects(t *testing.T) {
	body := []byte(`[{"level": "WARN", "source": "svc", "message": "careful"}]`)

	packet, err := decodePacket(body, testLimits)
	require.NoError(t, err)
	require.Len(t, packet.Messages, 1)
	assert.Equal(t, "WARN", packet.Messages[0].Level)
}

func TestDecodePacket_EmptyMessagesRejected(t *testing.T) {
	_, err := decodePacket([]byte(`{"messages": []}`), testLimits)
	assert.Error(t, err)
}

func TestDecodePacket_UnrecognizedLevelRejected(t *testing.T) {
	body := []byte(`{"messages": [{"level": "VERBOSE", "source": "svc", "message": "x"}]}`)
	_, err := decodePacket(body, testLimits)
	assert.Error(t, err)
}

func TestDecodePacket_MissingSourceRejected(t *testing.T) {
	body := []byte(`{"messages": [{"level": "INFO", "source": "", "message": "x"}]}`)
	_, err := decodePacket(body, testLimits)
	assert.Error(t, err)
}

func TestDecodePacket_ExplicitEnvelopeIDHonored(t *testing.T) {
	body := []byte(`{"id": "custom-id", "messages": [{"level": "INFO", "source": "svc", "message": "x"}]}`)
	packet, err := decodePacket(body, testLimits)
	require.NoError(t, err)
	assert.Equal(t, "custom-id", packet.ID)
}

func TestDecodePacket_InvalidJSONRejected(t *testing.T) {
	_, err := decodePacket([]byte(`not json`), testLimits)
	assert.Error(t, err)
}

func TestDecodePacket_ExceedsMaxMessagesPerPacketRejected(t *testing.T) {
	limits := testLimits
	limits.MaxMessagesPerPacket = 1
	body := []byte(`{"messages": [
		{"level": "INFO", "source": "svc", "message": "a"},
		{"level": "INFO", "source": "svc", "message": "b"}
	]}`)

	_, err := decodePacket(body, limits)
	assert.Error(t, err)
}

func TestDecodePacket_ExceedsMaxLogMessageLengthRejected(t *testing.T) {
	limits := testLimits
	limits.MaxLogMessageLength = 5
	body := []byte(`{"messages": [{"level": "INFO", "source": "svc", "message": "way too long"}]}`)

	_, err := decodePacket(body, limits)
	assert.Error(t, err)
}

func TestDecodePacket_ExceedsMaxPacketSizeBytesRejected(t *testing.T) {
	limits := testLimits
	limits.MaxPacketSizeBytes = 10
	body := []byte(`{"messages": [{"level": "INFO", "source": "svc", "message": "` + strings.Repeat("x", 50) + `"}]}`)

	_, err := decodePacket(body, limits)
	assert.Error(t, err)
}
