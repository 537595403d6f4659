package relay

import (
	"encoding/json"
	"fmt"
)

// Client-facing error codes, mirrored from the browser protocol.
const (
	CodeConnectionFailed = "connection_failed"
	CodeTimeout          = "timeout"
	CodeProcessingError  = "processing_error"
	CodeUnknown          = "unknown"
)

// eventTypeText is the single client message type the relay intercepts for
// context augmentation. Everything else passes through untouched.
const eventTypeText = "input_text"

// contextInstruction wraps retrieved texts before they are pushed upstream
// as a system item.
const contextInstruction = `You are a helpful AI assistant with access to specific knowledge. When responding:
1. Always reference the provided context in your answers
2. Use direct quotes when citing specific information
3. Indicate clearly which parts of the context you're drawing from
4. If the context doesn't contain relevant information, say so

Here is your reference context:

`

// clientEvent is the discriminated union arriving from the browser. Only
// "type" and "text" are inspected; the raw payload is kept for verbatim
// forwarding of every other message type.
type clientEvent struct {
	Type string `json:"type"`
	Text string `json:"text"`
	raw  []byte
}

func parseClientEvent(data []byte) (*clientEvent, error) {
	var ev clientEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("malformed client event: %w", err)
	}
	ev.raw = data
	return &ev, nil
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type errorEvent struct {
	Type  string    `json:"type"`
	Error errorBody `json:"error"`
}

// newErrorEvent builds the structured error object sent to the browser.
func newErrorEvent(code string, message string) []byte {
	data, _ := json.Marshal(errorEvent{
		Type:  "error",
		Error: errorBody{Message: message, Code: code},
	})
	return data
}

// newConversationItem builds a Realtime API conversation.item.create event
// carrying a single text part with the given role.
func newConversationItem(role string, text string) []byte {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "conversation.item.create",
		"item": map[string]interface{}{
			"type": "message",
			"role": role,
			"content": []map[string]interface{}{
				{"type": "input_text", "text": text},
			},
		},
	})
	return data
}

// upstreamEvent is the slice of an upstream payload the relay inspects to
// notice assistant responses. Everything else in the payload is opaque.
type upstreamEvent struct {
	Type string `json:"type"`
	Item struct {
		Role string `json:"role"`
	} `json:"item"`
}

// isAssistantResponse reports whether the upstream payload marks the start
// of an assistant reply (used by the response watchdog).
func isAssistantResponse(data []byte) bool {
	var ev upstreamEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return false
	}
	return ev.Type == "conversation.item.created" && ev.Item.Role == "assistant"
}
