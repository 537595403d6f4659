package relay

import (
	"encoding/json"
	"testing"
)

func TestParseClientEvent(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantErr  bool
		wantType string
		wantText string
	}{
		{
			name:     "text turn",
			data:     `{"type":"input_text","text":"hello"}`,
			wantType: "input_text",
			wantText: "hello",
		},
		{
			name:     "opaque event",
			data:     `{"type":"input_audio_buffer.commit"}`,
			wantType: "input_audio_buffer.commit",
		},
		{
			name:     "missing type still parses",
			data:     `{"foo":"bar"}`,
			wantType: "",
		},
		{
			name:    "invalid json",
			data:    `{"type":`,
			wantErr: true,
		},
		{
			name:    "not an object",
			data:    `"just a string"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := parseClientEvent([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected parse error for %q", tt.data)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ev.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", ev.Type, tt.wantType)
			}
			if ev.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", ev.Text, tt.wantText)
			}
			if string(ev.raw) != tt.data {
				t.Errorf("raw payload was not preserved")
			}
		})
	}
}

func TestNewErrorEvent(t *testing.T) {
	data := newErrorEvent(CodeTimeout, "took too long")

	var ev errorEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("error event is not valid JSON: %v", err)
	}
	if ev.Type != "error" {
		t.Errorf("Type = %q, want error", ev.Type)
	}
	if ev.Error.Code != CodeTimeout || ev.Error.Message != "took too long" {
		t.Errorf("unexpected error body: %+v", ev.Error)
	}
}

func TestNewConversationItem(t *testing.T) {
	data := newConversationItem("system", "context goes here")

	var ev struct {
		Type string `json:"type"`
		Item struct {
			Type    string `json:"type"`
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"item"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("conversation item is not valid JSON: %v", err)
	}
	if ev.Type != "conversation.item.create" {
		t.Errorf("Type = %q", ev.Type)
	}
	if ev.Item.Role != "system" || ev.Item.Type != "message" {
		t.Errorf("unexpected item header: %+v", ev.Item)
	}
	if len(ev.Item.Content) != 1 || ev.Item.Content[0].Text != "context goes here" {
		t.Errorf("unexpected content: %+v", ev.Item.Content)
	}
}

func TestIsAssistantResponse(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{"assistant item", `{"type":"conversation.item.created","item":{"role":"assistant"}}`, true},
		{"user item", `{"type":"conversation.item.created","item":{"role":"user"}}`, false},
		{"other event", `{"type":"response.audio.delta"}`, false},
		{"garbage", `not json`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isAssistantResponse([]byte(tt.data)); got != tt.want {
				t.Errorf("isAssistantResponse(%q) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}
}
