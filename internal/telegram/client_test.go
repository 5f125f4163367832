package telegram

import (
	"context"
	"testing"
)

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name      string
		botToken  string
		chatID    string
		wantError bool
	}{
		{
			name:      "valid parameters",
			botToken:  "test-token",
			chatID:    "12345",
			wantError: false,
		},
		{
			name:      "empty bot token",
			botToken:  "",
			chatID:    "12345",
			wantError: true,
		},
		{
			name:      "empty chat ID",
			botToken:  "test-token",
			chatID:    "",
			wantError: true,
		},
		{
			name:      "both empty",
			botToken:  "",
			chatID:    "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.botToken, tt.chatID)
			if tt.wantError {
				if err == nil {
					t.Error("NewClient() expected error, got nil")
				}
				if client != nil {
					t.Error("NewClient() should return nil client on error")
				}
				return
			}

			if err != nil {
				t.Fatalf("NewClient() unexpected error: %v", err)
			}
			if client.botToken != tt.botToken {
				t.Errorf("botToken = %q, want %q", client.botToken, tt.botToken)
			}
			if client.ChatID() != tt.chatID {
				t.Errorf("ChatID() = %q, want %q", client.ChatID(), tt.chatID)
			}
			if client.httpClient == nil {
				t.Error("httpClient should not be nil")
			}
		})
	}
}

func TestSendMessage_Validation(t *testing.T) {
	client := &Client{
		botToken: "test-token",
		chatID:   "12345",
	}

	err := client.SendMessage(context.Background(), "")
	if err == nil {
		t.Fatal("SendMessage() expected error for empty message, got nil")
	}
	if err.Error() != "message text is required" {
		t.Errorf("SendMessage() error = %v, want 'message text is required'", err)
	}
}

func TestURLButton(t *testing.T) {
	keyboard := URLButton("Open", "https://example.com/e/1")

	if len(keyboard.InlineKeyboard) != 1 || len(keyboard.InlineKeyboard[0]) != 1 {
		t.Fatalf("URLButton() layout = %+v, want a single button", keyboard.InlineKeyboard)
	}
	button := keyboard.InlineKeyboard[0][0]
	if button.Text != "Open" {
		t.Errorf("Text = %q, want 'Open'", button.Text)
	}
	if button.URL != "https://example.com/e/1" {
		t.Errorf("URL = %q, want 'https://example.com/e/1'", button.URL)
	}
	if button.CallbackData != "" {
		t.Errorf("CallbackData = %q, want empty", button.CallbackData)
	}
}

func TestMessage_Command(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		botUsername string
		want        string
	}{
		{name: "plain command", text: "/start", botUsername: "PervyeEventsBot", want: "/start"},
		{name: "upper case with argument", text: "/CHECK now", botUsername: "PervyeEventsBot", want: "/check"},
		{name: "addressed to this bot", text: "/test@PervyeEventsBot", botUsername: "PervyeEventsBot", want: "/test"},
		{name: "bot name is case-insensitive", text: "/check@pervyeeventsbot", botUsername: "PervyeEventsBot", want: "/check"},
		{name: "addressed to another bot", text: "/check@SomeOtherBot", botUsername: "PervyeEventsBot", want: ""},
		{name: "unknown own name accepts any suffix", text: "/check@SomeOtherBot", botUsername: "", want: "/check"},
		{name: "not a command", text: "hello", botUsername: "PervyeEventsBot", want: ""},
		{name: "empty", text: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &Message{Text: tt.text}
			if got := msg.Command(tt.botUsername); got != tt.want {
				t.Errorf("Command(%q) = %q, want %q", tt.botUsername, got, tt.want)
			}
		})
	}
}

func TestMessage_ChatID(t *testing.T) {
	msg := &Message{Chat: Chat{ID: -100123, Type: "supergroup"}}
	if got := msg.ChatID(); got != "-100123" {
		t.Errorf("ChatID() = %q, want '-100123'", got)
	}
}
