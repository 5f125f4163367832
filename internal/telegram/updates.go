package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// User represents a Telegram user
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Chat represents a Telegram chat
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// Message represents a Telegram message
type Message struct {
	MessageID int    `json:"message_id"`
	From      User   `json:"from"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
}

// ChatID returns the chat identifier in the form used by SendTo
func (m *Message) ChatID() string {
	return fmt.Sprintf("%d", m.Chat.ID)
}

// Command returns the lower-cased leading /command of the message without any
// @botname suffix. It returns "" when the message is not a command or when the
// suffix names a bot other than botUsername; an empty botUsername accepts any suffix.
func (m *Message) Command(botUsername string) string {
	parts := strings.Fields(m.Text)
	if len(parts) == 0 || !strings.HasPrefix(parts[0], "/") {
		return ""
	}
	command, target, addressed := strings.Cut(parts[0], "@")
	if addressed && botUsername != "" && !strings.EqualFold(target, strings.TrimPrefix(botUsername, "@")) {
		return ""
	}
	return strings.ToLower(command)
}

// Update is one entry returned by getUpdates
type Update struct {
	UpdateID int      `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// GetMe returns the bot's own account, used to recognize commands addressed to it
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, c.httpClient, "getMe", map[string]interface{}{}, &me); err != nil {
		return nil, fmt.Errorf("fetching bot account: %w", err)
	}
	return &me, nil
}

// GetUpdates long-polls for new updates starting at offset, waiting up to
// timeoutSeconds for one to arrive.
func (c *Client) GetUpdates(ctx context.Context, offset int, timeoutSeconds int) ([]Update, error) {
	payload := map[string]interface{}{
		"allowed_updates": []string{"message"},
	}
	if offset > 0 {
		payload["offset"] = offset
	}
	if timeoutSeconds > 0 {
		payload["timeout"] = timeoutSeconds
	}

	// Add extra time to HTTP client timeout to account for Telegram's long polling
	clientTimeout := time.Duration(timeoutSeconds+10) * time.Second
	if clientTimeout < 15*time.Second {
		clientTimeout = 15 * time.Second
	}
	pollClient := &http.Client{Timeout: clientTimeout}
	if c.httpClient != nil {
		pollClient.Transport = c.httpClient.Transport
	}

	var updates []Update
	if err := c.call(ctx, pollClient, "getUpdates", payload, &updates); err != nil {
		return nil, fmt.Errorf("fetching updates: %w", err)
	}
	return updates, nil
}
