package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const timeout = 10 * time.Second

// apiBaseURL is a variable so tests can point the client at a local server
var apiBaseURL = "https://api.telegram.org/bot"

// InlineKeyboardButton is a single button below a message
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

// InlineKeyboardMarkup is the reply_markup of a message
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// URLButton returns a keyboard holding a single button that opens url
func URLButton(text, url string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{
			{{Text: text, URL: url}},
		},
	}
}

// SendOptions tunes a single sendMessage call
type SendOptions struct {
	Keyboard *InlineKeyboardMarkup
	// EnablePreview lets Telegram render a preview of the first link
	EnablePreview bool
}

// Client represents a Telegram Bot API client
type Client struct {
	botToken   string
	chatID     string
	httpClient *http.Client
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string) (*Client, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("chat ID is required")
	}

	return &Client{
		botToken: botToken,
		chatID:   chatID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// ChatID returns the destination chat of the client
func (c *Client) ChatID() string {
	return c.chatID
}

// SendMessage sends a text message to the configured chat
func (c *Client) SendMessage(ctx context.Context, text string) error {
	return c.SendTo(ctx, c.chatID, text, SendOptions{})
}

// Send sends a text message to the configured chat
func (c *Client) Send(ctx context.Context, text string, opts SendOptions) error {
	return c.SendTo(ctx, c.chatID, text, opts)
}

// SendTo sends a text message to an arbitrary chat, e.g. a reply to a command
func (c *Client) SendTo(ctx context.Context, chatID, text string, opts SendOptions) error {
	if text == "" {
		return fmt.Errorf("message text is required")
	}

	payload := map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": !opts.EnablePreview,
	}
	if opts.Keyboard != nil {
		payload["reply_markup"] = opts.Keyboard
	}

	return c.call(ctx, c.httpClient, "sendMessage", payload, nil)
}

// call posts payload to an API method and decodes the result field into out when non-nil
func (c *Client) call(ctx context.Context, httpClient *http.Client, method string, payload interface{}, out interface{}) error {
	url := fmt.Sprintf("%s%s/%s", apiBaseURL, c.botToken, method)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(body))
	}

	// Parse response to check for errors
	var result struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		Result      json.RawMessage `json:"result"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	if !result.OK {
		return fmt.Errorf("telegram API error: %s", result.Description)
	}

	if out != nil && len(result.Result) > 0 {
		if err := json.Unmarshal(result.Result, out); err != nil {
			return fmt.Errorf("decoding result: %w", err)
		}
	}

	return nil
}
