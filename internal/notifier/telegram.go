package notifier

import (
	"context"
	"fmt"

	"github.com/pfrederiksen/pervye-events/internal/event"
	"github.com/pfrederiksen/pervye-events/internal/telegram"
)

// Sender posts a message to the configured chat; *telegram.Client implements it
type Sender interface {
	Send(ctx context.Context, text string, opts telegram.SendOptions) error
}

// TelegramNotifier posts events to the configured Telegram chat
type TelegramNotifier struct {
	client Sender
}

// NewTelegramNotifier creates a notifier sending through client
func NewTelegramNotifier(client Sender) *TelegramNotifier {
	return &TelegramNotifier{client: client}
}

// NotifyEvent sends the event with an "open" button and link preview enabled
func (n *TelegramNotifier) NotifyEvent(ctx context.Context, evt *event.Event) error {
	text, keyboard := telegram.FormatEvent(evt)
	err := n.client.Send(ctx, text, telegram.SendOptions{
		Keyboard:      keyboard,
		EnablePreview: true,
	})
	if err != nil {
		return fmt.Errorf("sending event %s: %w", evt.ID, err)
	}
	return nil
}

// NotifyText sends a plain notice
func (n *TelegramNotifier) NotifyText(ctx context.Context, text string) error {
	if err := n.client.Send(ctx, text, telegram.SendOptions{}); err != nil {
		return fmt.Errorf("sending notice: %w", err)
	}
	return nil
}
