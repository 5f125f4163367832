package notifier

import (
	"context"

	"github.com/pfrederiksen/pervye-events/internal/event"
)

// Notifier defines the interface for posting notifications to the destination
type Notifier interface {
	// NotifyEvent announces a new event
	NotifyEvent(ctx context.Context, evt *event.Event) error
	// NotifyText posts a preformatted HTML notice (no events, errors)
	NotifyText(ctx context.Context, text string) error
}
