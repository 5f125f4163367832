package notifier

import (
	"context"
	"fmt"
	"io"

	"github.com/pfrederiksen/pervye-events/internal/event"
	"github.com/pfrederiksen/pervye-events/internal/telegram"
)

// DryRunNotifier prints what would be sent without actually posting
type DryRunNotifier struct {
	out   io.Writer
	count int
}

// NewDryRunNotifier creates a new dry-run notifier writing to out
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	return &DryRunNotifier{out: out}
}

// NotifyEvent prints the message that would be posted for evt
func (n *DryRunNotifier) NotifyEvent(_ context.Context, evt *event.Event) error {
	msg, keyboard := telegram.FormatEvent(evt)
	n.count++
	fmt.Fprintf(n.out, "--- Message %d ---\n", n.count)
	fmt.Fprintln(n.out, msg)
	for _, row := range keyboard.InlineKeyboard {
		for _, button := range row {
			fmt.Fprintf(n.out, "[%s] -> %s\n", button.Text, button.URL)
		}
	}
	fmt.Fprintf(n.out, "\n(Length: %d characters)\n\n", len(msg))
	return nil
}

// NotifyText prints a notice that would be posted
func (n *DryRunNotifier) NotifyText(_ context.Context, text string) error {
	n.count++
	fmt.Fprintf(n.out, "--- Message %d ---\n", n.count)
	fmt.Fprintf(n.out, "%s\n\n", text)
	return nil
}
