package telegram

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/pfrederiksen/pervye-events/internal/event"
)

// FormatEvent formats a single event as a Telegram message with a button opening its page
func FormatEvent(evt *event.Event) (string, *InlineKeyboardMarkup) {
	var msg strings.Builder

	// Header with emoji
	msg.WriteString("🎯 <b>New event!</b>\n\n")

	msg.WriteString(fmt.Sprintf("📌 <b>%s</b>\n\n", html.EscapeString(evt.Title)))

	// Date only when the page provided one
	if evt.HasDate() {
		msg.WriteString(fmt.Sprintf("📅 %s\n\n", html.EscapeString(evt.Date)))
	}

	msg.WriteString(fmt.Sprintf("📄 %s\n\n", html.EscapeString(evt.Description)))

	msg.WriteString(fmt.Sprintf("🔗 <a href=\"%s\">Details</a>", html.EscapeString(evt.Link)))

	return msg.String(), URLButton("🔗 Open", evt.Link)
}

// FormatNoEvents is sent when a check finds no event cards at all
func FormatNoEvents() string {
	return "🔍 <b>Events check</b>\n\nNo events found on the site yet."
}

// FormatError formats a failure report for the destination chat
func FormatError(err error) string {
	return fmt.Sprintf("❌ <b>Bot error:</b>\n\n%s", html.EscapeString(err.Error()))
}

// FormatWelcome describes the bot and its commands
func FormatWelcome(siteURL string) string {
	host := siteURL
	if u, err := url.Parse(siteURL); err == nil && u.Host != "" {
		host = u.Host
	}

	return fmt.Sprintf(`✅ <b>Events bot is running!</b>

I check %s for new events and post them here.

<b>Commands:</b>
/check - check for events now
/test - test the connection to the site
/help - show this message`, html.EscapeString(host))
}

// FormatCheckStarted acknowledges an on-demand check
func FormatCheckStarted() string {
	return "🔍 Checking for events..."
}

// FormatCheckFinished reports the outcome of an on-demand check
func FormatCheckFinished(sent int) string {
	if sent == 0 {
		return "✅ Check finished! No new events."
	}
	noun := "event"
	if sent != 1 {
		noun = "events"
	}
	return fmt.Sprintf("✅ Check finished! Sent <b>%d</b> new %s.", sent, noun)
}

// FormatCheckBusy is the reply when a check is already running
func FormatCheckBusy() string {
	return "⏳ A check is already running, try again shortly."
}

// FormatProbeStarted acknowledges a connectivity test
func FormatProbeStarted() string {
	return "🔍 Testing the connection to the site..."
}

// FormatProbeResult reports a connectivity test: statusCode is the HTTP status
// received, or err when no response arrived.
func FormatProbeResult(statusCode int, err error) string {
	if err != nil {
		return fmt.Sprintf("❌ <b>Connection error:</b>\n\n%s", html.EscapeString(err.Error()))
	}

	status := "✅ Site reachable"
	if statusCode != 200 {
		status = fmt.Sprintf("❌ Site unreachable: %d", statusCode)
	}
	return fmt.Sprintf("<b>Connection test:</b>\n\n%s\nResponse code: %d", status, statusCode)
}
