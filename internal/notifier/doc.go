// Package notifier provides the notification interface used by the check cycle.
//
// Notifications go to a single destination chat. The Telegram implementation
// posts formatted messages with a button linking to the event; the dry-run
// implementation prints what would be sent.
package notifier
