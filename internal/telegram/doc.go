// Package telegram provides Telegram Bot API integration for the events bot.
//
// The package sends HTML-formatted messages, optionally with an inline URL button,
// and long-polls for incoming commands using simple HTTP requests against the
// Bot API. No external dependencies required - uses only the standard library.
//
// Authentication requires a bot token (from @BotFather) and chat ID.
package telegram
