// Package bot serves the chat command surface over Telegram long polling and
// triggers the check cycle on a fixed interval.
package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sync"
	"time"

	"github.com/pfrederiksen/pervye-events/internal/cycle"
	"github.com/pfrederiksen/pervye-events/internal/logger"
	"github.com/pfrederiksen/pervye-events/internal/metrics"
	"github.com/pfrederiksen/pervye-events/internal/telegram"
)

const (
	DefaultCheckInterval = 2 * time.Hour
	DefaultPollTimeout   = 30 * time.Second
	DefaultRetryDelay    = 5 * time.Second
)

// API is the part of the Telegram client the bot needs
type API interface {
	GetUpdates(ctx context.Context, offset int, timeoutSeconds int) ([]telegram.Update, error)
	SendTo(ctx context.Context, chatID, text string, opts telegram.SendOptions) error
}

// Cycler runs one check cycle
type Cycler interface {
	Run(ctx context.Context) cycle.Result
}

// Prober reports the HTTP status of the events site
type Prober interface {
	Probe(ctx context.Context) (int, error)
}

// Options tunes a Bot
type Options struct {
	SiteURL       string
	CheckInterval time.Duration
	PollTimeout   time.Duration
	// Username is the bot's own username; commands addressed to other bots are ignored
	Username string
	// RetryDelay is the pause after a failed getUpdates call
	RetryDelay time.Duration
	Metrics    *metrics.Metrics
}

// Bot answers commands and runs scheduled checks
type Bot struct {
	api    API
	runner Cycler
	prober Prober
	opts   Options
}

// New creates a Bot
func New(api API, runner Cycler, prober Prober, opts Options) *Bot {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &Bot{api: api, runner: runner, prober: prober, opts: opts}
}

// Run starts the scheduler and the polling loop and blocks until ctx is
// cancelled. It returns nil on a clean shutdown.
func (b *Bot) Run(ctx context.Context) error {
	logger.Info("Bot started", logger.Fields{
		"site":     b.opts.SiteURL,
		"interval": b.opts.CheckInterval.String(),
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.Schedule(ctx)
	}()

	b.Poll(ctx)
	wg.Wait()

	logger.Info("Bot stopped", nil)
	return nil
}

// Schedule runs a cycle immediately and then once per CheckInterval until ctx
// is cancelled.
func (b *Bot) Schedule(ctx context.Context) {
	ticker := time.NewTicker(b.opts.CheckInterval)
	defer ticker.Stop()

	for {
		b.scheduledCheck(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (b *Bot) scheduledCheck(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res := b.runner.Run(ctx)
	if errors.Is(res.Err, cycle.ErrCycleInProgress) {
		logger.Info("Scheduled check skipped, a check is already running", nil)
	}
}

// Poll long-polls for updates and dispatches them until ctx is cancelled
func (b *Bot) Poll(ctx context.Context) {
	offset := 0
	timeout := int(b.opts.PollTimeout / time.Second)

	for ctx.Err() == nil {
		updates, err := b.api.GetUpdates(ctx, offset, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Error getting updates", nil, err)
			// Brief pause before retrying
			select {
			case <-ctx.Done():
				return
			case <-time.After(b.opts.RetryDelay):
			}
			continue
		}

		for _, update := range updates {
			b.HandleUpdate(ctx, update)

			// Update offset to mark this update as processed
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
		}
	}
}

// HandleUpdate dispatches a single update
func (b *Bot) HandleUpdate(ctx context.Context, update telegram.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	command := msg.Command(b.opts.Username)
	if command == "" {
		return
	}

	chatID := msg.ChatID()
	logger.Info("Command received", logger.Fields{
		"command": command,
		"chat_id": chatID,
		"from":    msg.From.Username,
	})
	b.opts.Metrics.Command(commandLabel(command))

	switch command {
	case "/start":
		b.handleStart(ctx, chatID)
	case "/check":
		b.handleCheck(ctx, chatID)
	case "/test":
		b.handleTest(ctx, chatID)
	case "/help":
		b.reply(ctx, chatID, telegram.FormatWelcome(b.opts.SiteURL))
	default:
		b.reply(ctx, chatID, unknownCommand(command))
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID string) {
	b.reply(ctx, chatID, telegram.FormatWelcome(b.opts.SiteURL))
	if res := b.runner.Run(ctx); errors.Is(res.Err, cycle.ErrCycleInProgress) {
		b.reply(ctx, chatID, telegram.FormatCheckBusy())
	}
}

func (b *Bot) handleCheck(ctx context.Context, chatID string) {
	b.reply(ctx, chatID, telegram.FormatCheckStarted())

	res := b.runner.Run(ctx)
	if errors.Is(res.Err, cycle.ErrCycleInProgress) {
		b.reply(ctx, chatID, telegram.FormatCheckBusy())
		return
	}
	b.reply(ctx, chatID, telegram.FormatCheckFinished(res.Sent))
}

func (b *Bot) handleTest(ctx context.Context, chatID string) {
	b.reply(ctx, chatID, telegram.FormatProbeStarted())

	code, err := b.prober.Probe(ctx)
	if err != nil {
		logger.Warn("Connectivity test failed", logger.Fields{"error": err.Error()})
	}
	b.reply(ctx, chatID, telegram.FormatProbeResult(code, err))
}

// reply sends text to the chat a command came from
func (b *Bot) reply(ctx context.Context, chatID, text string) {
	err := b.api.SendTo(ctx, chatID, text, telegram.SendOptions{})
	b.opts.Metrics.Notification(metrics.KindNotice, err)
	if err != nil {
		logger.Error("Error sending reply", logger.Fields{"chat_id": chatID}, err)
	}
}

// commandLabel keeps the metric label set bounded
func commandLabel(command string) string {
	switch command {
	case "/start", "/check", "/test", "/help":
		return command
	}
	return "unknown"
}

func unknownCommand(command string) string {
	return fmt.Sprintf("Unknown command: %s\n\nUse /help to see available commands.", html.EscapeString(command))
}
