package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/pervye-events/internal/bot"
	"github.com/pfrederiksen/pervye-events/internal/config"
	"github.com/pfrederiksen/pervye-events/internal/cycle"
	"github.com/pfrederiksen/pervye-events/internal/logger"
	"github.com/pfrederiksen/pervye-events/internal/metrics"
	"github.com/pfrederiksen/pervye-events/internal/notifier"
	"github.com/pfrederiksen/pervye-events/internal/scraper"
	"github.com/pfrederiksen/pervye-events/internal/storage"
	"github.com/pfrederiksen/pervye-events/internal/telegram"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// DefaultSentLimit is how many rows `sent` prints without --limit
const DefaultSentLimit = 20

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "pervye-events",
		Short: "Announce new events from projects.pervye.ru in a Telegram chat",
		Long: `A bot that checks the events listing on projects.pervye.ru and posts
events it has not announced before to a Telegram chat.

Secrets are read from the environment (BOT_TOKEN, CHAT_ID) or a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	cmd.AddCommand(
		newRunCmd(&configPath),
		newCheckCmd(&configPath),
		newTestCmd(&configPath),
		newSentCmd(&configPath),
	)

	return cmd
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot: answer commands and check on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), *configPath)
		},
	}
}

func newCheckCmd(configPath *string) *cobra.Command {
	var (
		dryRun bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a single check cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), *configPath, dryRun, f)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print messages instead of sending them and do not record anything")
	cmd.Flags().StringVar(&format, "format", string(FormatText), "Output format: text or json")

	return cmd
}

func newTestCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test the connection to the events site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd.Context(), cmd.OutOrStdout(), *configPath)
		},
	}
}

func newSentCmd(configPath *string) *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "sent",
		Short: "List events that were already announced, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			return runSent(cmd.Context(), cmd.OutOrStdout(), *configPath, limit, f)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultSentLimit, "Maximum number of events to list (0 = all)")
	cmd.Flags().StringVar(&format, "format", string(FormatText), "Output format: text or json")

	return cmd
}

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// loadConfig reads the configuration and installs the default logger
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.SetDefault(logger.New(level, os.Stderr))

	return cfg, nil
}

// runBot is the long-running mode: polling, scheduler and optional metrics listener
func runBot(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()

	client, err := telegram.NewClient(cfg.BotToken, cfg.ChatID)
	if err != nil {
		return fmt.Errorf("creating telegram client: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, reg)
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error("Metrics listener stopped", logger.Fields{"addr": cfg.MetricsAddr}, err)
			}
		}()
		logger.Info("Serving metrics", logger.Fields{"addr": cfg.MetricsAddr})
	}

	sc := scraper.New(cfg.BaseURL, cfg.FetchTimeout, cfg.ProbeTimeout)
	runner := cycle.New(
		sc,
		scraper.NewExtractor(cfg.BaseURL, cfg.MaxCards),
		store,
		notifier.NewTelegramNotifier(client),
		cycle.Options{
			MaxPerCycle: cfg.MaxPerCycle,
			SendDelay:   cfg.SendDelay,
			Metrics:     m,
		},
	)

	var username string
	if me, err := client.GetMe(ctx); err != nil {
		logger.Warn("Could not look up bot account, accepting commands addressed to any bot", logger.Fields{"error": err.Error()})
	} else {
		username = me.Username
	}

	b := bot.New(client, runner, sc, bot.Options{
		SiteURL:       cfg.BaseURL,
		CheckInterval: cfg.CheckInterval,
		PollTimeout:   cfg.PollTimeout,
		Username:      username,
		Metrics:       m,
	})
	return b.Run(ctx)
}

// runCheck runs one cycle and reports its result on out. Dry-run messages go to
// out as well, except with JSON output where they go to errOut.
func runCheck(ctx context.Context, out, errOut io.Writer, configPath string, dryRun bool, format OutputFormat) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	var n notifier.Notifier
	if dryRun {
		messages := out
		if format == FormatJSON {
			messages = errOut
		}
		n = notifier.NewDryRunNotifier(messages)
	} else {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		client, err := telegram.NewClient(cfg.BotToken, cfg.ChatID)
		if err != nil {
			return fmt.Errorf("creating telegram client: %w", err)
		}
		n = notifier.NewTelegramNotifier(client)
	}

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()

	opts := cycle.Options{
		MaxPerCycle: cfg.MaxPerCycle,
		SendDelay:   cfg.SendDelay,
		DryRun:      dryRun,
	}
	if dryRun {
		opts.SendDelay = 0
	}

	runner := cycle.New(
		scraper.New(cfg.BaseURL, cfg.FetchTimeout, cfg.ProbeTimeout),
		scraper.NewExtractor(cfg.BaseURL, cfg.MaxCards),
		store, n, opts,
	)

	res := runner.Run(ctx)
	if err := WriteResult(out, res, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return res.Err
}

// runProbe fetches the site once and reports the status code
func runProbe(ctx context.Context, out io.Writer, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	sc := scraper.New(cfg.BaseURL, cfg.FetchTimeout, cfg.ProbeTimeout)
	code, err := sc.Probe(ctx)
	WriteProbe(out, sc.URL(), code, err)
	if err != nil {
		return err
	}
	if code != 200 {
		return &scraper.StatusError{StatusCode: code}
	}
	return nil
}

// runSent lists the dedup table
func runSent(ctx context.Context, out io.Writer, configPath string, limit int, format OutputFormat) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()

	total, err := store.Count(ctx)
	if err != nil {
		return err
	}
	records, err := store.List(ctx, limit)
	if err != nil {
		return err
	}

	if err := WriteSent(out, records, total, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, config.ErrMissingBotToken) || errors.Is(err, config.ErrMissingChatID) {
			fmt.Fprintln(os.Stderr, "Set BOT_TOKEN and CHAT_ID in the environment or a .env file.")
		}
		os.Exit(ExitError)
	}
}
