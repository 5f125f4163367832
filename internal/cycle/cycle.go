// Package cycle runs one end-to-end check: fetch the listing page, extract
// events, drop the ones already announced, notify the rest and remember them.
//
// A Runner never executes two cycles at once; an overlapping call returns
// ErrCycleInProgress immediately. All state between cycles lives in the Store.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/pervye-events/internal/event"
	"github.com/pfrederiksen/pervye-events/internal/logger"
	"github.com/pfrederiksen/pervye-events/internal/metrics"
	"github.com/pfrederiksen/pervye-events/internal/notifier"
	"github.com/pfrederiksen/pervye-events/internal/telegram"
)

// ErrCycleInProgress is returned when Run is called while another cycle is running
var ErrCycleInProgress = errors.New("check cycle already in progress")

// DefaultMaxPerCycle is used when Options leaves MaxPerCycle unset
const DefaultMaxPerCycle = 3

// Fetcher downloads the listing page
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Extractor turns the listing page into events
type Extractor interface {
	ExtractBytes(markup []byte) ([]*event.Event, error)
}

// Store remembers which events were already announced
type Store interface {
	HasBeenSent(ctx context.Context, eventID string) (bool, error)
	MarkSent(ctx context.Context, eventID, title string, now time.Time) error
}

// Options tunes a Runner
type Options struct {
	// MaxPerCycle is how many extracted events, in page order, are considered per cycle
	MaxPerCycle int
	// SendDelay is the pause between consecutive event messages; zero disables it
	SendDelay time.Duration
	// DryRun skips store writes; pair it with a dry-run notifier
	DryRun  bool
	Metrics *metrics.Metrics
}

// Result summarizes one cycle
type Result struct {
	RunID     string
	Extracted int
	Sent      int
	Skipped   int
	Failed    int
	Err       error
}

// Runner executes check cycles
type Runner struct {
	fetcher   Fetcher
	extractor Extractor
	store     Store
	notifier  notifier.Notifier
	opts      Options

	mu    sync.Mutex
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Runner
func New(f Fetcher, x Extractor, s Store, n notifier.Notifier, opts Options) *Runner {
	if opts.MaxPerCycle <= 0 {
		opts.MaxPerCycle = DefaultMaxPerCycle
	}
	if opts.SendDelay < 0 {
		opts.SendDelay = 0
	}
	return &Runner{
		fetcher:   f,
		extractor: x,
		store:     s,
		notifier:  n,
		opts:      opts,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Run executes one cycle. Failures are logged and, where appropriate, reported
// to the destination; the returned Result carries the cycle-level error if any.
func (r *Runner) Run(ctx context.Context) (res Result) {
	if !r.mu.TryLock() {
		r.opts.Metrics.CycleFinished(metrics.ResultBusy)
		logger.Warn("Skipping check, another cycle is running", nil)
		return Result{Err: ErrCycleInProgress}
	}
	defer r.mu.Unlock()

	res.RunID = uuid.NewString()
	fields := logger.Fields{"run_id": res.RunID}
	start := r.now()
	logger.Info("Starting events check", fields)

	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("unexpected failure: %v", p)
			r.fail(ctx, res.RunID, res.Err)
		}
	}()

	fetchStart := time.Now()
	markup, err := r.fetcher.Fetch(ctx)
	r.opts.Metrics.FetchDuration(time.Since(fetchStart))
	if err != nil {
		res.Err = fmt.Errorf("fetching events page: %w", err)
		logger.Error("Fetch failed, aborting cycle", fields, err)
		r.notice(ctx, telegram.FormatError(res.Err))
		r.opts.Metrics.CycleFinished(metrics.ResultFetchError)
		return res
	}

	events, err := r.extractor.ExtractBytes(markup)
	if err != nil {
		res.Err = fmt.Errorf("extracting events: %w", err)
		r.fail(ctx, res.RunID, res.Err)
		return res
	}
	res.Extracted = len(events)
	r.opts.Metrics.Extracted(len(events))
	logger.Info("Events extracted", logger.Fields{"run_id": res.RunID, "count": len(events)})

	if len(events) == 0 {
		r.notice(ctx, telegram.FormatNoEvents())
		r.opts.Metrics.CycleFinished(metrics.ResultNoEvents)
		return res
	}

	if len(events) > r.opts.MaxPerCycle {
		events = events[:r.opts.MaxPerCycle]
	}

	attempted := 0
	for _, evt := range events {
		sent, err := r.store.HasBeenSent(ctx, evt.ID)
		if err != nil {
			res.Failed++
			logger.Error("Dedup lookup failed", logger.Fields{"run_id": res.RunID, "event_id": evt.ID}, err)
			continue
		}
		if sent {
			res.Skipped++
			continue
		}

		if attempted > 0 {
			if err := r.sleep(ctx, r.opts.SendDelay); err != nil {
				res.Err = err
				logger.Warn("Cycle interrupted", logger.Fields{"run_id": res.RunID})
				return res
			}
		}
		attempted++

		if r.sendEvent(ctx, res.RunID, evt) {
			res.Sent++
		} else {
			res.Failed++
		}
	}

	logger.Info("Events check finished", logger.Fields{
		"run_id":    res.RunID,
		"extracted": res.Extracted,
		"sent":      res.Sent,
		"skipped":   res.Skipped,
		"failed":    res.Failed,
		"duration":  r.now().Sub(start).String(),
	})
	r.opts.Metrics.CycleFinished(metrics.ResultOK)
	return res
}

// sendEvent notifies one event and records it; it reports whether the message went out
func (r *Runner) sendEvent(ctx context.Context, runID string, evt *event.Event) bool {
	fields := logger.Fields{"run_id": runID, "event_id": evt.ID, "title": evt.Title}

	err := r.notifier.NotifyEvent(ctx, evt)
	r.opts.Metrics.Notification(metrics.KindEvent, err)
	if err != nil {
		logger.Error("Send failed", fields, err)
		return false
	}

	if !r.opts.DryRun {
		if err := r.store.MarkSent(ctx, evt.ID, evt.Title, r.now()); err != nil {
			logger.Error("Could not record sent event", fields, err)
		}
	}

	logger.Info("Event sent", fields)
	return true
}

// notice sends a text message, logging rather than returning failures
func (r *Runner) notice(ctx context.Context, text string) {
	err := r.notifier.NotifyText(ctx, text)
	r.opts.Metrics.Notification(metrics.KindNotice, err)
	if err != nil {
		logger.Error("Notice not delivered", nil, err)
	}
}

// fail reports a cycle-level failure to the destination
func (r *Runner) fail(ctx context.Context, runID string, err error) {
	logger.Error("Events check failed", logger.Fields{"run_id": runID}, err)
	r.notice(ctx, telegram.FormatError(err))
	r.opts.Metrics.CycleFinished(metrics.ResultError)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
