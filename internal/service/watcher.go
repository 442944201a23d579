package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"bdo-market-watch/internal/model"
	"bdo-market-watch/internal/notify"
	"bdo-market-watch/internal/repository"
)

// ErrCheckInProgress is returned by RunNow while another pass is running.
// Passes are strictly serialized; a trigger is rejected, never queued.
var ErrCheckInProgress = errors.New("a market check is already running")

// WatcherConfig holds configuration for the poll scheduler.
type WatcherConfig struct {
	// Interval between passes. Default: 5 minutes.
	Interval time.Duration

	// PaceDelay is the sleep between item fetches within a pass, so the
	// market API is never hit in a burst. Default: 500ms.
	PaceDelay time.Duration

	// FetchTimeout bounds one item fetch. Default: 10s.
	FetchTimeout time.Duration
}

// DefaultWatcherConfig returns default watcher configuration.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		Interval:     5 * time.Minute,
		PaceDelay:    500 * time.Millisecond,
		FetchTimeout: 10 * time.Second,
	}
}

// Watcher drives the poll loop: on every tick it walks the tracked set,
// fetches each item, emits a notification when the price moved, and always
// writes the fresh snapshot back to the store. One Watcher is constructed per
// process and passed to whoever needs start/stop/trigger.
type Watcher struct {
	repo     repository.ItemRepository
	source   PriceSource
	notifier notify.Notifier
	config   WatcherConfig

	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once

	mu         sync.Mutex
	state      model.WatcherState
	started    bool
	lastReport *model.PassReport
}

// NewWatcher creates a new watcher. Zero config fields take defaults.
func NewWatcher(repo repository.ItemRepository, source PriceSource, notifier notify.Notifier, config WatcherConfig) *Watcher {
	if config.Interval == 0 {
		config.Interval = 5 * time.Minute
	}
	if config.PaceDelay == 0 {
		config.PaceDelay = 500 * time.Millisecond
	}
	if config.FetchTimeout == 0 {
		config.FetchTimeout = 10 * time.Second
	}

	return &Watcher{
		repo:     repo,
		source:   source,
		notifier: notifier,
		config:   config,
		stopCh:   make(chan struct{}),
		state:    model.WatcherIdle,
	}
}

// Start runs one pass immediately, then arms the interval timer.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.ticker = time.NewTicker(w.config.Interval)
	w.mu.Unlock()

	log.Printf("[Watcher] Started - Interval: %v, Pace: %v", w.config.Interval, w.config.PaceDelay)

	go func() {
		if _, err := w.runPass(context.Background(), "timer"); err != nil {
			log.Printf("[Watcher] Initial pass skipped: %v", err)
		}
		w.run()
	}()
}

// run is the main poll loop.
func (w *Watcher) run() {
	for {
		select {
		case <-w.ticker.C:
			if _, err := w.runPass(context.Background(), "timer"); err != nil {
				log.Printf("[Watcher] Pass skipped: %v", err)
			}
		case <-w.stopCh:
			log.Printf("[Watcher] Stopped")
			return
		}
	}
}

// Stop disarms the timer. A pass already in flight runs to completion.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		if w.ticker != nil {
			w.ticker.Stop()
		}
		close(w.stopCh)
		w.started = false
		w.state = model.WatcherStopped
	})
}

// RunNow performs one pass synchronously. The pass contract is identical to a
// timer-driven pass. Returns ErrCheckInProgress if a pass is mid-flight.
func (w *Watcher) RunNow(ctx context.Context) (*model.PassReport, error) {
	return w.runPass(ctx, "manual")
}

// State returns the current lifecycle state.
func (w *Watcher) State() model.WatcherState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Interval returns the configured poll interval.
func (w *Watcher) Interval() time.Duration {
	return w.config.Interval
}

// LastReport returns the most recent pass report, or nil before the first
// pass completes.
func (w *Watcher) LastReport() *model.PassReport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastReport
}

// runPass walks the tracked set once. A single item's failure never aborts
// the pass; every tracked item is attempted exactly once.
func (w *Watcher) runPass(ctx context.Context, trigger string) (*model.PassReport, error) {
	w.mu.Lock()
	if w.state == model.WatcherRunning {
		w.mu.Unlock()
		return nil, ErrCheckInProgress
	}
	if w.state == model.WatcherStopped && trigger == "timer" {
		w.mu.Unlock()
		return nil, errors.New("watcher is stopped")
	}
	w.state = model.WatcherRunning
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		select {
		case <-w.stopCh:
			w.state = model.WatcherStopped
		default:
			w.state = model.WatcherIdle
		}
		w.mu.Unlock()
	}()

	report := &model.PassReport{
		StartedAt:   time.Now(),
		TriggeredBy: trigger,
	}

	items, err := w.repo.List(ctx)
	if err != nil {
		// Cannot even enumerate; report an empty pass rather than fail it.
		log.Printf("[Watcher] Failed to list tracked items: %v", err)
		report.Duration = time.Since(report.StartedAt)
		w.setReport(report)
		return report, nil
	}

	for i, item := range items {
		w.checkItem(ctx, item, report)

		if i < len(items)-1 {
			if err := w.pace(ctx); err != nil {
				// Context gone; record the remainder as skipped and bail.
				for _, rest := range items[i+1:] {
					report.Failures = append(report.Failures, model.ItemFailure{
						ItemID: rest.ItemID,
						SID:    rest.SID,
						Reason: "pass interrupted",
					})
					report.Attempted++
				}
				break
			}
		}
	}

	report.Duration = time.Since(report.StartedAt)
	log.Printf("[Watcher] Pass complete (%s): %d attempted, %d succeeded, %d notified, %d failed in %v",
		trigger, report.Attempted, report.Succeeded, report.Notified, len(report.Failures), report.Duration)

	w.setReport(report)
	return report, nil
}

// checkItem fetches one item, diffs it against the baseline, notifies on a
// change, and unconditionally writes the fresh snapshot back.
func (w *Watcher) checkItem(ctx context.Context, item model.TrackedItem, report *model.PassReport) {
	report.Attempted++

	fetchCtx, cancel := context.WithTimeout(ctx, w.config.FetchTimeout)
	snap, err := w.source.FetchItem(fetchCtx, item.ItemID, item.SID)
	cancel()
	if err != nil {
		log.Printf("[Watcher] Fetch failed for item %d sid %d: %v", item.ItemID, item.SID, err)
		report.Failures = append(report.Failures, model.ItemFailure{
			ItemID: item.ItemID,
			SID:    item.SID,
			Reason: fmt.Sprintf("fetch failed: %v", err),
		})
		return
	}

	if event := Detect(item, *snap); event != nil {
		outcome := w.notifier.Notify(ctx, *event)
		switch outcome.Status {
		case notify.StatusDelivered:
			report.Notified++
		case notify.StatusFailed:
			log.Printf("[Watcher] Notification lost for %s (%s %d -> %d): %v",
				event.ItemName, event.Direction, event.OldPrice, event.NewPrice, outcome.Err)
		}
	}

	// The baseline always reflects the latest fetch, changed or not.
	if _, err := w.repo.Update(ctx, item.ItemID, item.SID, model.SnapshotPatch(*snap)); err != nil {
		log.Printf("[Watcher] Update failed for item %d sid %d: %v", item.ItemID, item.SID, err)
		report.Failures = append(report.Failures, model.ItemFailure{
			ItemID: item.ItemID,
			SID:    item.SID,
			Reason: fmt.Sprintf("store update failed: %v", err),
		})
		return
	}

	report.Succeeded++
}

// pace sleeps the configured delay between items, honoring ctx.
func (w *Watcher) pace(ctx context.Context) error {
	select {
	case <-time.After(w.config.PaceDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Watcher) setReport(report *model.PassReport) {
	w.mu.Lock()
	w.lastReport = report
	w.mu.Unlock()
}
