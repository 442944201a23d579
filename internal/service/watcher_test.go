package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bdo-market-watch/internal/model"
	"bdo-market-watch/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNotifier records every event it is asked to deliver.
type fakeNotifier struct {
	mu      sync.Mutex
	events  []model.ChangeEvent
	outcome notify.Outcome
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{outcome: notify.Outcome{Status: notify.StatusDelivered}}
}

func (f *fakeNotifier) Notify(_ context.Context, event model.ChangeEvent) notify.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.outcome
}

func (f *fakeNotifier) Events() []model.ChangeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ChangeEvent(nil), f.events...)
}

func testWatcherConfig() WatcherConfig {
	return WatcherConfig{
		Interval:     time.Hour,
		PaceDelay:    time.Millisecond,
		FetchTimeout: time.Second,
	}
}

func TestWatcher_PassEmitsIncreaseAndUpdatesStore(t *testing.T) {
	repo := newItemRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, model.TrackedItem{
		ItemID: 10007, SID: 0, Name: "Kzarka Longsword",
		LastPrice: 100000, LastStock: 2, AddedAt: 1700000000000,
	}))

	source := &fakeSource{snapshots: map[string]model.RemoteSnapshot{
		"10007:0": {Name: "Kzarka Longsword", Price: 120000, Stock: 4, LastSoldTime: 1700000500},
	}}
	notifier := newFakeNotifier()
	w := NewWatcher(repo, source, notifier, testWatcherConfig())

	report, err := w.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Notified)
	assert.Empty(t, report.Failures)

	events := notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.DirectionIncrease, events[0].Direction)
	assert.EqualValues(t, 100000, events[0].OldPrice)
	assert.EqualValues(t, 120000, events[0].NewPrice)

	stored, err := repo.Get(ctx, 10007, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 120000, stored.LastPrice)
	assert.EqualValues(t, 4, stored.LastStock)
	assert.EqualValues(t, 1700000500, stored.LastSoldTime)
}

func TestWatcher_ZeroBaselineSeedsSilently(t *testing.T) {
	repo := newItemRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, model.TrackedItem{
		ItemID: 10007, SID: 0, Name: "Kzarka Longsword", LastPrice: 0,
	}))

	source := &fakeSource{snapshots: map[string]model.RemoteSnapshot{
		"10007:0": {Name: "Kzarka Longsword", Price: 50000, Stock: 1},
	}}
	notifier := newFakeNotifier()
	w := NewWatcher(repo, source, notifier, testWatcherConfig())

	report, err := w.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Notified)
	assert.Empty(t, notifier.Events())

	stored, err := repo.Get(ctx, 10007, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 50000, stored.LastPrice)
}

func TestWatcher_NoChangeStillUpdatesSnapshot(t *testing.T) {
	repo := newItemRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, model.TrackedItem{
		ItemID: 10007, SID: 0, Name: "Kzarka Longsword",
		LastPrice: 100000, LastStock: 2, LastSoldTime: 1700000000,
	}))

	source := &fakeSource{snapshots: map[string]model.RemoteSnapshot{
		"10007:0": {Name: "Kzarka Longsword", Price: 100000, Stock: 9, LastSoldTime: 1700000900},
	}}
	notifier := newFakeNotifier()
	w := NewWatcher(repo, source, notifier, testWatcherConfig())

	_, err := w.RunNow(ctx)
	require.NoError(t, err)
	assert.Empty(t, notifier.Events())

	stored, err := repo.Get(ctx, 10007, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 9, stored.LastStock)
	assert.EqualValues(t, 1700000900, stored.LastSoldTime)
}

func TestWatcher_OneFailureDoesNotAbortPass(t *testing.T) {
	repo := newItemRepo(t)
	ctx := context.Background()
	for _, id := range []int{10007, 11607, 12094} {
		require.NoError(t, repo.Add(ctx, model.TrackedItem{
			ItemID: id, SID: 0, Name: "Item", LastPrice: 1000,
		}))
	}

	source := &fakeSource{
		snapshots: map[string]model.RemoteSnapshot{
			"10007:0": {Name: "Item", Price: 1000},
			"12094:0": {Name: "Item", Price: 2000},
		},
		errs: map[string]error{
			"11607:0": errors.New("connection reset"),
		},
	}
	notifier := newFakeNotifier()
	w := NewWatcher(repo, source, notifier, testWatcherConfig())

	report, err := w.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 11607, report.Failures[0].ItemID)

	// The failed item keeps its old baseline; the others are updated.
	stale, err := repo.Get(ctx, 11607, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, stale.LastPrice)

	moved, err := repo.Get(ctx, 12094, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2000, moved.LastPrice)
}

func TestWatcher_FailedDeliveryIsNotCounted(t *testing.T) {
	repo := newItemRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, model.TrackedItem{
		ItemID: 10007, SID: 0, Name: "Kzarka Longsword", LastPrice: 100000,
	}))

	source := &fakeSource{snapshots: map[string]model.RemoteSnapshot{
		"10007:0": {Name: "Kzarka Longsword", Price: 90000},
	}}
	notifier := newFakeNotifier()
	notifier.outcome = notify.Outcome{Status: notify.StatusFailed, Err: errors.New("boom")}
	w := NewWatcher(repo, source, notifier, testWatcherConfig())

	report, err := w.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Notified)
	assert.Equal(t, 1, report.Succeeded)

	// Delivery loss never blocks the baseline update.
	stored, err := repo.Get(ctx, 10007, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 90000, stored.LastPrice)
}

// blockingSource parks the first fetch until released, so a second pass can
// be attempted mid-flight.
type blockingSource struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSource) FetchItem(ctx context.Context, _, _ int) (*model.RemoteSnapshot, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &model.RemoteSnapshot{Name: "Item", Price: 1000}, nil
}

func TestWatcher_ConcurrentPassesAreSerialized(t *testing.T) {
	repo := newItemRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, model.TrackedItem{ItemID: 10007, SID: 0, Name: "Item", LastPrice: 1000}))

	source := &blockingSource{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	w := NewWatcher(repo, source, newFakeNotifier(), testWatcherConfig())

	done := make(chan error, 1)
	go func() {
		_, err := w.RunNow(ctx)
		done <- err
	}()

	<-source.started
	assert.Equal(t, model.WatcherRunning, w.State())

	_, err := w.RunNow(ctx)
	assert.ErrorIs(t, err, ErrCheckInProgress)

	close(source.release)
	require.NoError(t, <-done)
	assert.Equal(t, model.WatcherIdle, w.State())
	assert.NotNil(t, w.LastReport())
}

func TestWatcher_StopStateAndRepoFailure(t *testing.T) {
	repo := newItemRepo(t)
	w := NewWatcher(repo, &fakeSource{}, newFakeNotifier(), testWatcherConfig())

	w.Start()
	w.Stop()

	// Let any in-flight initial pass drain before checking the state.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, model.WatcherStopped, w.State())

	// Stop is idempotent.
	w.Stop()
	assert.Equal(t, model.WatcherStopped, w.State())
}
