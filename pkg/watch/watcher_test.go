package watch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"poolwatch/pkg/core"
)

type fakeFeeder struct {
	mu       sync.Mutex
	pool     core.PoolSnapshot
	poolErr  error
	trades   []core.Trade
	tradeErr error
}

func (f *fakeFeeder) Pool(context.Context) (core.PoolSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pool, f.poolErr
}

func (f *fakeFeeder) Trades(context.Context) ([]core.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trades, f.tradeErr
}

func (f *fakeFeeder) setPool(snapshot core.PoolSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pool = snapshot
}

func testSettings() core.Settings {
	return core.Settings{
		Network:     "hyperevm",
		PoolAddress: "0xe9c02ca07931f9670fa87217372b3c9aa5a8a934",
		Interval:    time.Minute,
	}
}

func newTestWatcher(t *testing.T, feeder core.Feeder) (*Watcher, *fakeNotifier) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	watcher := NewWatcher(ctx, testSettings(), feeder, nopLogger())
	notifier := newFakeNotifier()
	watcher.SetNotifier(notifier)
	return watcher, notifier
}

func snapshotWithFDV(fdv string) core.PoolSnapshot {
	return core.PoolSnapshot{
		Name:               "WHYPE / USDT",
		FDVUSD:             fdv,
		BaseTokenPriceUSD:  "0.0421",
		QuoteTokenPriceUSD: "1.0001",
	}
}

func TestWatcher_FirstCycleHasNoChangeText(t *testing.T) {
	feeder := &fakeFeeder{pool: snapshotWithFDV("1500000")}
	watcher, notifier := newTestWatcher(t, feeder)
	watcher.registry.Subscribe(1)

	watcher.cycle()

	messages := notifier.messages(1)
	require.Len(t, messages, 1)
	require.Contains(t, messages[0], "$1.50M")
	require.Contains(t, messages[0], "🔄")
	require.NotContains(t, messages[0], "%")

	previous, ok := watcher.state.PreviousFDV()
	require.True(t, ok)
	require.Equal(t, 1500000.0, previous)

	last, ok := watcher.LastBroadcast()
	require.True(t, ok)
	require.Equal(t, messages[0], last)
}

func TestWatcher_SecondCycleReportsChange(t *testing.T) {
	feeder := &fakeFeeder{pool: snapshotWithFDV("1500000")}
	watcher, notifier := newTestWatcher(t, feeder)
	watcher.registry.Subscribe(1)

	watcher.cycle()
	feeder.setPool(snapshotWithFDV("1650000"))
	watcher.cycle()

	messages := notifier.messages(1)
	require.Len(t, messages, 2)
	require.Contains(t, messages[1], "$1.65M")
	require.Contains(t, messages[1], "(+10.00%)")
	require.Contains(t, messages[1], "📈")

	previous, _ := watcher.state.PreviousFDV()
	require.Equal(t, 1650000.0, previous)
}

func TestWatcher_FetchFailureSkipsCycle(t *testing.T) {
	feeder := &fakeFeeder{poolErr: context.DeadlineExceeded}
	watcher, notifier := newTestWatcher(t, feeder)
	watcher.registry.Subscribe(1)

	watcher.cycle()

	require.Empty(t, notifier.messages(1))
	_, ok := watcher.state.PreviousFDV()
	require.False(t, ok)
}

func TestWatcher_MissingFDVSkipsBroadcast(t *testing.T) {
	feeder := &fakeFeeder{pool: core.PoolSnapshot{Name: "WHYPE / USDT"}}
	watcher, notifier := newTestWatcher(t, feeder)
	watcher.registry.Subscribe(1)

	watcher.cycle()

	require.Empty(t, notifier.messages(1))
	_, ok := watcher.state.PreviousFDV()
	require.False(t, ok)
	_, ok = watcher.LastBroadcast()
	require.False(t, ok)
}

func TestWatcher_TradeAlerts(t *testing.T) {
	now := time.Now().UTC()
	feeder := &fakeFeeder{
		pool: snapshotWithFDV("1500000"),
		trades: []core.Trade{
			{ID: "t1", Kind: core.TradeKindBuy, VolumeUSD: 5000, Timestamp: now},
			{ID: "t2", Kind: core.TradeKindSell, VolumeUSD: 4000, Timestamp: now},
			{ID: "t3", Kind: core.TradeKindBuy, VolumeUSD: 3000, Timestamp: now},
			{ID: "t4", Kind: core.TradeKindBuy, VolumeUSD: 2000, Timestamp: now},
			{ID: "t5", Kind: core.TradeKindSell, VolumeUSD: 1000, Timestamp: now},
			{ID: "t6", Kind: core.TradeKindBuy, VolumeUSD: 900, Timestamp: now},
			{ID: "old", Kind: core.TradeKindBuy, VolumeUSD: 9999, Timestamp: now.Add(-time.Hour)},
		},
	}
	watcher, notifier := newTestWatcher(t, feeder)
	watcher.registry.Subscribe(1)

	watcher.cycle()

	// One FDV update plus the top five fresh trades by volume; the stale
	// high-volume trade is outside the window and t6 loses the ranking.
	messages := notifier.messages(1)
	require.Len(t, messages, 6)
	require.Contains(t, messages[1], "$5.00K")
	require.Contains(t, messages[1], "🟢 *Buy*")
	require.Contains(t, messages[2], "🔴 *Sell*")
	require.Contains(t, messages[5], "$1.00K")

	// A second cycle with the same trade list alerts nothing new.
	watcher.cycle()
	require.Len(t, notifier.messages(1), 7)
}

func TestWatcher_TradeAlertVolumeFloor(t *testing.T) {
	now := time.Now().UTC()
	feeder := &fakeFeeder{
		pool: snapshotWithFDV("1500000"),
		trades: []core.Trade{
			{ID: "big", Kind: core.TradeKindBuy, VolumeUSD: 150, Timestamp: now},
			{ID: "dust", Kind: core.TradeKindSell, VolumeUSD: 90, Timestamp: now},
		},
	}
	watcher, notifier := newTestWatcher(t, feeder)
	watcher.registry.Subscribe(1)

	watcher.cycle()

	messages := notifier.messages(1)
	require.Len(t, messages, 2)
	require.Contains(t, messages[1], "big")
	require.NotContains(t, messages[1], "dust")
}

func TestWatcher_IdempotentStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	feeder := &fakeFeeder{pool: snapshotWithFDV("1500000")}

	watcher := NewWatcher(ctx, testSettings(), feeder, nopLogger())
	watcher.SetNotifier(newFakeNotifier())

	added, started := watcher.Subscribe(1)
	require.True(t, added)
	require.True(t, started)

	added, started = watcher.Subscribe(1)
	require.False(t, added)
	require.False(t, started, "a second loop must not start")
	require.Equal(t, 1, watcher.registry.Len())
	require.True(t, watcher.state.Running())

	cancel()
	watcher.Wait()
	require.False(t, watcher.state.Running())
}

func TestWatcher_ListingProgressLine(t *testing.T) {
	ctx := context.Background()
	settings := testSettings()
	settings.ListingTargetFDV = 3_000_000

	feeder := &fakeFeeder{pool: snapshotWithFDV("1500000")}
	watcher := NewWatcher(ctx, settings, feeder, nopLogger())
	notifier := newFakeNotifier()
	watcher.SetNotifier(notifier)
	watcher.registry.Subscribe(1)

	watcher.cycle()

	messages := notifier.messages(1)
	require.Len(t, messages, 1)
	require.Contains(t, messages[0], "*Listing progress:* 50.00%")
}
