// Package watch implements the polling loop: fetch the pool, detect changes
// against the previous observation, format an update, broadcast it, alert on
// fresh trades, sleep, repeat.
package watch

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"poolwatch/pkg/core"
	"poolwatch/pkg/format"
	"poolwatch/pkg/logger"
)

const (
	tradeAlertLimit  = 5
	tradeVolumeFloor = 100.0
)

// Stats counts what the loop did over the process lifetime.
type Stats struct {
	Cycles      int
	Broadcasts  int
	TradeAlerts int
	PrunedChats int
}

// Status is the read-only summary served by the /status command.
type Status struct {
	PoolAddress string
	Network     string
	Recipients  int
	Subscribed  bool
	Running     bool
	LastFDV     string // formatted, empty when nothing was broadcast yet
}

// Watcher owns the loop and all change-detection state. Command handlers talk
// to it; it talks back through the broadcaster.
type Watcher struct {
	settings    core.Settings
	feeder      core.Feeder
	registry    *Registry
	state       *State
	cache       *TradeCache
	broadcaster *Broadcaster
	log         logger.Logger

	ctx context.Context
	wg  sync.WaitGroup
	now func() time.Time

	statsMu sync.Mutex
	stats   Stats
}

// NewWatcher wires the loop's state. The context bounds the lifetime of every
// loop the watcher ever starts; the notifier is attached later via
// SetNotifier because the Telegram client needs the watcher first.
func NewWatcher(ctx context.Context, settings core.Settings, feeder core.Feeder, log logger.Logger) *Watcher {
	registry := NewRegistry()

	return &Watcher{
		settings:    settings,
		feeder:      feeder,
		registry:    registry,
		state:       NewState(),
		cache:       NewTradeCache(),
		broadcaster: NewBroadcaster(registry, log),
		log:         log,
		ctx:         ctx,
		now:         time.Now,
	}
}

// SetNotifier attaches the delivery transport.
func (w *Watcher) SetNotifier(notifier core.Notifier) {
	w.broadcaster.SetNotifier(notifier)
}

// Subscribe adds a chat and launches the poll loop when none is active.
func (w *Watcher) Subscribe(chatID int64) (added, started bool) {
	added = w.registry.Subscribe(chatID)

	if w.state.TryStart() {
		started = true
		w.wg.Add(1)
		go w.run()
	}

	return added, started
}

// Unsubscribe removes a chat. The loop is never cancelled here; it notices an
// empty registry after its current sleep and exits on its own.
func (w *Watcher) Unsubscribe(chatID int64) bool {
	return w.registry.Unsubscribe(chatID)
}

// Status reports the bot state as seen from one chat.
func (w *Watcher) Status(chatID int64) Status {
	status := Status{
		PoolAddress: w.settings.PoolAddress,
		Network:     w.settings.Network,
		Recipients:  w.registry.Len(),
		Subscribed:  w.registry.Contains(chatID),
		Running:     w.state.Running(),
	}

	if previous, ok := w.state.PreviousFDV(); ok {
		status.LastFDV = format.USD(previous)
	}

	return status
}

// LastBroadcast returns the verbatim text of the last successful broadcast.
func (w *Watcher) LastBroadcast() (string, bool) {
	return w.state.LastBroadcast()
}

func (w *Watcher) Stats() Stats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.stats
}

// Wait blocks until any running loop has finished, farewell included.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) run() {
	defer w.wg.Done()
	defer w.state.Stop()

	w.log.WithField("pool", w.settings.PoolAddress).Infof("watch loop started, interval %s", w.settings.Interval)
	defer w.log.Info("watch loop stopped")

	for {
		w.cycle()

		select {
		case <-w.ctx.Done():
			w.farewell()
			return
		case <-time.After(w.settings.Interval):
		}

		if w.registry.Len() == 0 {
			w.log.Info("no subscribers left, watch loop exiting")
			return
		}
	}
}

// cycle runs one fetch → detect → format → broadcast pass. It is the only
// place where fetch and formatting failures are absorbed; nothing here may
// take the loop down.
func (w *Watcher) cycle() {
	defer func() {
		if r := recover(); r != nil {
			w.log.Errorf("watch cycle panic: %v", r)
		}
	}()

	w.bump(func(s *Stats) { s.Cycles++ })

	snapshot, err := w.feeder.Pool(w.ctx)
	if err != nil {
		w.log.WithError(err).Error("pool fetch failed, retrying next cycle")
		return
	}

	// A response without an FDV is not a transport failure, it just cannot
	// be broadcast; PreviousFDV must stay untouched.
	if snapshot.FDVUSD == "" {
		w.log.Warn("pool snapshot carries no FDV, skipping update")
		return
	}

	fdv, err := strconv.ParseFloat(snapshot.FDVUSD, 64)
	if err != nil {
		w.log.Warnf("unparseable FDV %q, skipping update", snapshot.FDVUSD)
		return
	}

	message := w.buildUpdate(snapshot, fdv)
	delivered, pruned := w.broadcaster.Broadcast(message)
	w.state.SetLastBroadcast(message)
	w.state.RecordFDV(fdv)

	w.bump(func(s *Stats) {
		s.Broadcasts += delivered
		s.PrunedChats += pruned
	})

	w.alertTrades()
}

// alertTrades fetches recent trades and broadcasts the qualifying ones:
// inside the last polling window, unseen, ranked by volume, top five, nothing
// under the volume floor. Each alert goes out as its own message.
func (w *Watcher) alertTrades() {
	trades, err := w.feeder.Trades(w.ctx)
	if err != nil {
		w.log.WithError(err).Error("trade fetch failed, retrying next cycle")
		return
	}

	fresh := w.cache.FilterNew(trades, w.settings.Interval, w.now())
	if len(fresh) == 0 {
		return
	}

	sort.Slice(fresh, func(i, j int) bool {
		return fresh[i].VolumeUSD > fresh[j].VolumeUSD
	})
	if len(fresh) > tradeAlertLimit {
		fresh = fresh[:tradeAlertLimit]
	}
	fresh = lo.Filter(fresh, func(trade core.Trade, _ int) bool {
		return trade.VolumeUSD >= tradeVolumeFloor
	})

	for _, trade := range fresh {
		_, pruned := w.broadcaster.Broadcast(formatTradeAlert(trade))
		w.bump(func(s *Stats) {
			s.TradeAlerts++
			s.PrunedChats += pruned
		})
	}
}

func (w *Watcher) buildUpdate(snapshot core.PoolSnapshot, fdv float64) string {
	previous, known := w.state.PreviousFDV()
	percent := format.ChangePercent(fdv, previous)
	glyph, changeText := format.ChangeText(percent, known)

	var sb strings.Builder
	sb.WriteString("🏊 *Pool FDV Update*\n\n")
	fmt.Fprintf(&sb, "🎯 *Pool:* %s\n", snapshot.Name)
	fmt.Fprintf(&sb, "🌐 *Network:* %s\n", w.settings.Network)
	fmt.Fprintf(&sb, "💰 *FDV:* %s%s %s\n", format.ScaledCurrency(snapshot.FDVUSD), changeText, glyph)

	if w.settings.ListingTargetFDV > 0 {
		fmt.Fprintf(&sb, "🎫 *Listing progress:* %.2f%%\n", format.ListingProgress(fdv, w.settings.ListingTargetFDV))
	}

	sb.WriteString("\n📊 *Token prices:*\n")
	fmt.Fprintf(&sb, "• Base: $%s\n", snapshot.BaseTokenPriceUSD)
	fmt.Fprintf(&sb, "• Quote: $%s\n\n", snapshot.QuoteTokenPriceUSD)
	fmt.Fprintf(&sb, "🕐 *Updated:* %s UTC\n", w.now().UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "🔗 *Pool address:* `%s`", w.settings.PoolAddress)

	return sb.String()
}

func formatTradeAlert(trade core.Trade) string {
	glyph, label := "🟢", "Buy"
	if trade.Kind == core.TradeKindSell {
		glyph, label = "🔴", "Sell"
	}

	return fmt.Sprintf("%s *%s* %s\n🕐 %s UTC\n🆔 `%s`",
		glyph, label, format.USD(trade.VolumeUSD),
		trade.Timestamp.UTC().Format("15:04:05"), trade.ID)
}

// farewell is best-effort: delivery failures are already swallowed by the
// broadcaster and the process is exiting either way.
func (w *Watcher) farewell() {
	w.broadcaster.Broadcast("🛑 *FDV monitoring stopped.*")
}

func (w *Watcher) bump(update func(*Stats)) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	update(&w.stats)
}
