// Package poolwatch wires the GeckoTerminal poller, the Telegram command
// surface and the broadcast loop into a single bot.
package poolwatch

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"poolwatch/pkg/core"
	"poolwatch/pkg/gecko"
	"poolwatch/pkg/logger"
	"poolwatch/pkg/logger/zerolog"
	"poolwatch/pkg/notification"
	"poolwatch/pkg/watch"
)

// Bot owns every long-lived component of the process.
type Bot struct {
	settings core.Settings
	feeder   core.Feeder
	watcher  *watch.Watcher
	telegram core.NotifierWithStart
	logger   logger.Logger
	logLevel string
}

type Option func(*Bot)

// NewBot creates a new bot instance with the provided settings and dependencies
func NewBot(ctx context.Context, settings core.Settings, options ...Option) (*Bot, error) {
	bot := &Bot{
		settings: settings,
		logLevel: "info",
	}

	// Apply custom options
	for _, option := range options {
		option(bot)
	}

	if err := initializeLogger(bot); err != nil {
		return nil, err
	}

	if bot.feeder == nil {
		bot.feeder = gecko.NewClient(settings.Network, settings.PoolAddress)
	}

	bot.watcher = watch.NewWatcher(ctx, settings, bot.feeder, bot.logger)

	if err := initializeNotifications(bot); err != nil {
		return nil, err
	}
	bot.watcher.SetNotifier(bot.telegram)

	return bot, nil
}

// initializeLogger sets up the logging system
func initializeLogger(bot *Bot) error {
	if bot.logger != nil {
		return nil
	}

	log, err := zerolog.NewZerolog(bot.logLevel, "2006-01-02 15:04:05", true, false)
	if err != nil {
		return err
	}
	bot.logger = zerolog.NewAdapter(log.Logger)
	return nil
}

// initializeNotifications sets up the Telegram transport
func initializeNotifications(bot *Bot) error {
	if bot.telegram != nil {
		return nil
	}

	telegram, err := notification.NewTelegram(bot.watcher, bot.settings, bot.logger)
	if err != nil {
		return err
	}
	bot.telegram = telegram
	return nil
}

// WithLogger sets a custom logger for the bot
func WithLogger(log logger.Logger) Option {
	return func(bot *Bot) {
		bot.logger = log
	}
}

// WithLogLevel sets the level the default logger is built with
func WithLogLevel(level string) Option {
	return func(bot *Bot) {
		bot.logLevel = level
	}
}

// WithFeeder sets a custom market data source, used by tests
func WithFeeder(feeder core.Feeder) Option {
	return func(bot *Bot) {
		bot.feeder = feeder
	}
}

// WithNotifier sets a custom delivery transport, used by tests
func WithNotifier(notifier core.NotifierWithStart) Option {
	return func(bot *Bot) {
		bot.telegram = notifier
	}
}

// Watcher exposes the loop controller, mainly for tests.
func (b *Bot) Watcher() *watch.Watcher {
	return b.watcher
}

// Run starts the Telegram poller, subscribes the default chat when one is
// configured, and blocks until the context is cancelled. The watch loop gets
// a chance to deliver its farewell before Run returns.
func (b *Bot) Run(ctx context.Context) error {
	b.telegram.Start()
	defer b.telegram.Stop()

	if chat := b.settings.Telegram.DefaultChat; chat != 0 {
		b.watcher.Subscribe(chat)
	}

	b.logger.
		WithField("pool", b.settings.PoolAddress).
		WithField("network", b.settings.Network).
		Info("poolwatch started")

	<-ctx.Done()
	b.watcher.Wait()

	return nil
}

// Summary prints what the loop did, rendered as a table on stdout.
func (b *Bot) Summary() {
	stats := b.watcher.Stats()

	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetHeader([]string{"Cycles", "Broadcasts", "Trade Alerts", "Pruned Chats"})
	table.Append([]string{
		strconv.Itoa(stats.Cycles),
		strconv.Itoa(stats.Broadcasts),
		strconv.Itoa(stats.TradeAlerts),
		strconv.Itoa(stats.PrunedChats),
	})
	table.Render()

	fmt.Println(buffer.String())
}
