// Package notification provides the Telegram delivery transport and the
// slash-command surface for managing subscriptions.
package notification

import (
	"fmt"
	"strings"
	"time"

	"slices"

	tb "gopkg.in/tucnak/telebot.v2"

	"poolwatch/pkg/core"
	"poolwatch/pkg/logger"
	"poolwatch/pkg/watch"
)

const pollingTimeout = 10 * time.Second

// Telegram implements the core.NotifierWithStart interface
type Telegram struct {
	settings core.Settings
	watcher  *watch.Watcher
	client   *tb.Bot
	log      logger.Logger
}

// NewTelegram creates and initializes a new Telegram service
func NewTelegram(watcher *watch.Watcher, settings core.Settings, log logger.Logger) (*Telegram, error) {
	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Telegram.Token,
		Poller:    &tb.LongPoller{Timeout: pollingTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	bot := &Telegram{
		settings: settings,
		watcher:  watcher,
		client:   client,
		log:      log,
	}

	registerHandlers(client, bot)

	return bot, nil
}

// setupCommands configures available bot commands
func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "/help", Description: "Display help instructions"},
		{Text: "/start", Description: "Subscribe this chat to pool updates"},
		{Text: "/stop", Description: "Unsubscribe this chat"},
		{Text: "/status", Description: "Check bot status"},
		{Text: "/price", Description: "Replay the last update"},
	})
}

// registerHandlers registers all command handlers
func registerHandlers(client *tb.Bot, bot *Telegram) {
	client.Handle("/help", bot.HelpHandle)
	client.Handle("/start", bot.StartHandle)
	client.Handle("/stop", bot.StopHandle)
	client.Handle("/status", bot.StatusHandle)
	client.Handle("/price", bot.PriceHandle)
}

// Start begins the Telegram long-polling loop.
func (t *Telegram) Start() {
	go t.client.Start()
}

// Stop shuts the long-polling loop down.
func (t *Telegram) Stop() {
	t.client.Stop()
}

// Send implements core.Notifier; it is the broadcast delivery primitive.
func (t *Telegram) Send(chatID int64, text string) error {
	_, err := t.client.Send(&tb.Chat{ID: chatID}, text)
	return err
}

func (t *Telegram) reply(m *tb.Message, text string) {
	if _, err := t.client.Send(m.Chat, text); err != nil {
		t.log.WithError(err).Error("failed to send reply")
	}
}

// authorized checks the sender against the static allow-list. An empty
// allow-list leaves the bot open.
func (t *Telegram) authorized(m *tb.Message) bool {
	users := t.settings.Telegram.Users
	if len(users) == 0 {
		return true
	}
	return m.Sender != nil && slices.Contains(users, m.Sender.ID)
}

// Command handlers
// ---------------

// HelpHandle displays available commands
func (t *Telegram) HelpHandle(m *tb.Message) {
	commands, err := t.client.GetCommands()
	if err != nil {
		t.log.WithError(err).Error("failed to get commands")
		return
	}

	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("%s - %s", command.Text, command.Description))
	}

	t.reply(m, strings.Join(lines, "\n"))
}

// StartHandle subscribes the chat and launches the watch loop when needed.
func (t *Telegram) StartHandle(m *tb.Message) {
	if !t.authorized(m) {
		t.log.WithField("chat_id", m.Chat.ID).Warn("unauthorized subscribe attempt")
		t.reply(m, "⛔ You are not authorized to control this bot.")
		return
	}

	added, started := t.watcher.Subscribe(m.Chat.ID)
	if !added && !started {
		t.reply(m, "This chat is already subscribed.")
		return
	}

	t.reply(m, fmt.Sprintf(
		"🤖 *FDV monitoring enabled!*\n\n🎯 Pool: `%s`\n🌐 Network: %s\n⏱ Update interval: %s",
		t.settings.PoolAddress, t.settings.Network, t.settings.Interval))
}

// StopHandle unsubscribes the chat. The loop winds down on its own once the
// last chat is gone.
func (t *Telegram) StopHandle(m *tb.Message) {
	if t.watcher.Unsubscribe(m.Chat.ID) {
		t.reply(m, "🛑 This chat will no longer receive updates.")
		return
	}
	t.reply(m, "This chat is not subscribed.")
}

// StatusHandle displays the current bot status
func (t *Telegram) StatusHandle(m *tb.Message) {
	status := t.watcher.Status(m.Chat.ID)

	lastFDV := status.LastFDV
	if lastFDV == "" {
		lastFDV = "none yet"
	}

	subscribed := "no"
	if status.Subscribed {
		subscribed = "yes"
	}

	t.reply(m, fmt.Sprintf(
		"*Status*\n🔗 Pool: `%s`\n👥 Subscribers: %d\n📬 This chat subscribed: %s\n💰 Last FDV: %s",
		status.PoolAddress, status.Recipients, subscribed, lastFDV))
}

// PriceHandle replays the last broadcast verbatim.
func (t *Telegram) PriceHandle(m *tb.Message) {
	last, ok := t.watcher.LastBroadcast()
	if !ok {
		t.reply(m, "No broadcast available yet.")
		return
	}
	t.reply(m, last)
}
