package watch

import (
	"poolwatch/pkg/core"
	"poolwatch/pkg/logger"
)

// Broadcaster fans a message out to every subscribed chat. A failing chat
// never aborts the pass: the error is logged with the chat id, the chat is
// collected, and once every recipient has been attempted the failed ones are
// pruned from the live registry.
type Broadcaster struct {
	registry *Registry
	notifier core.Notifier
	log      logger.Logger
}

func NewBroadcaster(registry *Registry, log logger.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, log: log}
}

// SetNotifier wires the delivery transport; the broadcaster is created before
// the Telegram client because the command handlers need it.
func (b *Broadcaster) SetNotifier(notifier core.Notifier) {
	b.notifier = notifier
}

// Broadcast delivers text to a snapshot of the registry and returns how many
// chats were reached and how many were pruned.
func (b *Broadcaster) Broadcast(text string) (delivered, pruned int) {
	if b.notifier == nil {
		return 0, 0
	}

	var failed []int64
	for _, chatID := range b.registry.Snapshot() {
		if err := b.notifier.Send(chatID, text); err != nil {
			b.log.WithField("chat_id", chatID).WithError(err).Error("broadcast delivery failed, pruning chat")
			failed = append(failed, chatID)
			continue
		}
		delivered++
	}

	b.registry.Prune(failed)
	return delivered, len(failed)
}
