package core

import "context"

// Feeder provides read-only market data for the monitored pool.
type Feeder interface {
	Pool(ctx context.Context) (PoolSnapshot, error)
	Trades(ctx context.Context) ([]Trade, error)
}

// Notifier delivers a message to a single chat.
type Notifier interface {
	Send(chatID int64, text string) error
}

type NotifierWithStart interface {
	Notifier
	Start()
	Stop()
}
