package core

import "time"

// Settings represents the main configuration for the application
type Settings struct {
	Network          string        // GeckoTerminal network slug
	PoolAddress      string        // On-chain pool address to monitor
	Interval         time.Duration // Polling interval between update cycles
	ListingTargetFDV float64       // Optional FDV target for the listing progress line, 0 disables it
	Telegram         TelegramSettings
}

// TelegramSettings holds configuration for Telegram integration
type TelegramSettings struct {
	Token       string  // Bot token
	Users       []int64 // Authorized user IDs; empty disables the allow-list
	DefaultChat int64   // Optional chat subscribed at startup, 0 disables it
}
