package core

import "time"

// TradeKind identifies the direction of a pool trade.
type TradeKind string

const (
	TradeKindBuy  TradeKind = "buy"
	TradeKindSell TradeKind = "sell"
)

// PoolSnapshot is one observation of the monitored pool. The price fields keep
// the provider's raw decimal strings; only the FDV is ever parsed numerically.
type PoolSnapshot struct {
	Name               string
	FDVUSD             string
	BaseTokenPriceUSD  string
	QuoteTokenPriceUSD string
}

// Trade is a single pool trade reported by the data provider.
type Trade struct {
	ID        string
	Kind      TradeKind
	VolumeUSD float64
	Timestamp time.Time
}
