package watch

import (
	"time"

	"poolwatch/pkg/core"
)

const (
	cacheLimit = 1000
	cacheTrim  = 500
)

// TradeCache remembers recently reported trade ids in insertion order so the
// same trade is not alerted twice. The cache is bounded by a coarse policy:
// once it grows past the limit, the oldest half is dropped in one pass. A
// trade evicted that way can be reported again if it resurfaces; that
// imprecision is accepted.
type TradeCache struct {
	entries map[string]core.Trade
	order   []string
	limit   int
	trim    int
}

func NewTradeCache() *TradeCache {
	return &TradeCache{
		entries: make(map[string]core.Trade),
		limit:   cacheLimit,
		trim:    cacheTrim,
	}
}

// FilterNew returns the trades that fall inside the window and have not been
// seen before, recording them as seen. Eviction runs after every pass that
// grew the cache, not on a separate schedule.
func (c *TradeCache) FilterNew(trades []core.Trade, window time.Duration, now time.Time) []core.Trade {
	cutoff := now.Add(-window)

	fresh := make([]core.Trade, 0, len(trades))
	for _, trade := range trades {
		if trade.Timestamp.Before(cutoff) {
			continue
		}
		if _, seen := c.entries[trade.ID]; seen {
			continue
		}

		c.entries[trade.ID] = trade
		c.order = append(c.order, trade.ID)
		fresh = append(fresh, trade)
	}

	c.evict()
	return fresh
}

func (c *TradeCache) evict() {
	if len(c.order) <= c.limit {
		return
	}

	for _, id := range c.order[:c.trim] {
		delete(c.entries, id)
	}
	c.order = append([]string(nil), c.order[c.trim:]...)
}

func (c *TradeCache) Len() int {
	return len(c.order)
}

func (c *TradeCache) Contains(id string) bool {
	_, ok := c.entries[id]
	return ok
}
