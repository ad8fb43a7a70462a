package engine

import (
	"context"

	"github.com/suwandre/tv-trading-bot/internal/feed"
	"github.com/suwandre/tv-trading-bot/internal/trade"
)

// RunListener consumes ticker updates and settles any trades whose take
// profit, stop loss, or liquidation level the new price crosses.
func (e *Engine) RunListener(ctx context.Context, updates <-chan feed.TickerUpdate) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			e.onTicker(ctx, update)
		}
	}
}

func (e *Engine) onTicker(ctx context.Context, update feed.TickerUpdate) {
	price := update.PriceFloat()
	if price <= 0 {
		return
	}

	e.mu.Lock()
	var candidates []trade.ActiveTrade
	for _, t := range e.active {
		if t.Pair == update.ProductID {
			candidates = append(candidates, t)
		}
	}
	e.mu.Unlock()

	for _, t := range candidates {
		reason, hit := trade.TriggerHit(&t, price)
		if !hit {
			continue
		}
		// A racing alert or tick may have settled the trade since the
		// snapshot; only the claimer closes it.
		if !e.claim(t.ID) {
			continue
		}
		if _, err := e.settle(ctx, t, price, reason); err != nil {
			e.log.Error().Err(err).Str("pair", t.Pair).Msg("failed to close triggered trade")
		}
	}
}
