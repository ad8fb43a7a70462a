package trade

import "time"

// CloseReason explains why an active trade was settled.
type CloseReason string

const (
	ReasonTakeProfit  CloseReason = "take_profit"
	ReasonStopLoss    CloseReason = "stop_loss"
	ReasonLiquidation CloseReason = "liquidation"
	ReasonSignal      CloseReason = "signal"
)

// TriggerHit reports whether the current price crosses the trade's take
// profit, stop loss, or liquidation level, and which one fired. The
// liquidation check wins over a stop loss sitting past it.
func TriggerHit(t *ActiveTrade, price float64) (CloseReason, bool) {
	if t.Direction == DirectionLong {
		if price <= t.LiquidationPrice {
			return ReasonLiquidation, true
		}
		if t.StopLoss != nil && price <= *t.StopLoss {
			return ReasonStopLoss, true
		}
		if t.TakeProfit != nil && price >= *t.TakeProfit {
			return ReasonTakeProfit, true
		}
		return "", false
	}
	if price >= t.LiquidationPrice {
		return ReasonLiquidation, true
	}
	if t.StopLoss != nil && price >= *t.StopLoss {
		return ReasonStopLoss, true
	}
	if t.TakeProfit != nil && price <= *t.TakeProfit {
		return ReasonTakeProfit, true
	}
	return "", false
}

// Close settles an active trade at the given exit price, realizing PnL
// net of execution and funding fees. ROE is computed against the margin
// actually posted, so leverage amplifies it.
func (t *ActiveTrade) Close(exitPrice float64, closedAt time.Time) ClosedTrade {
	gross := (exitPrice - t.EntryPrice) * t.Quantity
	if t.Direction == DirectionShort {
		gross = -gross
	}
	execFees := ExecutionFees(t.Quantity, t.EntryPrice)
	fundFees := FundingFees(t.OpenTimestamp, closedAt, t.Quantity, t.EntryPrice, t.Leverage)
	pnl := gross - execFees - fundFees

	margin := t.EntryPrice * t.Quantity / t.Leverage.Multiplier()
	roe := 0.0
	if margin > 0 {
		roe = pnl / margin * 100.0
	}

	return ClosedTrade{
		ID:               t.ID,
		Pair:             t.Pair,
		Direction:        t.Direction,
		Kind:             t.Kind,
		Quantity:         t.Quantity,
		EntryPrice:       t.EntryPrice,
		ExitPrice:        exitPrice,
		Leverage:         t.Leverage,
		LiquidationPrice: t.LiquidationPrice,
		OpenTimestamp:    t.OpenTimestamp,
		CloseTimestamp:   closedAt,
		PnL:              pnl,
		ROE:              roe,
		ExecutionFees:    execFees,
		FundingFees:      fundFees,
	}
}
