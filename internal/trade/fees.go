package trade

import "time"

const (
	// ExecutionFeePct is the fee for opening or closing a trade, in
	// percent. Simulates real exchange taker fees for paper trades.
	ExecutionFeePct = 0.05

	// FundingFee8hPct is the funding fee in percent charged per funding
	// interval while a leveraged trade is held open.
	FundingFee8hPct = 0.01

	// MaintenanceMargin is the percent of notional value required to keep
	// a position open before it is liquidated.
	MaintenanceMargin = 1.0
)

// fundingHours are the UTC hours at which funding fees accrue.
var fundingHours = map[int]bool{0: true, 8: true, 16: true}

// LiquidationPrice computes the price at which a position is force-closed,
// taking maintenance margin into account. Used for paper trades only.
func LiquidationPrice(entryPrice, leverage float64, direction Direction) float64 {
	if direction == DirectionLong {
		return entryPrice * (1.0 - (1.0 / leverage) + ((MaintenanceMargin / 100.0) / leverage))
	}
	return entryPrice * (1.0 + (1.0 / leverage) - ((MaintenanceMargin / 100.0) / leverage))
}

// ExecutionFees returns the combined open+close fee for a fill of the
// given size.
func ExecutionFees(quantity, entryPrice float64) float64 {
	return 2.0 * (ExecutionFeePct / 100.0 * quantity * entryPrice)
}

// FundingFees returns the funding cost accrued between open and close.
// Each 00:00, 08:00, and 16:00 UTC boundary crossed while the position is
// open charges FundingFee8hPct of the entry notional. Spot (1x) trades
// pay nothing.
func FundingFees(openedAt, closedAt time.Time, quantity, entryPrice float64, leverage Leverage) float64 {
	if leverage.Multiplier() <= 1 || !closedAt.After(openedAt) {
		return 0
	}
	crossings := 0
	t := openedAt.UTC().Truncate(time.Hour).Add(time.Hour)
	for !t.After(closedAt.UTC()) {
		if fundingHours[t.Hour()] {
			crossings++
		}
		t = t.Add(time.Hour)
	}
	return float64(crossings) * (FundingFee8hPct / 100.0) * quantity * entryPrice
}
