package trade

import (
	"math"
	"testing"
	"time"
)

func ptr(f float64) *float64 { return &f }

func newLongTrade() ActiveTrade {
	return ActiveTrade{
		Pair:             "BTC-USD",
		Direction:        DirectionLong,
		Kind:             KindPaper,
		OpenTimestamp:    time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC),
		Quantity:         10,
		EntryPrice:       100,
		Leverage:         Leverage2x,
		LiquidationPrice: LiquidationPrice(100, 2, DirectionLong),
		TakeProfit:       ptr(110),
		StopLoss:         ptr(95),
	}
}

func TestTriggerHitLong(t *testing.T) {
	tr := newLongTrade()

	if _, hit := TriggerHit(&tr, 100); hit {
		t.Fatalf("no trigger expected at entry price")
	}
	reason, hit := TriggerHit(&tr, 110)
	if !hit || reason != ReasonTakeProfit {
		t.Fatalf("expected take profit at 110, got %v %v", reason, hit)
	}
	reason, hit = TriggerHit(&tr, 94.5)
	if !hit || reason != ReasonStopLoss {
		t.Fatalf("expected stop loss at 94.5, got %v %v", reason, hit)
	}
	reason, hit = TriggerHit(&tr, 50)
	if !hit || reason != ReasonLiquidation {
		t.Fatalf("expected liquidation at 50, got %v %v", reason, hit)
	}
}

func TestTriggerHitShort(t *testing.T) {
	tr := ActiveTrade{
		Pair:             "ETH-USD",
		Direction:        DirectionShort,
		Quantity:         1,
		EntryPrice:       100,
		Leverage:         Leverage5x,
		LiquidationPrice: LiquidationPrice(100, 5, DirectionShort),
		TakeProfit:       ptr(90),
		StopLoss:         ptr(105),
	}

	reason, hit := TriggerHit(&tr, 89)
	if !hit || reason != ReasonTakeProfit {
		t.Fatalf("expected take profit for short at 89, got %v %v", reason, hit)
	}
	reason, hit = TriggerHit(&tr, 106)
	if !hit || reason != ReasonStopLoss {
		t.Fatalf("expected stop loss for short at 106, got %v %v", reason, hit)
	}
	reason, hit = TriggerHit(&tr, 130)
	if !hit || reason != ReasonLiquidation {
		t.Fatalf("expected liquidation for short at 130, got %v %v", reason, hit)
	}
}

func TestTriggerHitNoTargets(t *testing.T) {
	tr := newLongTrade()
	tr.TakeProfit = nil
	tr.StopLoss = nil
	if _, hit := TriggerHit(&tr, 120); hit {
		t.Fatalf("no trigger expected without TP/SL above liquidation")
	}
}

func TestCloseLongProfit(t *testing.T) {
	tr := newLongTrade()
	closedAt := tr.OpenTimestamp.Add(30 * time.Minute) // no funding boundary

	closed := tr.Close(110, closedAt)

	// gross 100, fees 2 * (0.0005 * 10 * 100) = 1.0
	if math.Abs(closed.PnL-99.0) > 1e-9 {
		t.Fatalf("expected pnl 99.0, got %.6f", closed.PnL)
	}
	// margin 500 at 2x, roe = 99/500*100
	if math.Abs(closed.ROE-19.8) > 1e-9 {
		t.Fatalf("expected roe 19.8, got %.6f", closed.ROE)
	}
	if closed.ExitPrice != 110 || closed.CloseTimestamp != closedAt {
		t.Fatalf("exit details not carried over")
	}
	if closed.FundingFees != 0 {
		t.Fatalf("expected zero funding fees, got %.6f", closed.FundingFees)
	}
}

func TestCloseShortLoss(t *testing.T) {
	tr := ActiveTrade{
		Pair:          "ETH-USD",
		Direction:     DirectionShort,
		Kind:          KindPaper,
		OpenTimestamp: time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC),
		Quantity:      5,
		EntryPrice:    200,
		Leverage:      Leverage1x,
	}
	closed := tr.Close(210, tr.OpenTimestamp.Add(time.Minute))

	// short loses when price rises: gross -50, fees 2 * (0.0005 * 5 * 200) = 1.0
	if math.Abs(closed.PnL-(-51.0)) > 1e-9 {
		t.Fatalf("expected pnl -51.0, got %.6f", closed.PnL)
	}
	if closed.ROE >= 0 {
		t.Fatalf("expected negative roe, got %.6f", closed.ROE)
	}
}
