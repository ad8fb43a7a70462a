package trade

import (
	"math"
	"testing"
	"time"
)

func TestLiquidationPriceLong(t *testing.T) {
	got := LiquidationPrice(100, 5, DirectionLong)
	if math.Abs(got-80.2) > 1e-9 {
		t.Fatalf("expected liquidation 80.2, got %.4f", got)
	}
}

func TestLiquidationPriceShort(t *testing.T) {
	got := LiquidationPrice(100, 5, DirectionShort)
	if math.Abs(got-119.8) > 1e-9 {
		t.Fatalf("expected liquidation 119.8, got %.4f", got)
	}
}

func TestLiquidationPriceSpotLong(t *testing.T) {
	// 1x long liquidates only when nearly all value is gone.
	got := LiquidationPrice(100, 1, DirectionLong)
	if math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("expected liquidation 1.0 for 1x long, got %.4f", got)
	}
}

func TestExecutionFees(t *testing.T) {
	got := ExecutionFees(2, 100)
	if math.Abs(got-0.2) > 1e-9 {
		t.Fatalf("expected 0.2 in fees, got %.4f", got)
	}
}

func TestFundingFeesCrossesOneBoundary(t *testing.T) {
	open := time.Date(2025, 1, 2, 7, 0, 0, 0, time.UTC)
	closedAt := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	got := FundingFees(open, closedAt, 1, 1000, Leverage3x)
	if math.Abs(got-0.1) > 1e-9 {
		t.Fatalf("expected 0.1 funding fee, got %.6f", got)
	}
}

func TestFundingFeesCrossesThreeBoundaries(t *testing.T) {
	open := time.Date(2025, 1, 2, 23, 30, 0, 0, time.UTC)
	closedAt := time.Date(2025, 1, 3, 16, 30, 0, 0, time.UTC)
	got := FundingFees(open, closedAt, 1, 1000, Leverage2x)
	if math.Abs(got-0.3) > 1e-9 {
		t.Fatalf("expected 0.3 funding fee, got %.6f", got)
	}
}

func TestFundingFeesSpotIsFree(t *testing.T) {
	open := time.Date(2025, 1, 2, 7, 0, 0, 0, time.UTC)
	closedAt := open.Add(48 * time.Hour)
	if got := FundingFees(open, closedAt, 1, 1000, Leverage1x); got != 0 {
		t.Fatalf("expected no funding fee for 1x, got %.6f", got)
	}
}

func TestFundingFeesNoBoundary(t *testing.T) {
	open := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	closedAt := open.Add(30 * time.Minute)
	if got := FundingFees(open, closedAt, 1, 1000, Leverage10x); got != 0 {
		t.Fatalf("expected no funding fee within an interval, got %.6f", got)
	}
}

func TestParseLeverage(t *testing.T) {
	lev, err := ParseLeverage("5x")
	if err != nil {
		t.Fatalf("ParseLeverage returned error: %v", err)
	}
	if lev.Multiplier() != 5 {
		t.Fatalf("expected multiplier 5, got %.1f", lev.Multiplier())
	}
	if _, err := ParseLeverage("7x"); err == nil {
		t.Fatalf("expected error for unsupported leverage")
	}
}

func TestSignalDirection(t *testing.T) {
	if SignalBuy.Direction() != DirectionLong {
		t.Fatalf("buy should map to long")
	}
	if SignalSell.Direction() != DirectionShort {
		t.Fatalf("sell should map to short")
	}
}
