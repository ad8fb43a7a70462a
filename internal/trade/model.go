// Package trade defines the trade domain model and the paper-trading math
// used to simulate fills, fees, and liquidations.
package trade

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Signal is the buy/sell intent carried by a TradingView alert.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
)

// Direction is the side of an open position.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Direction converts an alert signal into the position side it implies.
// Used to decide whether an alert opens a fresh trade or closes an
// existing one on the opposite side.
func (s Signal) Direction() Direction {
	if s == SignalSell {
		return DirectionShort
	}
	return DirectionLong
}

// Valid reports whether the signal is one of the accepted values.
func (s Signal) Valid() bool { return s == SignalBuy || s == SignalSell }

// Kind distinguishes simulated trades from live ones.
type Kind string

const (
	KindPaper Kind = "paper"
	KindLive  Kind = "live"
)

// Status tracks a trade through its lifecycle.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Leverage is the multiplier applied to a position. Spot trades use 1x.
type Leverage string

const (
	Leverage1x  Leverage = "1x"
	Leverage2x  Leverage = "2x"
	Leverage3x  Leverage = "3x"
	Leverage5x  Leverage = "5x"
	Leverage10x Leverage = "10x"
)

var leverageMultipliers = map[Leverage]float64{
	Leverage1x:  1,
	Leverage2x:  2,
	Leverage3x:  3,
	Leverage5x:  5,
	Leverage10x: 10,
}

// Multiplier returns the numeric leverage factor, defaulting to 1 for
// unrecognized values so downstream math never divides by zero.
func (l Leverage) Multiplier() float64 {
	if m, ok := leverageMultipliers[l]; ok {
		return m
	}
	return 1
}

// ParseLeverage validates a leverage string from config or an alert.
func ParseLeverage(s string) (Leverage, error) {
	l := Leverage(s)
	if _, ok := leverageMultipliers[l]; !ok {
		return "", fmt.Errorf("unknown leverage %q", s)
	}
	return l, nil
}

// TradingViewAlert is the webhook payload TradingView posts when an
// alert fires. The secret authenticates the request.
type TradingViewAlert struct {
	Signal Signal  `json:"signal"`
	Pair   string  `json:"pair"`
	Price  float64 `json:"price"`
	Secret string  `json:"secret"`
}

// ActiveTrade is an open position generated by executing an alert.
type ActiveTrade struct {
	// ID is the unique database ID of the trade.
	ID primitive.ObjectID `bson:"_id" json:"_id"`
	// Pair the trade was executed on (e.g. BTC-USD, ETH-USD).
	Pair      string    `bson:"pair" json:"pair"`
	Direction Direction `bson:"direction" json:"direction"`
	Kind      Kind      `bson:"kind" json:"kind"`
	// OpenTimestamp is when the trade was opened.
	OpenTimestamp time.Time `bson:"openTimestamp" json:"openTimestamp"`
	// Quantity of the base currency of the pair (e.g. BTC for BTC-USD).
	Quantity float64 `bson:"quantity" json:"quantity"`
	// EntryPrice of the base currency in the quote currency at fill time.
	EntryPrice float64  `bson:"entryPrice" json:"entryPrice"`
	Leverage   Leverage `bson:"leverage" json:"leverage"`
	// LiquidationPrice at which the position is force-closed.
	LiquidationPrice float64 `bson:"liquidationPrice" json:"liquidationPrice"`
	// TakeProfit price, if one was set.
	TakeProfit *float64 `bson:"takeProfit,omitempty" json:"takeProfit,omitempty"`
	// StopLoss price, if one was set.
	StopLoss *float64 `bson:"stopLoss,omitempty" json:"stopLoss,omitempty"`
}

// ClosedTrade is a settled position, including realized PnL and all
// simulated fees.
type ClosedTrade struct {
	ID               primitive.ObjectID `bson:"_id" json:"_id"`
	Pair             string             `bson:"pair" json:"pair"`
	Direction        Direction          `bson:"direction" json:"direction"`
	Kind             Kind               `bson:"kind" json:"kind"`
	Quantity         float64            `bson:"quantity" json:"quantity"`
	EntryPrice       float64            `bson:"entryPrice" json:"entryPrice"`
	ExitPrice        float64            `bson:"exitPrice" json:"exitPrice"`
	Leverage         Leverage           `bson:"leverage" json:"leverage"`
	LiquidationPrice float64            `bson:"liquidationPrice" json:"liquidationPrice"`
	OpenTimestamp    time.Time          `bson:"openTimestamp" json:"openTimestamp"`
	CloseTimestamp   time.Time          `bson:"closeTimestamp" json:"closeTimestamp"`
	// PnL in quote-currency value, net of execution and funding fees.
	PnL float64 `bson:"pnl" json:"pnl"`
	// ROE is the return on equity in percent, leverage included.
	ROE float64 `bson:"roe" json:"roe"`
	// ExecutionFees paid for opening and closing the trade.
	ExecutionFees float64 `bson:"executionFees" json:"executionFees"`
	// FundingFees accumulated while holding the trade across funding hours.
	FundingFees float64 `bson:"fundingFees" json:"fundingFees"`
}
