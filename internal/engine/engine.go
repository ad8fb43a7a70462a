// Package engine keeps the in-memory book of active trades and reacts to
// alerts and price updates.
package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suwandre/tv-trading-bot/internal/metrics"
	"github.com/suwandre/tv-trading-bot/internal/trade"
)

// Store is the persistence surface the engine needs. *store.Mongo
// satisfies it; tests use an in-memory fake.
type Store interface {
	InsertActive(ctx context.Context, t trade.ActiveTrade) error
	RemoveActive(ctx context.Context, id primitive.ObjectID) error
	InsertClosed(ctx context.Context, t trade.ClosedTrade) error
}

// Params controls how alerts are sized into paper positions.
type Params struct {
	NotionalUSD   float64
	Leverage      trade.Leverage
	TakeProfitPct float64
	StopLossPct   float64
}

// Action describes what an alert did to the book.
type Action string

const (
	ActionOpened    Action = "opened"
	ActionClosed    Action = "closed"
	ActionDuplicate Action = "duplicate"
)

// AlertResult reports the outcome of handling a TradingView alert.
type AlertResult struct {
	Action Action
	Opened *trade.ActiveTrade
	Closed *trade.ClosedTrade
}

// ErrUnknownPair rejects alerts for pairs the feed is not tracking.
var ErrUnknownPair = errors.New("pair is not tracked")

// Engine owns the active-trade book shared between the webhook handler
// and the price listener.
type Engine struct {
	log    zerolog.Logger
	store  Store
	params Params

	mu     sync.Mutex
	pairs  map[string]struct{}
	active map[primitive.ObjectID]trade.ActiveTrade

	now func() time.Time
}

// New constructs an engine tracking the given pairs.
func New(log zerolog.Logger, store Store, params Params, pairs []string) *Engine {
	e := &Engine{
		log:    log,
		store:  store,
		params: params,
		active: make(map[primitive.ObjectID]trade.ActiveTrade),
		now:    time.Now,
	}
	e.SetPairs(pairs)
	return e
}

// SetPairs replaces the tracked pair set, used by config hot-reload.
func (e *Engine) SetPairs(pairs []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pairs = make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			e.pairs[p] = struct{}{}
		}
	}
}

// Restore seeds the book with trades persisted before a restart.
func (e *Engine) Restore(trades []trade.ActiveTrade) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range trades {
		e.active[t.ID] = t
	}
}

// ActiveCount reports the number of open trades.
func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

// HandleAlert applies a validated TradingView alert to the book: a
// same-direction duplicate is ignored, an opposite-direction alert closes
// the existing trade at the alert price, and otherwise a new paper trade
// is opened. The decision and the book mutation happen inside one
// critical section so concurrent alerts for the same pair cannot both
// open or both close.
func (e *Engine) HandleAlert(ctx context.Context, alert trade.TradingViewAlert) (AlertResult, error) {
	pair := strings.ToUpper(strings.TrimSpace(alert.Pair))
	direction := alert.Signal.Direction()

	e.mu.Lock()
	if _, ok := e.pairs[pair]; !ok {
		e.mu.Unlock()
		return AlertResult{}, ErrUnknownPair
	}

	existing, found := e.findByPair(pair)
	if found {
		if existing.Direction == direction {
			e.mu.Unlock()
			e.log.Info().Str("pair", pair).Str("direction", string(direction)).Msg("duplicate alert, trade already open")
			return AlertResult{Action: ActionDuplicate, Opened: &existing}, nil
		}
		// Claim the trade while the lock is held; a racing ticker
		// trigger can no longer settle it a second time.
		delete(e.active, existing.ID)
		e.mu.Unlock()

		closed, err := e.settle(ctx, existing, alert.Price, trade.ReasonSignal)
		if err != nil {
			return AlertResult{}, err
		}
		return AlertResult{Action: ActionClosed, Closed: &closed}, nil
	}

	opened, err := e.openTradeLocked(ctx, pair, direction, alert.Price)
	if err != nil {
		return AlertResult{}, err
	}
	return AlertResult{Action: ActionOpened, Opened: &opened}, nil
}

// findByPair must be called with e.mu held.
func (e *Engine) findByPair(pair string) (trade.ActiveTrade, bool) {
	for _, t := range e.active {
		if strings.EqualFold(t.Pair, pair) {
			return t, true
		}
	}
	return trade.ActiveTrade{}, false
}

// openTradeLocked is entered with e.mu held and releases it itself. The
// trade is placed in the book before the store insert so a concurrent
// alert for the same pair sees it as a duplicate; a failed insert rolls
// the book back.
func (e *Engine) openTradeLocked(ctx context.Context, pair string, direction trade.Direction, price float64) (trade.ActiveTrade, error) {
	if price <= 0 {
		e.mu.Unlock()
		return trade.ActiveTrade{}, errors.New("alert price must be positive")
	}

	leverage := e.params.Leverage.Multiplier()
	t := trade.ActiveTrade{
		ID:               primitive.NewObjectID(),
		Pair:             pair,
		Direction:        direction,
		Kind:             trade.KindPaper,
		OpenTimestamp:    e.now().UTC(),
		Quantity:         e.params.NotionalUSD / price,
		EntryPrice:       price,
		Leverage:         e.params.Leverage,
		LiquidationPrice: trade.LiquidationPrice(price, leverage, direction),
	}
	if e.params.TakeProfitPct > 0 {
		tp := price * (1 + e.params.TakeProfitPct/100)
		if direction == trade.DirectionShort {
			tp = price * (1 - e.params.TakeProfitPct/100)
		}
		t.TakeProfit = &tp
	}
	if e.params.StopLossPct > 0 {
		sl := price * (1 - e.params.StopLossPct/100)
		if direction == trade.DirectionShort {
			sl = price * (1 + e.params.StopLossPct/100)
		}
		t.StopLoss = &sl
	}

	e.active[t.ID] = t
	e.mu.Unlock()

	if err := e.store.InsertActive(ctx, t); err != nil {
		e.mu.Lock()
		delete(e.active, t.ID)
		e.mu.Unlock()
		return trade.ActiveTrade{}, err
	}

	metrics.TradesOpenedTotal.WithLabelValues(pair, string(direction)).Inc()
	e.log.Info().
		Str("pair", pair).
		Str("direction", string(direction)).
		Float64("entry", price).
		Float64("qty", t.Quantity).
		Float64("liq", t.LiquidationPrice).
		Msg("paper trade opened")
	return t, nil
}

// claim removes the trade from the book if it is still open, returning
// whether the caller won the right to settle it. Exactly one of several
// racing closers claims a given trade.
func (e *Engine) claim(id primitive.ObjectID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.active[id]; !ok {
		return false
	}
	delete(e.active, id)
	return true
}

// settle persists the close of a trade the caller has already claimed.
// The closed record is inserted before the active row is removed: a
// failure in between leaves a reconcilable duplicate in the store rather
// than a lost position.
func (e *Engine) settle(ctx context.Context, t trade.ActiveTrade, exitPrice float64, reason trade.CloseReason) (trade.ClosedTrade, error) {
	closed := t.Close(exitPrice, e.now().UTC())

	if err := e.store.InsertClosed(ctx, closed); err != nil {
		// Put the claim back; the trade is still open.
		e.mu.Lock()
		e.active[t.ID] = t
		e.mu.Unlock()
		return trade.ClosedTrade{}, err
	}
	if err := e.store.RemoveActive(ctx, t.ID); err != nil {
		// The close is settled; the stale active row is reconciled on restart.
		e.log.Warn().Err(err).Str("pair", t.Pair).Msg("failed to remove settled trade from active store")
	}

	metrics.TradesClosedTotal.WithLabelValues(t.Pair, string(reason)).Inc()
	e.log.Info().
		Str("pair", t.Pair).
		Str("reason", string(reason)).
		Float64("exit", exitPrice).
		Float64("pnl", closed.PnL).
		Float64("roe", closed.ROE).
		Msg("paper trade closed")
	return closed, nil
}
