package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suwandre/tv-trading-bot/internal/engine"
	"github.com/suwandre/tv-trading-bot/internal/feed"
	"github.com/suwandre/tv-trading-bot/internal/trade"
)

type memStore struct {
	mu     sync.Mutex
	active map[primitive.ObjectID]trade.ActiveTrade
	closed []trade.ClosedTrade
}

func (s *memStore) InsertActive(_ context.Context, t trade.ActiveTrade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		s.active = make(map[primitive.ObjectID]trade.ActiveTrade)
	}
	s.active[t.ID] = t
	return nil
}

func (s *memStore) RemoveActive(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
	return nil
}

func (s *memStore) InsertClosed(_ context.Context, t trade.ClosedTrade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, t)
	return nil
}

func (s *memStore) closedTrades() []trade.ClosedTrade {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]trade.ClosedTrade, len(s.closed))
	copy(out, s.closed)
	return out
}

// TestAlertToTriggeredClose drives the full paper flow: a webhook alert
// opens a long, the stub feed pushes the price through the take profit,
// and the listener settles the trade.
func TestAlertToTriggeredClose(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store := &memStore{}
	eng := engine.New(zerolog.Nop(), store, engine.Params{
		NotionalUSD:   1000,
		Leverage:      trade.Leverage2x,
		TakeProfitPct: 0.2, // stub price climbs 0.1 per tick from ~100
		StopLossPct:   0,
	}, []string{"BTC-USD"})

	marketFeed := feed.New(feed.ProviderStub, "", []string{"BTC-USD"}, zerolog.Nop())
	updates := make(chan feed.TickerUpdate, 64)
	go func() { _ = marketFeed.Run(ctx, updates) }()
	go func() { _ = eng.RunListener(ctx, updates) }()

	result, err := eng.HandleAlert(ctx, trade.TradingViewAlert{
		Signal: trade.SignalBuy, Pair: "BTC-USD", Price: 100,
	})
	if err != nil {
		t.Fatalf("HandleAlert returned error: %v", err)
	}
	if result.Action != engine.ActionOpened {
		t.Fatalf("expected opened action, got %s", result.Action)
	}

	deadline := time.After(8 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("trade was not closed by the price listener")
		case <-time.After(100 * time.Millisecond):
		}
		closed := store.closedTrades()
		if len(closed) == 0 {
			continue
		}
		ct := closed[0]
		if ct.Pair != "BTC-USD" || ct.ExitPrice < 100.2 {
			t.Fatalf("unexpected closed trade: %+v", ct)
		}
		if ct.PnL <= 0 {
			t.Fatalf("expected profitable take-profit close, got pnl %.6f", ct.PnL)
		}
		if eng.ActiveCount() != 0 {
			t.Fatalf("book should be empty after triggered close")
		}
		return
	}
}
