// Package feed hosts market data connectors streaming ticker updates to the engine.
package feed

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/suwandre/tv-trading-bot/internal/metrics"
)

const (
	// ProviderStub emits deterministic synthetic updates (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderCoinbase streams live ticker events from the Coinbase exchange websocket.
	ProviderCoinbase = "coinbase"
)

const defaultCoinbaseWsURL = "wss://ws-feed.exchange.coinbase.com"

// TickerUpdate is a typed ticker event as delivered by the Coinbase feed.
type TickerUpdate struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
	BestBid   string `json:"best_bid"`
	BestAsk   string `json:"best_ask"`
	Time      string `json:"time"`
}

// PriceFloat parses the quoted price, returning 0 when absent or malformed.
func (u TickerUpdate) PriceFloat() float64 {
	px, err := strconv.ParseFloat(u.Price, 64)
	if err != nil {
		return 0
	}
	return px
}

// Feed represents a pluggable ticker stream implementation.
type Feed struct {
	provider string
	wsURL    string
	log      zerolog.Logger

	mu       sync.RWMutex
	products []string
	closer   func() // closes the live connection to force a resubscribe
}

// New constructs a feed backed by the requested provider.
func New(provider, wsURL string, products []string, log zerolog.Logger) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	if wsURL == "" {
		wsURL = defaultCoinbaseWsURL
	}
	f := &Feed{
		provider: strings.ToLower(provider),
		wsURL:    wsURL,
		log:      log,
	}
	f.SetProducts(products)
	return f
}

// SetProducts replaces the tracked product list (deduplicated, sorted for
// determinism). A live connection is dropped so the next dial subscribes
// with the new set.
func (f *Feed) SetProducts(products []string) {
	f.mu.Lock()
	unique := make(map[string]struct{}, len(products))
	for _, p := range products {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	f.products = f.products[:0]
	for p := range unique {
		f.products = append(f.products, p)
	}
	sort.Strings(f.products)
	closer := f.closer
	f.mu.Unlock()

	if closer != nil {
		closer()
	}
}

func (f *Feed) snapshotProducts() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.products))
	copy(out, f.products)
	return out
}

func (f *Feed) setCloser(closer func()) {
	f.mu.Lock()
	f.closer = closer
	f.mu.Unlock()
}

// Run pushes ticker updates onto the provided channel until the context is canceled.
func (f *Feed) Run(ctx context.Context, out chan<- TickerUpdate) error {
	switch f.provider {
	case ProviderCoinbase:
		return f.runCoinbase(ctx, out)
	default:
		return f.runStub(ctx, out)
	}
}

func (f *Feed) runStub(ctx context.Context, out chan<- TickerUpdate) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var px float64 = 100.0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			px += 0.1
			for _, p := range f.snapshotProducts() {
				update := TickerUpdate{
					Type:      "ticker",
					ProductID: p,
					Price:     strconv.FormatFloat(px, 'f', -1, 64),
					Time:      ts.UTC().Format(time.RFC3339Nano),
				}
				select {
				case out <- update:
					metrics.TicksTotal.WithLabelValues(p).Inc()
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}
