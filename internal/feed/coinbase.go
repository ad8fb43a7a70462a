package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/gorilla/websocket"

	"github.com/suwandre/tv-trading-bot/internal/metrics"
)

type coinbaseSubscription struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

func (f *Feed) runCoinbase(ctx context.Context, out chan<- TickerUpdate) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if len(f.snapshotProducts()) == 0 {
			return fmt.Errorf("coinbase feed requires at least one product")
		}
		if err := f.consumeCoinbaseStream(ctx, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Msg("coinbase feed disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (f *Feed) consumeCoinbaseStream(ctx context.Context, out chan<- TickerUpdate) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// SetProducts closes the connection to force a resubscribe.
	f.setCloser(func() { _ = conn.Close() })
	defer f.setCloser(nil)

	products := f.snapshotProducts()
	sub := coinbaseSubscription{
		Type:       "subscribe",
		ProductIDs: products,
		Channels:   []string{"ticker"},
	}
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("send subscription: %w", err)
	}

	f.log.Info().Str("provider", ProviderCoinbase).Strs("products", products).Msg("connected market data feed")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Warn().Err(err).Msg("coinbase ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var update TickerUpdate
		if err := json.Unmarshal(message, &update); err != nil {
			f.log.Warn().Err(err).Msg("failed to decode coinbase message")
			continue
		}
		if update.Type != "ticker" {
			// e.g. "subscriptions" acknowledgements or errors
			f.log.Debug().Str("type", update.Type).Msg("non-ticker coinbase message")
			continue
		}
		// Incoming read means the connection is alive.
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		select {
		case out <- update:
			metrics.TicksTotal.WithLabelValues(update.ProductID).Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
