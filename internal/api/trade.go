package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/suwandre/tv-trading-bot/internal/engine"
	"github.com/suwandre/tv-trading-bot/internal/metrics"
	"github.com/suwandre/tv-trading-bot/internal/trade"
)

// handleExecutePaperTrade executes a paper trade based on the alert
// received from TradingView.
func (s *Server) handleExecutePaperTrade(w http.ResponseWriter, r *http.Request) {
	var alert trade.TradingViewAlert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		metrics.AlertsTotal.WithLabelValues("unknown", "invalid").Inc()
		writeJSON(w, http.StatusBadRequest, Response[trade.ActiveTrade]{
			Status:  "400 Bad Request",
			Message: "Invalid alert payload.",
		})
		return
	}

	if alert.Secret != s.secret {
		s.log.Warn().Str("pair", alert.Pair).Msg("alert rejected: invalid secret")
		metrics.AlertsTotal.WithLabelValues(string(alert.Signal), "unauthorized").Inc()
		writeJSON(w, http.StatusUnauthorized, Response[trade.ActiveTrade]{
			Status:  "401 Unauthorized",
			Message: "Invalid secret provided.",
		})
		return
	}

	if !alert.Signal.Valid() || alert.Pair == "" || alert.Price <= 0 {
		metrics.AlertsTotal.WithLabelValues(string(alert.Signal), "invalid").Inc()
		writeJSON(w, http.StatusBadRequest, Response[trade.ActiveTrade]{
			Status:  "400 Bad Request",
			Message: "Alert must include a buy/sell signal, a pair, and a positive price.",
		})
		return
	}

	s.log.Info().
		Str("signal", string(alert.Signal)).
		Str("pair", alert.Pair).
		Float64("price", alert.Price).
		Msg("received alert")

	result, err := s.engine.HandleAlert(r.Context(), alert)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownPair) {
			metrics.AlertsTotal.WithLabelValues(string(alert.Signal), "unknown_pair").Inc()
			writeJSON(w, http.StatusBadRequest, Response[trade.ActiveTrade]{
				Status:  "400 Bad Request",
				Message: "Pair is not tracked by this bot.",
			})
			return
		}
		s.log.Error().Err(err).Str("pair", alert.Pair).Msg("alert handling failed")
		metrics.AlertsTotal.WithLabelValues(string(alert.Signal), "error").Inc()
		writeJSON(w, http.StatusInternalServerError, Response[trade.ActiveTrade]{
			Status:  "500 Internal Server Error",
			Message: "Failed to execute trade.",
		})
		return
	}

	metrics.AlertsTotal.WithLabelValues(string(alert.Signal), string(result.Action)).Inc()
	switch result.Action {
	case engine.ActionOpened:
		writeJSON(w, http.StatusOK, Response[trade.ActiveTrade]{
			Status:  "200 OK",
			Message: "Trade executed successfully.",
			Data:    result.Opened,
		})
	case engine.ActionClosed:
		writeJSON(w, http.StatusOK, Response[trade.ClosedTrade]{
			Status:  "200 OK",
			Message: "Opposite signal received; existing trade closed.",
			Data:    result.Closed,
		})
	default:
		writeJSON(w, http.StatusOK, Response[trade.ActiveTrade]{
			Status:  "200 OK",
			Message: "Trade already open for this pair; alert ignored.",
			Data:    result.Opened,
		})
	}
}
