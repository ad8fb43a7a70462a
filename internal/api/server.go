// Package api exposes the webhook HTTP surface of the bot.
package api

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/suwandre/tv-trading-bot/internal/engine"
)

// Server routes TradingView webhooks into the trade engine.
type Server struct {
	log    zerolog.Logger
	secret string
	engine *engine.Engine
}

// New wires the webhook handlers to an engine.
func New(log zerolog.Logger, secret string, eng *engine.Engine) *Server {
	return &Server{log: log, secret: secret, engine: eng}
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("POST /trade/execute_paper_trade", s.handleExecutePaperTrade)
	return mux
}

// handleRoot confirms the server is running.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, "tv-trading-bot is running")
}
