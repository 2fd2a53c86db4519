// Package server exposes the screener over HTTP: strategy listing,
// synchronous screen runs, and a websocket progress stream.
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"stock-screener-lab/internal/domain"
	"stock-screener-lab/internal/observability"
	"stock-screener-lab/internal/screener"
)

// Server wires the screener into HTTP handlers.
type Server struct {
	screener *screener.Screener
	symbols  []string
	opts     screener.Options
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu         sync.RWMutex
	strategies map[string]*domain.Strategy
}

// New creates a Server screening the given default universe.
func New(s *screener.Screener, strategies []*domain.Strategy, symbols []string, opts screener.Options, log zerolog.Logger) *Server {
	byName := make(map[string]*domain.Strategy, len(strategies))
	for _, strat := range strategies {
		byName[strat.Name] = strat
	}
	return &Server{
		screener:   s,
		symbols:    symbols,
		opts:       opts,
		log:        log,
		strategies: byName,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Handler returns the HTTP routing for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/api/strategies", s.handleStrategies)
	mux.HandleFunc("/api/screen", s.handleScreen)
	mux.HandleFunc("/ws/screen", s.handleScreenWS)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// strategyInfo is the /api/strategies row.
type strategyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Conditions  int    `json:"conditions"`
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	infos := make([]strategyInfo, 0, len(s.strategies))
	for _, strat := range s.strategies {
		infos = append(infos, strategyInfo{
			Name:        strat.Name,
			Description: strat.Description,
			Conditions:  len(strat.Conditions),
		})
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, infos)
}

// screenRequest is the /api/screen request body. Symbols defaults to
// the configured universe when empty.
type screenRequest struct {
	Strategy string   `json:"strategy"`
	Symbols  []string `json:"symbols,omitempty"`
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req screenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	strat, ok := s.lookupStrategy(req.Strategy)
	if !ok {
		http.Error(w, "unknown strategy", http.StatusNotFound)
		return
	}
	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = s.symbols
	}

	report, err := s.screener.Run(r.Context(), strat, symbols, s.opts)
	if err != nil {
		s.log.Error().Err(err).Str("strategy", strat.Name).Msg("screen run failed")
		http.Error(w, "screen run failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// progressEvent is one websocket frame during a streamed screen run.
type progressEvent struct {
	Type   string               `json:"type"` // progress or report
	Done   int                  `json:"done,omitempty"`
	Total  int                  `json:"total,omitempty"`
	Result *domain.SymbolResult `json:"result,omitempty"`
	Report *screener.Report     `json:"report,omitempty"`
}

// handleScreenWS streams per-symbol progress frames and a final report
// frame over a websocket. The strategy is selected by query parameter.
func (s *Server) handleScreenWS(w http.ResponseWriter, r *http.Request) {
	strat, ok := s.lookupStrategy(r.URL.Query().Get("strategy"))
	if !ok {
		http.Error(w, "unknown strategy", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Progress frames come from worker goroutines; serialize writes.
	var writeMu sync.Mutex
	send := func(ev progressEvent) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(ev); err != nil {
			s.log.Debug().Err(err).Msg("websocket write failed")
		}
	}

	opts := s.opts
	opts.OnProgress = func(done, total int, result domain.SymbolResult) {
		send(progressEvent{Type: "progress", Done: done, Total: total, Result: &result})
	}

	report, err := s.screener.Run(r.Context(), strat, s.symbols, opts)
	if err != nil {
		s.log.Error().Err(err).Str("strategy", strat.Name).Msg("streamed screen run failed")
		writeMu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "screen run failed"), closeDeadline())
		writeMu.Unlock()
		return
	}

	send(progressEvent{Type: "report", Report: report})
	writeMu.Lock()
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), closeDeadline())
	writeMu.Unlock()
}

func (s *Server) lookupStrategy(name string) (*domain.Strategy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	strat, ok := s.strategies[name]
	return strat, ok
}

func closeDeadline() time.Time {
	return time.Now().Add(5 * time.Second)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
