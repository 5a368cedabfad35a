package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"AssetTracker/internal/acquisition"
	"AssetTracker/internal/calculator"
	"AssetTracker/internal/format"
	"AssetTracker/internal/model"
)

// Server exposes the tracker's read side as JSON.
type Server struct {
	addr         string
	tracker      *acquisition.Tracker
	srv          *http.Server
	fetchTimeout time.Duration
}

func NewServer(addr string, tr *acquisition.Tracker) *Server {
	return &Server{addr: addr, tracker: tr, fetchTimeout: 15 * time.Second}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/coins", s.handleCoins)
	mux.HandleFunc("/api/options", s.handleOptions)
	mux.HandleFunc("/api/chart", s.handleChart)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/status", s.handleStatus)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] http shutdown: %v", err)
		}
	}()

	log.Printf("[INFO] http server listening on %s", s.addr)
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleCoins(w http.ResponseWriter, r *http.Request) {
	coins := s.tracker.ReferenceList()
	if coins == nil {
		coins = []model.Coin{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"coins":  coins,
		"status": s.tracker.Reference.Status(),
	})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.SelectOptions())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"selection": s.tracker.Selection(),
		"status":    s.tracker.Status(),
	})
}

// handleChart: /api/chart?coin=bitcoin&compare=ethereum&compare_enabled=true&days=30
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel := acquisition.Selection{
		Coin:    q.Get("coin"),
		Compare: q.Get("compare"),
	}
	if sel.Coin == "" {
		writeError(w, http.StatusBadRequest, "coin required")
		return
	}
	if v := q.Get("compare_enabled"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "compare_enabled must be a boolean")
			return
		}
		sel.Comparison = enabled
	}
	if v := q.Get("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "days must be an integer")
			return
		}
		sel.Days = model.DaysRange(days)
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.fetchTimeout)
	defer cancel()

	view, err := s.tracker.ChartRowsFor(ctx, sel)
	switch {
	case errors.Is(err, model.ErrInvalidDaysRange):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, acquisition.ErrSelectionChanged), errors.Is(err, acquisition.ErrSuperseded):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusGatewayTimeout, err.Error())
		return
	}

	code := http.StatusOK
	if view.Status.Primary.Error != "" {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, map[string]any{
		"rows":      view.Rows,
		"summary":   calculator.Summarize(view.Rows),
		"selection": view.Selection,
		"status":    view.Status,
	})
}

// handleStats: /api/stats?coin=bitcoin&compare=ethereum
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	coin, ok := s.tracker.FindCoin(r.URL.Query().Get("coin"))
	if !ok {
		writeError(w, http.StatusNotFound, "coin not found")
		return
	}
	var compare *model.Coin
	if id := r.URL.Query().Get("compare"); id != "" {
		c, ok := s.tracker.FindCoin(id)
		if !ok {
			writeError(w, http.StatusNotFound, "compare coin not found")
			return
		}
		compare = &c
	}
	writeJSON(w, http.StatusOK, format.StatsBar(coin, compare))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
