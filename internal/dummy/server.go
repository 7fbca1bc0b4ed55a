package dummy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"chaosdash/internal/api"
	"chaosdash/internal/chaos"
	"chaosdash/internal/session"
	"chaosdash/internal/telemetry"
)

type ServerConfig struct {
	Addr string
	// Interval between synthetic snapshots. Zero disables them; snapshots
	// then only come from POST /api/stats.
	Interval time.Duration
	Logger   *zap.Logger
	Seed     int64
}

// Server fakes the control API of the chaos tester. It accepts chaos
// configs, tracks whether a session is running and streams made-up
// snapshots derived from both. It never generates real load.
type Server struct {
	hub      *Hub
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	chaos   chaos.Config
	load    *session.Request
	users   int
	rnd     *rand.Rand
	updates int
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	logger := cfg.Logger.Named("dummy")
	return &Server{
		hub:      NewHub(logger),
		interval: cfg.Interval,
		logger:   logger,
		chaos:    chaos.DefaultConfig(),
		rnd:      rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// Handler routes the control API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+api.PathTelemetry, s.hub.HandleWebSocket)
	mux.HandleFunc("POST "+api.PathChaos, s.handleChaos)
	mux.HandleFunc("POST "+api.PathStart, s.handleStart)
	mux.HandleFunc("POST "+api.PathStop, s.handleStop)
	mux.HandleFunc("POST "+api.PathStats, s.handleStats)
	return mux
}

// Chaos returns the last accepted chaos config.
func (s *Server) Chaos() chaos.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chaos
}

// ChaosUpdates counts accepted chaos configs.
func (s *Server) ChaosUpdates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

// Running reports the active session, if any.
func (s *Server) Running() (session.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.load == nil {
		return session.Request{}, false
	}
	return *s.load, true
}

func (s *Server) handleChaos(w http.ResponseWriter, r *http.Request) {
	cfg := chaos.DefaultConfig()
	if err := decodeBody(r, &cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, statusBody{Status: "error", Message: err.Error()})
		return
	}
	if err := cfg.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, statusBody{Status: "error", Message: err.Error()})
		return
	}

	s.mu.Lock()
	s.chaos = cfg
	s.updates++
	s.mu.Unlock()

	s.logger.Info("chaos config applied", zap.Any("config", cfg), zap.String("request_id", r.Header.Get("X-Request-ID")))
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "chaos_state": cfg})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	req := session.NewRequest("", "", "")
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusBody{Status: "error", Message: err.Error()})
		return
	}
	if req.Users < 1 || req.SpawnRate < 1 {
		writeJSON(w, http.StatusUnprocessableEntity, statusBody{Status: "error", Message: "users and spawn_rate must be at least 1"})
		return
	}

	s.mu.Lock()
	if s.load != nil {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, statusBody{Status: "error", Message: "Load test already running"})
		return
	}
	s.load = &req
	s.users = 0
	s.mu.Unlock()

	s.logger.Info("load test started",
		zap.String("target_url", req.TargetURL),
		zap.Int("users", req.Users),
		zap.Int("spawn_rate", req.SpawnRate))
	writeJSON(w, http.StatusOK, statusBody{Status: "success", Message: "Load test started"})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.load == nil {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, statusBody{Status: "error", Message: "Load test not running"})
		return
	}
	s.load = nil
	s.users = 0
	s.mu.Unlock()

	s.logger.Info("load test stopped")
	writeJSON(w, http.StatusOK, statusBody{Status: "success", Message: "Load test stopped"})
}

// handleStats relays a posted snapshot to every telemetry client.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, statusBody{Status: "error", Message: err.Error()})
		return
	}
	if _, err := telemetry.Decode(body, time.Now()); err != nil {
		writeJSON(w, http.StatusBadRequest, statusBody{Status: "error", Message: err.Error()})
		return
	}
	s.hub.Broadcast(body)
	writeJSON(w, http.StatusOK, statusBody{Status: "ok"})
}

// Synthesize advances the fake session by one tick and returns the
// resulting snapshot. Users ramp up by the spawn rate each tick; the
// numbers react to the chaos config.
func (s *Server) Synthesize(at time.Time) telemetry.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.load == nil {
		return telemetry.Snapshot{Timestamp: at}
	}
	s.users = min(s.users+s.load.SpawnRate, s.load.Users)

	c := s.chaos
	base := 40 + float64(c.LatencyMs)
	if c.LatencyJitterMs > 0 {
		base += (s.rnd.Float64()*2 - 1) * float64(c.LatencyJitterMs)
	}
	latency := math.Max(1, base*c.SlowdownMultiplier)

	// Each user waits 0.1..1s between requests plus the response time.
	perUser := 1000 / (550 + latency)
	rps := float64(s.users) * perUser * (0.9 + s.rnd.Float64()*0.2)
	failShare := math.Min(1, (c.PacketLossPercent+c.RateLimitPercent)/100)

	return telemetry.Snapshot{
		Timestamp:    at,
		RPS:          round1(rps),
		FailureRate:  round1(rps * failShare),
		AvgLatencyMs: round1(latency),
		ActiveUsers:  s.users,
	}
}

// Run broadcasts a synthetic snapshot every interval until ctx is done.
func (s *Server) Run(ctx context.Context) {
	if s.interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			data, err := telemetry.Encode(s.Synthesize(now))
			if err != nil {
				s.logger.Error("encode snapshot", zap.Error(err))
				continue
			}
			s.hub.Broadcast(data)
		}
	}
}

// Start serves the dummy API on cfg.Addr until ctx is cancelled.
func Start(ctx context.Context, cfg ServerConfig) error {
	s := NewServer(cfg)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	s.logger.Info("dummy control server listening",
		zap.String("addr", cfg.Addr),
		zap.Strings("endpoints", []string{api.PathTelemetry, api.PathChaos, api.PathStart, api.PathStop, api.PathStats}))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dummy server: %w", err)
	case <-ctx.Done():
	}

	s.hub.CloseAll()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return server.Shutdown(shutdownCtx)
}

type statusBody struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
