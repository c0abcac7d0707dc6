package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/gorilla/mux"

	"haptune/internal/config"
	"haptune/internal/daemon"
	"haptune/internal/logging"
)

// Server exposes read-only daemon state over HTTP. Mutating operations stay
// on the IPC socket.
type Server struct {
	bind   string
	logger *slog.Logger
	daemon *daemon.Daemon

	listener net.Listener
	server   *http.Server
}

// New configures the HTTP API. Returns nil when no bind address is set.
func New(cfg *config.Config, d *daemon.Daemon, logger *slog.Logger) *Server {
	if cfg == nil || d == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	srv := &Server{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "httpapi"),
		daemon: d,
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/status", srv.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/capability", srv.handleCapability).Methods(http.MethodGet)
	router.HandleFunc("/api/cache", srv.handleCache).Methods(http.MethodGet)
	router.HandleFunc("/api/history", srv.handleHistory).Methods(http.MethodGet)

	srv.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Start begins serving until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound listener address, empty before Start.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

type statusPayload struct {
	Running          bool     `json:"running"`
	PID              int      `json:"pid"`
	Tier             string   `json:"tier"`
	SocketPath       string   `json:"socket_path"`
	HistoryDBPath    string   `json:"history_db_path"`
	PreloadedBundles []string `json:"preloaded_bundles"`
	PreloadedClips   []string `json:"preloaded_clips"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, statusPayload{
		Running:          status.Running,
		PID:              status.PID,
		Tier:             status.Tier.String(),
		SocketPath:       status.SocketPath,
		HistoryDBPath:    status.HistoryDBPath,
		PreloadedBundles: status.PreloadedBundles,
		PreloadedClips:   status.PreloadedClips,
	})
}

func (s *Server) handleCapability(w http.ResponseWriter, r *http.Request) {
	desc, tier := s.daemon.Capability()
	s.writeJSON(w, http.StatusOK, daemon.DescribeCapability(desc, tier))
}

func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	stats, err := s.daemon.CacheStats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

type historyPayload struct {
	SessionID   string     `json:"session_id"`
	Source      string     `json:"source"`
	Tier        int        `json:"tier"`
	DurationMS  int64      `json:"duration_ms"`
	EffectCount int        `json:"effect_count"`
	AudioCount  int        `json:"audio_count"`
	FileCount   int        `json:"file_count"`
	Route       string     `json:"route"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	records, err := s.daemon.HistoryList(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payload := make([]historyPayload, 0, len(records))
	for _, rec := range records {
		payload = append(payload, historyPayload{
			SessionID:   rec.SessionID,
			Source:      rec.Source,
			Tier:        rec.Tier,
			DurationMS:  rec.Duration.Milliseconds(),
			EffectCount: rec.EffectCount,
			AudioCount:  rec.AudioCount,
			FileCount:   rec.FileCount,
			Route:       rec.Route,
			StartedAt:   rec.StartedAt,
			CompletedAt: rec.CompletedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response failed", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
