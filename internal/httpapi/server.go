package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/paige-robotics/feelme/internal/archive"
	"github.com/paige-robotics/feelme/internal/config"
	"github.com/paige-robotics/feelme/internal/observability"
	"github.com/paige-robotics/feelme/internal/protocol"
	"github.com/paige-robotics/feelme/internal/session"
	"github.com/paige-robotics/feelme/pkg/logger"
)

// Server is the read-only operator surface running beside the loop. Nothing
// here drives a turn; the console owns control.
type Server struct {
	cfg      config.Config
	state    *session.State
	store    archive.Store
	feed     *protocol.Feed
	window   *observability.StageWindow
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func New(cfg config.Config, state *session.State, store archive.Store, feed *protocol.Feed, window *observability.StageWindow, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{
		cfg:     cfg,
		state:   state,
		store:   store,
		feed:    feed,
		window:  window,
		log:     log.Named("httpapi"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same origin
				// unless explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/api/session", s.handleSession)
	r.Get("/api/turns", s.handleTurns)
	r.Get("/api/perf", s.handlePerf)
	r.Get("/ws/feed", s.handleFeedWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"voice_mode": s.cfg.VoiceMode,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	status := "ready"
	if s.state != nil && s.state.Snapshot().Status == session.StatusEnded {
		status = "ended"
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": status})
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	if s.state == nil {
		respondError(w, http.StatusNotFound, "no_session", "no session state")
		return
	}
	respondJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleTurns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil || s.state == nil {
		respondError(w, http.StatusNotFound, "no_archive", "turn archive not configured")
		return
	}
	limit := s.cfg.ArchiveRecentLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	turns, err := s.store.RecentTurns(r.Context(), s.state.ID(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "archive_error", err.Error())
		return
	}
	if turns == nil {
		turns = []archive.TurnRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": s.state.ID(),
		"turns":      turns,
	})
}

func (s *Server) handlePerf(w http.ResponseWriter, _ *http.Request) {
	if s.window == nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"generated_at": "",
			"window_size":  0,
			"stages":       []any{},
		})
		return
	}
	respondJSON(w, http.StatusOK, s.window.Snapshot())
}

func (s *Server) handleFeedWS(w http.ResponseWriter, r *http.Request) {
	if s.feed == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "feed not configured")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := s.feed.Subscribe()
	defer s.feed.Unsubscribe(sub)

	// Reader goroutine only notices disconnects; inbound frames are ignored.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case msg, ok := <-sub:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
