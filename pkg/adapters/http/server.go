package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/go-chi/chi/v5"
)

// NavigateRequest is the body of push and replace.
type NavigateRequest struct {
	To    string `json:"to"`
	State any    `json:"state,omitempty"`
}

// GoRequest is the body of go.
type GoRequest struct {
	Delta *int `json:"delta"`
}

// LocationResponse describes the current position of a session.
type LocationResponse struct {
	Session  string          `json:"session"`
	Action   domain.Action   `json:"action"`
	Location domain.Location `json:"location"`
	Index    int             `json:"index"`
	Href     string          `json:"href"`
}

// Server exposes the histories of a session manager over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager
	logger   *slog.Logger

	mu        sync.Mutex
	listening map[string]func()
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server backed by the given manager.
func NewServer(sessions *session.Manager, opts ...ServerOption) *Server {
	s := &Server{
		Sessions:  sessions,
		Streams:   NewStreamManager(),
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
		listening: make(map[string]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates a new HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, opts ...ServerOption) http.Handler {
	return NewServer(sessions, opts...).Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/sessions", s.ListSessions)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.GetLocation)
		r.Delete("/", s.DeleteSession)
		r.Post("/push", s.Push)
		r.Post("/replace", s.Replace)
		r.Post("/go", s.Go)
		r.Post("/back", s.Back)
		r.Post("/forward", s.Forward)
		r.Get("/href", s.CreateHref)
		r.Get("/events", s.SubscribeEvents)
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close detaches every stream listener.
func (s *Server) Close() {
	s.mu.Lock()
	listening := s.listening
	s.listening = make(map[string]func())
	s.mu.Unlock()

	for _, unlisten := range listening {
		unlisten()
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "waypoint-http",
		"version": strings.TrimSpace(waypoint.Version),
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, "list sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetLocation handles the GET /sessions/{id} request.
func (s *Server) GetLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var resp LocationResponse
	err := s.Sessions.Do(r.Context(), id, func(_ context.Context, h *waypoint.History) error {
		s.watch(id, h)
		resp = describe(id, h)
		return nil
	})
	if err != nil {
		s.fail(w, "read location", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.unwatch(id)
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.fail(w, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Push handles the POST /sessions/{id}/push request.
func (s *Server) Push(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, r, "push", func(ctx context.Context, h *waypoint.History, body NavigateRequest) error {
		return h.Push(ctx, body.To, body.State)
	})
}

// Replace handles the POST /sessions/{id}/replace request.
func (s *Server) Replace(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, r, "replace", func(ctx context.Context, h *waypoint.History, body NavigateRequest) error {
		return h.Replace(ctx, body.To, body.State)
	})
}

func (s *Server) navigate(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, *waypoint.History, NavigateRequest) error) {
	var body NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("invalid request body", "op", op, "err", err)
		return
	}
	if body.To == "" {
		http.Error(w, "Missing target", http.StatusBadRequest)
		return
	}

	s.move(w, r, op, func(ctx context.Context, h *waypoint.History) error {
		return fn(ctx, h, body)
	})
}

// Go handles the POST /sessions/{id}/go request.
func (s *Server) Go(w http.ResponseWriter, r *http.Request) {
	var body GoRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Delta == nil {
		http.Error(w, domain.ErrInvalidDelta.Error(), http.StatusBadRequest)
		s.logger.Warn("invalid delta", "err", err)
		return
	}
	delta := *body.Delta
	s.move(w, r, "go", func(ctx context.Context, h *waypoint.History) error {
		return h.Go(ctx, delta)
	})
}

// Back handles the POST /sessions/{id}/back request.
func (s *Server) Back(w http.ResponseWriter, r *http.Request) {
	s.move(w, r, "back", func(ctx context.Context, h *waypoint.History) error {
		return h.Back(ctx)
	})
}

// Forward handles the POST /sessions/{id}/forward request.
func (s *Server) Forward(w http.ResponseWriter, r *http.Request) {
	s.move(w, r, "forward", func(ctx context.Context, h *waypoint.History) error {
		return h.Forward(ctx)
	})
}

func (s *Server) move(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, *waypoint.History) error) {
	id := chi.URLParam(r, "id")
	var resp LocationResponse
	err := s.Sessions.Do(r.Context(), id, func(ctx context.Context, h *waypoint.History) error {
		s.watch(id, h)
		if err := fn(ctx, h); err != nil {
			return err
		}
		resp = describe(id, h)
		return nil
	})
	if err != nil {
		s.fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateHref handles the GET /sessions/{id}/href request.
func (s *Server) CreateHref(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	to := r.URL.Query().Get("to")
	if to == "" {
		http.Error(w, "Missing target", http.StatusBadRequest)
		return
	}
	h, err := s.Sessions.History(r.Context(), id)
	if err != nil {
		s.fail(w, "create href", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"href": h.CreateHref(to)})
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	h, err := s.Sessions.History(r.Context(), id)
	if err != nil {
		s.fail(w, "subscribe", err)
		return
	}
	s.watch(id, h)

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	s.logger.Info("sse client connected", "session_id", id)
	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("sse client disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: update\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// watch attaches a single listener per session that feeds the stream manager.
func (s *Server) watch(id string, h *waypoint.History) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listening[id]; ok {
		return
	}
	s.listening[id] = h.Listen(func(u domain.Update) {
		payload, err := json.Marshal(LocationResponse{
			Session:  id,
			Action:   u.Action,
			Location: u.Location,
			Index:    u.Index,
			Href:     h.CreateHref(u.Location.Path.String()),
		})
		if err != nil {
			s.logger.Error("failed to encode update", "session_id", id, "err", err)
			return
		}
		s.Streams.Broadcast(id, string(payload))
	})
}

func (s *Server) unwatch(id string) {
	s.mu.Lock()
	unlisten, ok := s.listening[id]
	delete(s.listening, id)
	s.mu.Unlock()
	if ok {
		unlisten()
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidDelta):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "op", op, "err", err)
	}
	http.Error(w, fmt.Sprintf("%s: %v", op, err), status)
}

func describe(id string, h *waypoint.History) LocationResponse {
	snap := h.Snapshot()
	return LocationResponse{
		Session:  id,
		Action:   snap.Action,
		Location: snap.Location,
		Index:    snap.Index,
		Href:     h.CreateHref(snap.Location.Path.String()),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
