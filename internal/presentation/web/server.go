// Package web exposes a small JSON API over the session registry and
// terminal bridge, for driving the bot without a chat platform.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/bridge"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/session"
	domain "github.com/DannyAtVodooTH/claude-terminal-bot/internal/domain/session"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/logging"
)

// Server serves the HTTP front-end.
type Server struct {
	registry *session.Registry
	bridge   *bridge.Bridge
	logger   *logging.Logger
	http     *http.Server
}

// NewServer creates a web server bound to addr.
func NewServer(addr string, registry *session.Registry, br *bridge.Bridge, logger *logging.Logger) *Server {
	s := &Server{
		registry: registry,
		bridge:   br,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}/output", s.handleOutput)
	mux.HandleFunc("POST /api/sessions/{id}/command", s.handleCommand)
	mux.HandleFunc("POST /api/sessions/{id}/claude/start", s.handleStartAssistant)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the route mux, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("web interface listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type sessionView struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	WorkingDir      string   `json:"working_dir"`
	Status          string   `json:"status"`
	AssistantActive bool     `json:"assistant_active"`
	Topic           string   `json:"topic,omitempty"`
	ContextFiles    []string `json:"context_files,omitempty"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.registry.List()
	views := make([]sessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, sessionView{
			ID:              sess.ID,
			Name:            sess.Name,
			WorkingDir:      sess.WorkingDir,
			Status:          string(sess.Status),
			AssistantActive: sess.AssistantActive,
			Topic:           sess.Topic,
			ContextFiles:    sess.ContextFiles,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Topic string `json:"topic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid JSON body"})
		return
	}
	if req.Name == "" {
		req.Name = "web-session"
	}
	if req.Topic == "" {
		req.Topic = "web"
	}

	sess, err := s.registry.Create(r.Context(), req.Name, req.Topic)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "session_id": sess.ID})
}

func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	output, err := s.bridge.Tail(r.Context(), sess, 100)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"output": output})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Command) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "command is required"})
		return
	}

	result, err := s.bridge.ExecuteCommand(r.Context(), sess, req.Command)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"result": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (s *Server) handleStartAssistant(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	if err := s.bridge.StartAssistant(r.Context(), sess); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"result": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": "assistant started in session " + sess.ID})
}

// lookup resolves the path's session ID or writes a not-found reply.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*domain.Session, bool) {
	found, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Session not found"})
		return nil, false
	}
	return found, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
