// Package api exposes conversation sessions over HTTP.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/agriform/internal/dialogue"
	"github.com/MikeSquared-Agency/agriform/internal/locale"
	"github.com/MikeSquared-Agency/agriform/internal/store"
)

// SessionStore is the persistence the API needs. Both store.Store and
// store.Memory satisfy it.
type SessionStore interface {
	SaveSession(ctx context.Context, sess *dialogue.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*dialogue.Session, error)
	WriteRecord(ctx context.Context, sess *dialogue.Session) (uuid.UUID, error)
	ListRecords(ctx context.Context, limit int) ([]store.FarmRecord, error)
}

type Server struct {
	router    *chi.Mux
	port      int
	store     SessionStore
	dialogue  *dialogue.Controller
	languages *locale.Table
	logger    *slog.Logger

	// claimed covers load-to-save of a session so two requests never
	// work on diverging copies.
	mu      sync.Mutex
	claimed map[uuid.UUID]struct{}
}

func NewServer(port int, apiToken string, st SessionStore, ctrl *dialogue.Controller, languages *locale.Table, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		port:      port,
		store:     st,
		dialogue:  ctrl,
		languages: languages,
		logger:    logger,
		claimed:   make(map[uuid.UUID]struct{}),
	}

	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Get("/languages", s.listLanguages)
		r.Post("/sessions", s.startSession)
		r.Get("/sessions/{id}", s.getSession)
		r.Post("/sessions/{id}/answers", s.submitAnswer)
		r.Post("/sessions/{id}/handoff", s.retryHandoff)
		r.Get("/records", s.listRecords)
	})

	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// BearerAuthMiddleware requires "Authorization: Bearer <token>". An empty
// token disables the check.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		want := []byte("Bearer " + token)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get("Authorization"))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) claim(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claimed[id]; ok {
		return false
	}
	s.claimed[id] = struct{}{}
	return true
}

func (s *Server) unclaim(id uuid.UUID) {
	s.mu.Lock()
	delete(s.claimed, id)
	s.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func sessionID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
}
