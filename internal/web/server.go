// Package web serves the Spotify authorization callback. The auth link
// handed to a user carries their Discord user ID as the OAuth state, so
// the callback can bind the exchanged tokens to the right session.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jfmyers9/trackdown/internal/store"
	"github.com/jfmyers9/trackdown/pkg/spotify"
	"github.com/rs/zerolog"
)

const (
	successBody = "Successfully authenticated. You can close this window."
	failureBody = "Failed to authenticate."
)

// TokenExchanger swaps an authorization code for a token pair.
// Implemented by spotify.AuthService.
type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (*spotify.Token, error)
}

// Server handles the OAuth redirect from Spotify.
type Server struct {
	store     store.Store
	exchanger TokenExchanger
	logger    zerolog.Logger
	srv       *http.Server
}

// NewServer creates a callback server listening on addr.
func NewServer(addr string, st store.Store, exchanger TokenExchanger, logger zerolog.Logger) *Server {
	s := &Server{
		store:     st,
		exchanger: exchanger,
		logger:    logger.With().Str("component", "web").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))
	r.Get("/callback", s.handleCallback)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe runs the server until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.srv.Addr).Msg("Callback server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("callback server failed: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		s.logger.Warn().Msg("Callback missing code or state")
		http.Error(w, failureBody, http.StatusBadRequest)
		return
	}

	token, err := s.exchanger.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to exchange authorization code")
		http.Error(w, failureBody, http.StatusBadGateway)
		return
	}

	session := store.Session{
		UserID:       state,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if err := s.store.Put(r.Context(), session); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist session")
		http.Error(w, failureBody, http.StatusInternalServerError)
		return
	}

	s.logger.Info().Str("user_id", state).Msg("User authenticated")
	fmt.Fprint(w, successBody)
}
