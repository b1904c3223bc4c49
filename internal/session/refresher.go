// Package session keeps stored Spotify sessions usable, refreshing
// expired access tokens transparently.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jfmyers9/trackdown/internal/store"
	"github.com/jfmyers9/trackdown/pkg/spotify"
	"github.com/rs/zerolog"
)

// API is the slice of the Spotify client the refresher needs: a cheap
// authenticated probe and the refresh grant.
type API interface {
	Me(ctx context.Context, accessToken string) (*spotify.User, error)
	Refresh(ctx context.Context, refreshToken string) (*spotify.Token, error)
}

// Refresher error taxonomy. Callers branch on these with errors.Is.
var (
	// ErrNotAuthenticated means no session is stored for the user; the
	// authorization flow must be completed before retrying.
	ErrNotAuthenticated = errors.New("session: user not authenticated")

	// ErrRefreshFailed means the stored refresh token was rejected; the
	// user must re-authorize. The stored session is left untouched.
	ErrRefreshFailed = errors.New("session: token refresh failed")

	// ErrUpstreamUnavailable means the probe failed for a reason other
	// than token expiry. Nothing was mutated.
	ErrUpstreamUnavailable = errors.New("session: spotify unavailable")
)

// Refresher validates and refreshes stored sessions.
type Refresher struct {
	store  store.Store
	api    API
	logger zerolog.Logger
}

// NewRefresher creates a Refresher over the given store and API.
func NewRefresher(st store.Store, api API, logger zerolog.Logger) *Refresher {
	return &Refresher{
		store:  st,
		api:    api,
		logger: logger.With().Str("component", "session").Logger(),
	}
}

// EnsureValid returns an access token for the user that is known to be
// accepted by the API, refreshing the stored session if the current
// token has expired. At most one refresh is attempted per call; a
// failed refresh is terminal and leaves the stored session unchanged.
func (r *Refresher) EnsureValid(ctx context.Context, userID string) (string, error) {
	sess, err := r.store.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotAuthenticated
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}

	// Cheap authenticated probe with the stored token
	if _, err := r.api.Me(ctx, sess.AccessToken); err == nil {
		return sess.AccessToken, nil
	} else if !spotify.IsAuthExpired(err) {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	r.logger.Info().Str("user_id", userID).Msg("Access token expired, refreshing")

	token, err := r.api.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	sess.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		sess.RefreshToken = token.RefreshToken
	}

	// A write failure is logged, not fatal; this call still proceeds
	// with the refreshed token.
	if err := r.store.Put(ctx, sess); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to persist refreshed session")
	} else {
		r.logger.Info().Str("user_id", userID).Msg("Access token refreshed")
	}

	return sess.AccessToken, nil
}

// ClientAPI adapts a *spotify.Client to the API interface.
type ClientAPI struct {
	Client *spotify.Client
}

func (a ClientAPI) Me(ctx context.Context, accessToken string) (*spotify.User, error) {
	return a.Client.Users().Me(ctx, accessToken)
}

func (a ClientAPI) Refresh(ctx context.Context, refreshToken string) (*spotify.Token, error) {
	return a.Client.Auth().Refresh(ctx, refreshToken)
}
