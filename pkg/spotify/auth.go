package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// AuthService provides authorization operations against the Spotify
// accounts service.
type AuthService struct {
	client *Client
}

// AuthURL returns the URL where a user authorizes the application.
//
// The state value is passed through the authorization flow untouched
// and is returned to the redirect URI; callers use it to correlate the
// callback with the user who initiated the flow.
//
// Example:
//
//	authURL, err := client.Auth().AuthURL(userID, []string{spotify.ScopeUserTopRead})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Please visit:", authURL)
func (a *AuthService) AuthURL(state string, scopes []string) (string, error) {
	if a.client.redirectURI == "" {
		return "", ErrNoRedirectURI
	}

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", a.client.clientID)
	q.Set("redirect_uri", a.client.redirectURI)
	q.Set("state", state)
	if len(scopes) > 0 {
		q.Set("scope", strings.Join(scopes, " "))
	}

	return a.client.accountsURL + "/authorize?" + q.Encode(), nil
}

// Exchange trades an authorization code for an access and refresh token.
//
// The code arrives at the redirect URI after the user approves the
// application. The returned Token always carries both an access and a
// refresh token; the refresh token should be stored for later use with
// Refresh.
func (a *AuthService) Exchange(ctx context.Context, code string) (*Token, error) {
	if a.client.redirectURI == "" {
		return nil, ErrNoRedirectURI
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", a.client.redirectURI)

	token, err := a.client.postToken(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("authorization code exchange failed: %w", err)
	}

	return token, nil
}

// Refresh trades a refresh token for a fresh access token.
//
// Spotify may or may not rotate the refresh token; when the returned
// Token has an empty RefreshToken the previously stored one remains
// valid.
func (a *AuthService) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	token, err := a.client.postToken(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	return token, nil
}
