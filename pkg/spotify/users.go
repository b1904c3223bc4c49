package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// UserService provides operations on the authorized user's profile and
// listening history.
type UserService struct {
	client *Client
}

// topArtistsResponse is the paging envelope around the user's top artists.
type topArtistsResponse struct {
	Items []Artist `json:"items"`
}

// Me fetches the profile of the user the access token belongs to.
//
// Beyond returning the profile, this is the cheapest authenticated call
// the API offers, which makes it useful as a liveness probe for a
// stored access token.
func (u *UserService) Me(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := u.client.get(ctx, accessToken, "/me", nil, &user); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &user, nil
}

// TopArtists fetches the user's most listened-to artists, up to limit.
func (u *UserService) TopArtists(ctx context.Context, accessToken string, limit int) ([]Artist, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp topArtistsResponse
	if err := u.client.get(ctx, accessToken, "/me/top/artists", q, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch top artists: %w", err)
	}
	return resp.Items, nil
}
