package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// CatalogService provides catalogue browsing operations.
type CatalogService struct {
	client *Client
}

// artistAlbumsResponse is the paging envelope around an artist's albums.
type artistAlbumsResponse struct {
	Items []Album `json:"items"`
}

// albumsResponse is the envelope returned by the batch album endpoint.
type albumsResponse struct {
	Albums []Album `json:"albums"`
}

// maxAlbumsPerRequest is the batch size limit of GET /albums.
const maxAlbumsPerRequest = 20

// ArtistAlbums fetches an artist's albums, up to limit. The returned
// albums are simplified objects without track listings; pass their IDs
// to Albums to get tracks.
func (s *CatalogService) ArtistAlbums(ctx context.Context, accessToken, artistID string, limit int) ([]Album, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp artistAlbumsResponse
	path := "/artists/" + url.PathEscape(artistID) + "/albums"
	if err := s.client.get(ctx, accessToken, path, q, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch artist albums: %w", err)
	}
	return resp.Items, nil
}

// Albums fetches full album objects, including track listings, for up
// to 20 album IDs per call.
func (s *CatalogService) Albums(ctx context.Context, accessToken string, ids []string) ([]Album, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > maxAlbumsPerRequest {
		return nil, fmt.Errorf("cannot fetch more than %d albums at once (got %d)", maxAlbumsPerRequest, len(ids))
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))

	var resp albumsResponse
	if err := s.client.get(ctx, accessToken, "/albums", q, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch albums: %w", err)
	}
	return resp.Albums, nil
}
