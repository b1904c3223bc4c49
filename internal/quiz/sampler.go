// Package quiz implements the music-guessing round: candidate sampling
// from an artist's catalogue and the round state machine that drives a
// game from trigger to verdict.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jfmyers9/trackdown/pkg/spotify"
)

// Candidate is one track offered as a possible answer. Exactly one
// candidate in a round is correct, and every candidate carries a
// playable preview URL.
type Candidate struct {
	Name       string
	PreviewURL string
	Correct    bool
}

// Sampler errors.
var (
	// ErrNoCatalogue means the artist has no albums to sample from.
	ErrNoCatalogue = errors.New("quiz: artist has no albums")

	// ErrInsufficientCandidates means the artist has fewer tracks with
	// playable previews than the requested choice count.
	ErrInsufficientCandidates = errors.New("quiz: not enough previewable tracks")
)

// Catalog is the slice of the Spotify client the sampler needs.
type Catalog interface {
	ArtistAlbums(ctx context.Context, accessToken, artistID string, limit int) ([]spotify.Album, error)
	Albums(ctx context.Context, accessToken string, ids []string) ([]spotify.Album, error)
}

// Sampler draws candidate sets from an artist's catalogue.
type Sampler struct {
	catalog    Catalog
	albumLimit int

	mu   sync.Mutex
	rand *rand.Rand
}

// NewSampler creates a Sampler over the given catalogue.
func NewSampler(catalog Catalog) *Sampler {
	return &Sampler{
		catalog:    catalog,
		albumLimit: 20,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Sample draws n distinct tracks from the artist's catalogue, marks
// exactly one of them correct, and returns them in presentation order.
//
// Which track is correct is decided before the presentation order is
// shuffled, and the two draws are independent: the correct answer's
// position carries no information.
func (s *Sampler) Sample(ctx context.Context, accessToken, artistID string, n int) ([]Candidate, error) {
	if n < 1 {
		return nil, fmt.Errorf("choice count must be at least 1, got %d", n)
	}

	albums, err := s.catalog.ArtistAlbums(ctx, accessToken, artistID, s.albumLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch artist albums: %w", err)
	}
	if len(albums) == 0 {
		return nil, ErrNoCatalogue
	}

	ids := make([]string, len(albums))
	for i, album := range albums {
		ids[i] = album.ID
	}

	full, err := s.catalog.Albums(ctx, accessToken, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch album tracks: %w", err)
	}

	// Only tracks with a playable preview can be presented as a clip
	var pool []spotify.Track
	for _, album := range full {
		for _, track := range album.Tracks.Items {
			if track.PreviewURL != "" {
				pool = append(pool, track)
			}
		}
	}

	if len(pool) < n {
		return nil, ErrInsufficientCandidates
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Draw n distinct tracks without replacement
	candidates := make([]Candidate, n)
	for i, idx := range s.rand.Perm(len(pool))[:n] {
		candidates[i] = Candidate{
			Name:       pool[idx].Name,
			PreviewURL: pool[idx].PreviewURL,
		}
	}

	// Decide the correct track, then shuffle display order independently
	candidates[s.rand.Intn(n)].Correct = true
	s.rand.Shuffle(n, func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	return candidates, nil
}
