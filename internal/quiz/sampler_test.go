package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/jfmyers9/trackdown/pkg/spotify"
)

// fakeCatalog serves a scripted catalogue.
type fakeCatalog struct {
	albums     []spotify.Album
	albumsErr  error
	gotLimit   int
	gotAlbumID []string
}

func (f *fakeCatalog) ArtistAlbums(ctx context.Context, accessToken, artistID string, limit int) ([]spotify.Album, error) {
	f.gotLimit = limit
	if f.albumsErr != nil {
		return nil, f.albumsErr
	}
	// Simplified objects: strip track listings
	simplified := make([]spotify.Album, len(f.albums))
	for i, a := range f.albums {
		simplified[i] = spotify.Album{ID: a.ID, Name: a.Name}
	}
	return simplified, nil
}

func (f *fakeCatalog) Albums(ctx context.Context, accessToken string, ids []string) ([]spotify.Album, error) {
	f.gotAlbumID = ids
	return f.albums, nil
}

// makeAlbum builds an album with the given tracks; a track name ending
// in "!" gets no preview URL.
func makeAlbum(id string, trackNames ...string) spotify.Album {
	album := spotify.Album{ID: id, Name: "Album " + id}
	for i, name := range trackNames {
		track := spotify.Track{ID: fmt.Sprintf("%s-t%d", id, i), Name: name}
		if name[len(name)-1] != '!' {
			track.PreviewURL = "https://p.example/" + track.ID
		}
		album.Tracks.Items = append(album.Tracks.Items, track)
	}
	return album
}

func newTestSampler(catalog Catalog, seed int64) *Sampler {
	s := NewSampler(catalog)
	s.rand = rand.New(rand.NewSource(seed))
	return s
}

func TestSampler_ExactlyOneCorrect(t *testing.T) {
	catalog := &fakeCatalog{albums: []spotify.Album{
		makeAlbum("al-1", "One", "Two", "Three"),
		makeAlbum("al-2", "Four", "Five", "Six", "Seven"),
	}}

	// Exercise many draws; the invariants hold for every one
	for seed := int64(0); seed < 50; seed++ {
		s := newTestSampler(catalog, seed)

		candidates, err := s.Sample(context.Background(), "at-1", "ar-1", 4)
		if err != nil {
			t.Fatalf("Sample (seed %d): %v", seed, err)
		}
		if len(candidates) != 4 {
			t.Fatalf("expected 4 candidates, got %d", len(candidates))
		}

		correct := 0
		seen := make(map[string]bool)
		for _, c := range candidates {
			if c.Correct {
				correct++
			}
			if c.PreviewURL == "" {
				t.Errorf("candidate %q has no preview URL", c.Name)
			}
			if seen[c.Name] {
				t.Errorf("duplicate candidate %q", c.Name)
			}
			seen[c.Name] = true
		}
		if correct != 1 {
			t.Errorf("expected exactly one correct candidate, got %d (seed %d)", correct, seed)
		}
	}
}

func TestSampler_CorrectPositionVaries(t *testing.T) {
	catalog := &fakeCatalog{albums: []spotify.Album{
		makeAlbum("al-1", "One", "Two", "Three", "Four", "Five", "Six"),
	}}

	positions := make(map[int]bool)
	for seed := int64(0); seed < 100; seed++ {
		s := newTestSampler(catalog, seed)
		candidates, err := s.Sample(context.Background(), "at-1", "ar-1", 4)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		for i, c := range candidates {
			if c.Correct {
				positions[i] = true
			}
		}
	}

	// Display order must not pin the correct answer to one slot
	if len(positions) < 2 {
		t.Errorf("correct answer always landed in the same position: %v", positions)
	}
}

func TestSampler_FiltersMissingPreviews(t *testing.T) {
	// Only two tracks carry previews; names ending in "!" do not
	catalog := &fakeCatalog{albums: []spotify.Album{
		makeAlbum("al-1", "One", "Two", "Silent!", "Muted!"),
	}}
	s := newTestSampler(catalog, 1)

	candidates, err := s.Sample(context.Background(), "at-1", "ar-1", 2)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	for _, c := range candidates {
		if c.Name == "Silent!" || c.Name == "Muted!" {
			t.Errorf("candidate without preview was sampled: %q", c.Name)
		}
	}
}

func TestSampler_InsufficientCandidates(t *testing.T) {
	// Three tracks, only two with previews
	catalog := &fakeCatalog{albums: []spotify.Album{
		makeAlbum("al-1", "One", "Two", "Silent!"),
	}}
	s := newTestSampler(catalog, 1)

	_, err := s.Sample(context.Background(), "at-1", "ar-1", 4)
	if !errors.Is(err, ErrInsufficientCandidates) {
		t.Fatalf("expected ErrInsufficientCandidates, got %v", err)
	}
}

func TestSampler_NoCatalogue(t *testing.T) {
	catalog := &fakeCatalog{}
	s := newTestSampler(catalog, 1)

	_, err := s.Sample(context.Background(), "at-1", "ar-1", 4)
	if !errors.Is(err, ErrNoCatalogue) {
		t.Fatalf("expected ErrNoCatalogue, got %v", err)
	}
}

func TestSampler_FetchesAlbumPage(t *testing.T) {
	catalog := &fakeCatalog{albums: []spotify.Album{
		makeAlbum("al-1", "One", "Two", "Three", "Four"),
		makeAlbum("al-2", "Five"),
	}}
	s := newTestSampler(catalog, 1)

	if _, err := s.Sample(context.Background(), "at-1", "ar-1", 4); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if catalog.gotLimit != 20 {
		t.Errorf("expected album page limit 20, got %d", catalog.gotLimit)
	}
	if len(catalog.gotAlbumID) != 2 || catalog.gotAlbumID[0] != "al-1" || catalog.gotAlbumID[1] != "al-2" {
		t.Errorf("unexpected album IDs fetched: %v", catalog.gotAlbumID)
	}
}
