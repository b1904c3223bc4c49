package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// newTestClient creates a client pointed at the given test server.
func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-secret",
		BaseURL:      server.URL,
		AccountsURL:  server.URL,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestUserService_Me(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me" {
			t.Errorf("expected path /me, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer at-1" {
			t.Errorf("expected Authorization Bearer at-1, got %q", got)
		}
		if _, err := w.Write([]byte(`{"id":"user-1","display_name":"Test User"}`)); err != nil {
			t.Fatalf("failed to write response body: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)

	user, err := client.Users().Me(context.Background(), "at-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("expected user ID user-1, got %s", user.ID)
	}
	if user.DisplayName != "Test User" {
		t.Errorf("expected display name Test User, got %s", user.DisplayName)
	}
}

func TestUserService_Me_ExpiredToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		if _, err := w.Write([]byte(`{"error":{"status":401,"message":"The access token expired"}}`)); err != nil {
			t.Fatalf("failed to write response body: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)

	_, err := client.Users().Me(context.Background(), "at-stale")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", apiErr.Status)
	}
	if !IsAuthExpired(err) {
		t.Error("expected IsAuthExpired to report true")
	}
}

func TestUserService_TopArtists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/top/artists" {
			t.Errorf("expected path /me/top/artists, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("expected limit 10, got %s", got)
		}
		body := `{"items":[{"id":"ar-1","name":"First Artist"},{"id":"ar-2","name":"Second Artist"}]}`
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("failed to write response body: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)

	artists, err := client.Users().TopArtists(context.Background(), "at-1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(artists) != 2 {
		t.Fatalf("expected 2 artists, got %d", len(artists))
	}
	if artists[0].ID != "ar-1" || artists[0].Name != "First Artist" {
		t.Errorf("unexpected first artist: %+v", artists[0])
	}
}

func TestCatalogService_ArtistAlbums(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artists/ar-1/albums" {
			t.Errorf("expected path /artists/ar-1/albums, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "20" {
			t.Errorf("expected limit 20, got %s", got)
		}
		body := `{"items":[{"id":"al-1","name":"Debut"},{"id":"al-2","name":"Sophomore"}]}`
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("failed to write response body: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)

	albums, err := client.Catalog().ArtistAlbums(context.Background(), "at-1", "ar-1", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(albums) != 2 {
		t.Fatalf("expected 2 albums, got %d", len(albums))
	}
	if albums[0].ID != "al-1" {
		t.Errorf("expected first album al-1, got %s", albums[0].ID)
	}
}

func TestCatalogService_Albums(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/albums" {
			t.Errorf("expected path /albums, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ids"); got != "al-1,al-2" {
			t.Errorf("expected ids al-1,al-2, got %s", got)
		}
		body := `{"albums":[
			{"id":"al-1","name":"Debut","tracks":{"items":[
				{"id":"tr-1","name":"Opener","preview_url":"https://p.example/tr-1"},
				{"id":"tr-2","name":"Deep Cut","preview_url":null}
			]}},
			{"id":"al-2","name":"Sophomore","tracks":{"items":[
				{"id":"tr-3","name":"Single","preview_url":"https://p.example/tr-3"}
			]}}
		]}`
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("failed to write response body: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)

	albums, err := client.Catalog().Albums(context.Background(), "at-1", []string{"al-1", "al-2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(albums) != 2 {
		t.Fatalf("expected 2 albums, got %d", len(albums))
	}
	if len(albums[0].Tracks.Items) != 2 {
		t.Fatalf("expected 2 tracks on first album, got %d", len(albums[0].Tracks.Items))
	}
	if albums[0].Tracks.Items[1].PreviewURL != "" {
		t.Errorf("expected null preview_url to decode as empty, got %q", albums[0].Tracks.Items[1].PreviewURL)
	}
	if albums[1].Tracks.Items[0].PreviewURL != "https://p.example/tr-3" {
		t.Errorf("unexpected preview URL %q", albums[1].Tracks.Items[0].PreviewURL)
	}
}

func TestCatalogService_Albums_TooManyIDs(t *testing.T) {
	client, err := NewClient(Config{ClientID: "id", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	ids := make([]string, maxAlbumsPerRequest+1)
	for i := range ids {
		ids[i] = "al"
	}

	if _, err := client.Catalog().Albums(context.Background(), "at-1", ids); err == nil {
		t.Fatal("expected error for oversized batch, got nil")
	}
}

func TestTransport_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if _, err := w.Write([]byte(`{"id":"user-1","display_name":"Test User"}`)); err != nil {
			t.Fatalf("failed to write response body: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)

	user, err := client.Users().Me(context.Background(), "at-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("expected user-1 after retry, got %s", user.ID)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 calls, got %d", got)
	}
}

func TestTransport_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		if _, err := w.Write([]byte(`{"error":{"status":404,"message":"non existing id"}}`)); err != nil {
			t.Fatalf("failed to write response body: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)

	_, err := client.Catalog().ArtistAlbums(context.Background(), "at-1", "nope", 20)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}
