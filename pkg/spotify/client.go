// Package spotify provides a client for the Spotify Web API.
//
// This package implements the subset of the Spotify Web API needed
// for authorization-code authentication, user profiles, and catalogue
// browsing. It is designed to be used as a standalone SDK.
//
// Example usage:
//
//	import "github.com/jfmyers9/trackdown/pkg/spotify"
//
//	client, err := spotify.NewClient(spotify.Config{
//	    ClientID:     "your-client-id",
//	    ClientSecret: "your-client-secret",
//	    RedirectURI:  "http://localhost:8080/callback",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Authorize at:", client.Auth().AuthURL("state", []string{spotify.ScopeUserTopRead}))
package spotify

import (
	"fmt"
	"net/http"
)

// Config holds client configuration.
type Config struct {
	ClientID     string       // Required: Spotify application client ID
	ClientSecret string       // Required: Spotify application client secret
	RedirectURI  string       // Required for the authorization flow
	HTTPClient   *http.Client // Optional: HTTP client (defaults to http.DefaultClient)
	BaseURL      string       // Optional: Base URL for the Web API (used for testing)
	AccountsURL  string       // Optional: Base URL for the accounts service (used for testing)
	Logger       Logger       // Optional: Logger interface for debug logging
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// Client is the main entry point for Spotify Web API operations.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client
	baseURL      string
	accountsURL  string
	logger       Logger

	auth    *AuthService
	users   *UserService
	catalog *CatalogService
}

const (
	// DefaultBaseURL is the default Spotify Web API endpoint.
	DefaultBaseURL = "https://api.spotify.com/v1"

	// DefaultAccountsURL is the default Spotify accounts service endpoint,
	// which hosts the authorization page and the token endpoint.
	DefaultAccountsURL = "https://accounts.spotify.com"

	// ScopeUserTopRead grants read access to the user's top artists and tracks.
	ScopeUserTopRead = "user-top-read"
)

// NewClient creates a new Spotify Web API client.
//
// Returns an error if required configuration (ClientID, ClientSecret) is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("spotify: ClientID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("spotify: ClientSecret is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	accountsURL := cfg.AccountsURL
	if accountsURL == "" {
		accountsURL = DefaultAccountsURL
	}

	c := &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		httpClient:   httpClient,
		baseURL:      baseURL,
		accountsURL:  accountsURL,
		logger:       cfg.Logger,
	}

	c.auth = &AuthService{client: c}
	c.users = &UserService{client: c}
	c.catalog = &CatalogService{client: c}

	return c, nil
}

// Auth returns the authorization service.
func (c *Client) Auth() *AuthService {
	return c.auth
}

// Users returns the user profile service.
func (c *Client) Users() *UserService {
	return c.users
}

// Catalog returns the catalogue browsing service.
func (c *Client) Catalog() *CatalogService {
	return c.catalog
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
