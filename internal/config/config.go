package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Discord bot credentials and trigger command
	Discord DiscordConfig

	// Spotify application credentials
	Spotify SpotifyConfig

	// HTTP listener for the OAuth callback
	HTTP HTTPConfig

	// Quiz round tuning
	Quiz QuizConfig
}

// DiscordConfig holds Discord specific configuration
type DiscordConfig struct {
	Token   string
	Trigger string
}

// SpotifyConfig holds Spotify specific configuration
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// HTTPConfig holds the callback server configuration
type HTTPConfig struct {
	Addr string
}

// QuizConfig holds round tuning knobs
type QuizConfig struct {
	ChoiceCount   int
	TopArtists    int
	PromptTimeout int // seconds
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Set defaults
	v.SetDefault("discord.trigger", "!topartists")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("quiz.choice_count", 4)
	v.SetDefault("quiz.top_artists", 10)
	v.SetDefault("quiz.prompt_timeout", 60)

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	// Read from environment variables (TRACKDOWN_DISCORD_TOKEN, ...)
	v.SetEnvPrefix("TRACKDOWN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map config to struct
	cfg := &Config{
		Discord: DiscordConfig{
			Token:   v.GetString("discord.token"),
			Trigger: v.GetString("discord.trigger"),
		},
		Spotify: SpotifyConfig{
			ClientID:     v.GetString("spotify.client_id"),
			ClientSecret: v.GetString("spotify.client_secret"),
			RedirectURI:  v.GetString("spotify.redirect_uri"),
		},
		HTTP: HTTPConfig{
			Addr: v.GetString("http.addr"),
		},
		Quiz: QuizConfig{
			ChoiceCount:   v.GetInt("quiz.choice_count"),
			TopArtists:    v.GetInt("quiz.top_artists"),
			PromptTimeout: v.GetInt("quiz.prompt_timeout"),
		},
	}

	return cfg, nil
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "trackdown")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

// Save writes configuration to file
func (c *Config) Save() error {
	v := viper.New()

	// Set config file path
	configDir := getConfigDir()
	configFile := filepath.Join(configDir, "config.yaml")

	// Set values in viper
	v.Set("discord.token", c.Discord.Token)
	v.Set("discord.trigger", c.Discord.Trigger)
	v.Set("spotify.client_id", c.Spotify.ClientID)
	v.Set("spotify.client_secret", c.Spotify.ClientSecret)
	v.Set("spotify.redirect_uri", c.Spotify.RedirectURI)
	v.Set("http.addr", c.HTTP.Addr)
	v.Set("quiz.choice_count", c.Quiz.ChoiceCount)
	v.Set("quiz.top_artists", c.Quiz.TopArtists)
	v.Set("quiz.prompt_timeout", c.Quiz.PromptTimeout)

	// Write to file
	return v.WriteConfigAs(configFile)
}
