package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jfmyers9/trackdown/internal/bot"
	"github.com/jfmyers9/trackdown/internal/config"
	"github.com/jfmyers9/trackdown/internal/quiz"
	"github.com/jfmyers9/trackdown/internal/session"
	"github.com/jfmyers9/trackdown/internal/store"
	"github.com/jfmyers9/trackdown/internal/web"
	"github.com/jfmyers9/trackdown/pkg/spotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	runLogFile  string
	runLogLevel string
	runDataDir  string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot",
	Long: `Run the bot: the Discord gateway connection and the Spotify
authorization callback server.

The bot will:
- Listen for the trigger command in channels and DMs
- Hand unlinked users a Spotify authorization link
- Refresh expired Spotify tokens transparently
- Present timed artist and track prompts for each round
- Handle graceful shutdown on SIGINT/SIGTERM

The bot runs in the foreground and logs to stderr by default.
Use the --log-file flag to log to a file.`,
	RunE: runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Command-line flags
	runCmd.Flags().StringVar(&runLogFile, "log-file", "", "Log file path (default: stderr)")
	runCmd.Flags().StringVar(&runLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "Data directory for the session store (default: ~/.local/share/trackdown)")
}

func runBot(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Discord.Token == "" {
		return fmt.Errorf("discord token not configured. Set discord.token in %s/config.yaml", config.GetConfigDir())
	}
	if cfg.Spotify.ClientID == "" || cfg.Spotify.ClientSecret == "" || cfg.Spotify.RedirectURI == "" {
		return fmt.Errorf("spotify credentials not configured. Set spotify.client_id, spotify.client_secret and spotify.redirect_uri")
	}

	// Set up logging
	logger := setupLogger(runLogFile, runLogLevel)

	logger.Info().
		Str("version", version).
		Msg("Starting trackdown")

	// Determine data directory
	dataDir := runDataDir
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share", "trackdown")
	}

	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	logger.Info().Str("data_dir", dataDir).Msg("Using data directory")

	// Session store
	st, err := store.Open(filepath.Join(dataDir, "tokens.db"))
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer st.Close()

	// Spotify client
	client, err := spotify.NewClient(spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURI:  cfg.Spotify.RedirectURI,
		Logger:       debugLogger{logger.With().Str("component", "spotify").Logger()},
	})
	if err != nil {
		return fmt.Errorf("failed to create spotify client: %w", err)
	}

	refresher := session.NewRefresher(st, session.ClientAPI{Client: client}, logger)
	sampler := quiz.NewSampler(client.Catalog())

	// Discord bot
	b, err := bot.New(cfg.Discord.Token, cfg.Discord.Trigger, logger)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	promptTimeout := time.Duration(cfg.Quiz.PromptTimeout) * time.Second
	orchestrator := quiz.NewOrchestrator(quiz.Config{
		ChoiceCount:    cfg.Quiz.ChoiceCount,
		TopArtistLimit: cfg.Quiz.TopArtists,
		SelectTimeout:  promptTimeout,
		AnswerTimeout:  promptTimeout,
	}, quiz.Deps{
		Tokens:    refresher,
		Artists:   client.Users(),
		Sampler:   sampler,
		Prompter:  b.Prompter(),
		Messenger: b,
		AuthURL: func(state string) (string, error) {
			return client.Auth().AuthURL(state, []string{spotify.ScopeUserTopRead})
		},
	}, logger)
	b.SetRoundStarter(orchestrator)

	// Callback server
	srv := web.NewServer(cfg.HTTP.Addr, st, client.Auth(), logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	if err := b.Open(); err != nil {
		return fmt.Errorf("failed to connect to discord: %w", err)
	}

	// Wait for a shutdown signal or a server failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("Callback server failed")
	}

	if err := b.Close(); err != nil {
		logger.Error().Err(err).Msg("Error closing discord session")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error shutting down callback server")
	}

	logger.Info().Msg("Stopped")
	return nil
}

// debugLogger adapts a zerolog logger to the spotify.Logger interface.
type debugLogger struct {
	logger zerolog.Logger
}

func (d debugLogger) Debugf(format string, args ...interface{}) {
	d.logger.Debug().Msgf(format, args...)
}

// setupLogger creates a logger with the specified configuration
func setupLogger(logFile, logLevel string) zerolog.Logger {
	// Parse log level
	level := zerolog.InfoLevel
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Set up output
	var output *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			output = os.Stderr
		} else {
			output = f
		}
	} else {
		output = os.Stderr
	}

	// Create logger
	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Use pretty console output if logging to stderr
	if output == os.Stderr {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger
}
