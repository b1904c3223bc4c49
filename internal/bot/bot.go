// Package bot connects the quiz to Discord: the gateway session, the
// trigger command, and the interaction prompter.
package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// RoundStarter launches a quiz round for a requester. Implemented by
// quiz.Orchestrator.
type RoundStarter interface {
	Run(ctx context.Context, userID, channelID string)
}

// Bot owns the Discord gateway connection and dispatches the trigger
// command to the round orchestrator.
type Bot struct {
	session  *discordgo.Session
	prompter *Prompter
	rounds   RoundStarter
	trigger  string
	logger   zerolog.Logger
}

// New creates a Bot for the given bot token. The trigger is the
// command keyword that starts a round (e.g. "!topartists").
func New(token, trigger string, logger zerolog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentDirectMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		session: session,
		trigger: trigger,
		logger:  logger.With().Str("component", "bot").Logger(),
	}
	b.prompter = NewPrompter(session, logger)

	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessage)
	session.AddHandler(b.prompter.HandleInteraction)

	return b, nil
}

// Prompter returns the bot's interaction prompter.
func (b *Bot) Prompter() *Prompter {
	return b.prompter
}

// SetRoundStarter wires the round orchestrator. Must be called before
// Open; the orchestrator itself depends on the bot's prompter, so the
// two are connected after construction.
func (b *Bot) SetRoundStarter(rounds RoundStarter) {
	b.rounds = rounds
}

// Open connects to the Discord gateway.
func (b *Bot) Open() error {
	if b.rounds == nil {
		return fmt.Errorf("round starter not configured")
	}
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	return b.session.Close()
}

// Send posts a message to a channel.
func (b *Bot) Send(channelID, content string) error {
	if _, err := b.session.ChannelMessageSend(channelID, content); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// DirectMessage posts a message to a user's DM channel.
func (b *Bot) DirectMessage(userID, content string) error {
	channel, err := b.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("failed to open DM channel: %w", err)
	}
	if _, err := b.session.ChannelMessageSend(channel.ID, content); err != nil {
		return fmt.Errorf("failed to send DM: %w", err)
	}
	return nil
}

// onReady logs the connected identity.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info().
		Str("username", r.User.Username).
		Msg("Connected to Discord")
}

// onMessage starts a round when a non-bot user issues the trigger
// command, in a guild channel or a DM.
func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !strings.HasPrefix(m.Content, b.trigger) {
		return
	}

	b.logger.Info().
		Str("user_id", m.Author.ID).
		Str("channel_id", m.ChannelID).
		Msg("Round triggered")

	// Each round runs independently; rounds for different users are
	// not coordinated against each other.
	go b.rounds.Run(context.Background(), m.Author.ID, m.ChannelID)
}
