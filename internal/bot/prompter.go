package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jfmyers9/trackdown/internal/quiz"
	"github.com/rs/zerolog"
)

// chatSession is the slice of *discordgo.Session the prompter uses.
type chatSession interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// expiredNotice replaces the prompt content when the deadline passes.
const expiredNotice = "You took too long to respond!"

// pendingPrompt is one outstanding prompt awaiting its single
// qualifying response.
type pendingPrompt struct {
	userID string
	result chan string

	mu       sync.Mutex
	resolved bool
}

// claim marks the prompt resolved. It returns true for exactly one
// caller; later responses and the timeout path find it already taken.
func (p *pendingPrompt) claim() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved {
		return false
	}
	p.resolved = true
	return true
}

// Prompter presents choice prompts on Discord and resolves each one
// exactly once: with the expected user's choice, or with a timeout.
type Prompter struct {
	chat   chatSession
	http   *http.Client
	logger zerolog.Logger

	mu      sync.Mutex
	pending map[string]*pendingPrompt // keyed by prompt message ID
}

// NewPrompter creates a Prompter over the given Discord session.
func NewPrompter(chat chatSession, logger zerolog.Logger) *Prompter {
	return &Prompter{
		chat:    chat,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With().Str("component", "prompter").Logger(),
		pending: make(map[string]*pendingPrompt),
	}
}

// Prompt sends the choices to the channel and suspends until the
// expected user answers or the deadline passes. Responses from other
// users are acknowledged but never consume the prompt.
func (p *Prompter) Prompt(ctx context.Context, req quiz.PromptRequest) (string, error) {
	send := &discordgo.MessageSend{
		Content:    req.Content,
		Components: buildComponents(req),
	}

	if req.Audio != nil {
		if file, closeBody, err := p.fetchAudio(ctx, req.Audio); err != nil {
			// Fall back to linking the clip so the round can continue
			p.logger.Warn().Err(err).Str("url", req.Audio.URL).Msg("Failed to fetch preview clip")
			send.Content += "\n" + req.Audio.URL
		} else {
			send.Files = []*discordgo.File{file}
			defer closeBody()
		}
	}

	msg, err := p.chat.ChannelMessageSendComplex(req.ChannelID, send)
	if err != nil {
		return "", fmt.Errorf("failed to send prompt: %w", err)
	}

	pp := &pendingPrompt{
		userID: req.UserID,
		result: make(chan string, 1),
	}

	p.mu.Lock()
	p.pending[msg.ID] = pp
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.pending, msg.ID)
		p.mu.Unlock()
	}()

	timer := time.NewTimer(req.Timeout)
	defer timer.Stop()

	select {
	case choice := <-pp.result:
		return choice, nil
	case <-timer.C:
		if !pp.claim() {
			// An answer won the race against the deadline
			return <-pp.result, nil
		}
		p.expire(msg)
		return "", quiz.ErrPromptTimeout
	case <-ctx.Done():
		if !pp.claim() {
			return <-pp.result, nil
		}
		p.expire(msg)
		return "", ctx.Err()
	}
}

// HandleInteraction routes component interactions to their pending
// prompts. It is registered as a discordgo handler.
func (p *Prompter) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	if i.Message == nil {
		return
	}

	p.mu.Lock()
	pp := p.pending[i.Message.ID]
	p.mu.Unlock()
	if pp == nil {
		return
	}

	user := interactionUser(i)
	if user == nil || user.ID != pp.userID || !pp.claim() {
		// Not the expected responder, or already resolved: acknowledge
		// so the client doesn't flag the interaction, without consuming
		// the prompt.
		if err := p.chat.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		}); err != nil {
			p.logger.Debug().Err(err).Msg("Failed to acknowledge interaction")
		}
		return
	}

	data := i.MessageComponentData()
	choice := data.CustomID
	if len(data.Values) > 0 {
		choice = data.Values[0]
	}

	// Disable the components so the prompt cannot be answered twice
	if err := p.chat.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    i.Message.Content,
			Components: []discordgo.MessageComponent{},
		},
	}); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to disable prompt components")
	}

	pp.result <- choice
}

// expire edits the prompt to its expiry notice and strips the
// components and attachments.
func (p *Prompter) expire(msg *discordgo.Message) {
	content := expiredNotice
	components := []discordgo.MessageComponent{}
	attachments := []*discordgo.MessageAttachment{}

	_, err := p.chat.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:          msg.ID,
		Channel:     msg.ChannelID,
		Content:     &content,
		Components:  &components,
		Attachments: &attachments,
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to expire prompt")
	}
}

// fetchAudio downloads the preview clip for attachment. The returned
// closer must be called after the message is sent.
func (p *Prompter) fetchAudio(ctx context.Context, audio *quiz.Attachment) (*discordgo.File, func(), error) {
	req, err := http.NewRequestWithContext(ctx, "GET", audio.URL, nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, nil, fmt.Errorf("unexpected status %d fetching preview", resp.StatusCode)
	}

	file := &discordgo.File{
		Name:        audio.Name,
		ContentType: "audio/mpeg",
		Reader:      resp.Body,
	}
	return file, func() { resp.Body.Close() }, nil
}

// buildComponents renders the choices as a select menu or button rows.
func buildComponents(req quiz.PromptRequest) []discordgo.MessageComponent {
	if req.Kind == quiz.PromptSelect {
		options := make([]discordgo.SelectMenuOption, len(req.Choices))
		for i, c := range req.Choices {
			options[i] = discordgo.SelectMenuOption{Label: c.Label, Value: c.ID}
		}
		return []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID:    "artist-select",
						Placeholder: "Choose an artist",
						Options:     options,
					},
				},
			},
		}
	}

	// Buttons, five per action row
	var rows []discordgo.MessageComponent
	for start := 0; start < len(req.Choices); start += 5 {
		end := start + 5
		if end > len(req.Choices) {
			end = len(req.Choices)
		}
		row := discordgo.ActionsRow{}
		for _, c := range req.Choices[start:end] {
			row.Components = append(row.Components, discordgo.Button{
				Label:    c.Label,
				Style:    discordgo.SecondaryButton,
				CustomID: c.ID,
			})
		}
		rows = append(rows, row)
	}
	return rows
}

// interactionUser returns the acting user for both guild and DM
// interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}
