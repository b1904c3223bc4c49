package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jfmyers9/trackdown/internal/session"
	"github.com/jfmyers9/trackdown/pkg/spotify"
	"github.com/rs/zerolog"
)

// ErrPromptTimeout is returned by a Prompter when no qualifying
// response arrived before the deadline.
var ErrPromptTimeout = errors.New("quiz: prompt timed out")

// PromptKind selects the interaction surface used for a prompt.
type PromptKind int

const (
	// PromptSelect presents the choices as a single-select menu.
	PromptSelect PromptKind = iota
	// PromptButtons presents the choices as labeled buttons.
	PromptButtons
)

// Choice is one selectable option in a prompt.
type Choice struct {
	ID    string // Opaque identifier returned when chosen
	Label string // Text shown to the user
}

// Attachment is an audio clip presented alongside a prompt.
type Attachment struct {
	Name string
	URL  string
}

// PromptRequest asks for exactly one choice from one user in one
// channel, within a deadline.
type PromptRequest struct {
	ChannelID string
	UserID    string // Only responses from this user qualify
	Content   string
	Kind      PromptKind
	Choices   []Choice
	Audio     *Attachment
	Timeout   time.Duration
}

// Prompter presents choices and waits for a bounded time for exactly
// one qualifying response. It returns the chosen Choice.ID, or
// ErrPromptTimeout after marking the prompt expired.
type Prompter interface {
	Prompt(ctx context.Context, req PromptRequest) (string, error)
}

// Messenger delivers plain messages to channels and user DMs.
type Messenger interface {
	Send(channelID, content string) error
	DirectMessage(userID, content string) error
}

// TokenSource yields a valid access token for a user, refreshing if
// needed. Implemented by session.Refresher.
type TokenSource interface {
	EnsureValid(ctx context.Context, userID string) (string, error)
}

// ArtistSource fetches a user's top artists.
type ArtistSource interface {
	TopArtists(ctx context.Context, accessToken string, limit int) ([]spotify.Artist, error)
}

// CandidateSource draws a candidate set for an artist. Implemented by
// Sampler.
type CandidateSource interface {
	Sample(ctx context.Context, accessToken, artistID string, n int) ([]Candidate, error)
}

// answerLabels are the display labels assigned to candidates by
// position. Their length caps the choice count.
const answerLabels = "ABCDEFGHIJ"

// roundState is the orchestrator's position in one quiz round.
type roundState int

const (
	stateIdle roundState = iota
	stateAwaitingAuth
	stateSelectingArtist
	stateSamplingCandidates
	stateAwaitingAnswer
	stateResolved
)

func (s roundState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateAwaitingAuth:
		return "awaiting_auth"
	case stateSelectingArtist:
		return "selecting_artist"
	case stateSamplingCandidates:
		return "sampling_candidates"
	case stateAwaitingAnswer:
		return "awaiting_answer"
	case stateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Config holds round tunables.
type Config struct {
	ChoiceCount    int           // Candidates per round (default 4, max 10)
	TopArtistLimit int           // Artists offered for selection (default 10)
	SelectTimeout  time.Duration // Artist selection deadline (default 60s)
	AnswerTimeout  time.Duration // Answer deadline (default 60s)
}

// Deps are the orchestrator's collaborators.
type Deps struct {
	Tokens    TokenSource
	Artists   ArtistSource
	Sampler   CandidateSource
	Prompter  Prompter
	Messenger Messenger

	// AuthURL builds the authorization URL bound to a user identity.
	AuthURL func(state string) (string, error)
}

// Orchestrator runs quiz rounds. Rounds for different users proceed
// independently; each round only touches its requester's session.
type Orchestrator struct {
	cfg    Config
	deps   Deps
	logger zerolog.Logger
}

// NewOrchestrator creates an Orchestrator, applying defaults to unset
// config fields.
func NewOrchestrator(cfg Config, deps Deps, logger zerolog.Logger) *Orchestrator {
	if cfg.ChoiceCount <= 0 {
		cfg.ChoiceCount = 4
	}
	if cfg.ChoiceCount > len(answerLabels) {
		cfg.ChoiceCount = len(answerLabels)
	}
	if cfg.TopArtistLimit <= 0 {
		cfg.TopArtistLimit = 10
	}
	if cfg.SelectTimeout <= 0 {
		cfg.SelectTimeout = 60 * time.Second
	}
	if cfg.AnswerTimeout <= 0 {
		cfg.AnswerTimeout = 60 * time.Second
	}

	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With().Str("component", "quiz").Logger(),
	}
}

// round is the transient state of one quiz invocation. It is created
// on trigger and discarded when the round resolves.
type round struct {
	userID    string
	channelID string
	state     roundState

	accessToken string
	artistID    string
	candidates  []Candidate
	correctID   string
	correctName string
}

// Run drives one round from trigger to resolution. All failures are
// converted to a single user-visible message; Run never panics the
// caller.
func (o *Orchestrator) Run(ctx context.Context, userID, channelID string) {
	r := &round{userID: userID, channelID: channelID, state: stateIdle}
	logger := o.logger.With().Str("user_id", userID).Logger()

	for r.state != stateResolved {
		next, err := o.step(ctx, r)
		if err != nil {
			o.reportFailure(r, err, logger)
			return
		}
		logger.Debug().
			Str("from", r.state.String()).
			Str("to", next.String()).
			Msg("Round transition")
		r.state = next
	}
}

// step executes the current state and returns the next one.
func (o *Orchestrator) step(ctx context.Context, r *round) (roundState, error) {
	switch r.state {
	case stateIdle:
		return o.stepIdle(ctx, r)
	case stateAwaitingAuth:
		return o.stepAwaitingAuth(r)
	case stateSelectingArtist:
		return o.stepSelectingArtist(ctx, r)
	case stateSamplingCandidates:
		return o.stepSamplingCandidates(ctx, r)
	case stateAwaitingAnswer:
		return o.stepAwaitingAnswer(ctx, r)
	default:
		return stateResolved, fmt.Errorf("unexpected round state %s", r.state)
	}
}

// stepIdle validates the requester's session. Users without one are
// routed to the authorization branch.
func (o *Orchestrator) stepIdle(ctx context.Context, r *round) (roundState, error) {
	token, err := o.deps.Tokens.EnsureValid(ctx, r.userID)
	if errors.Is(err, session.ErrNotAuthenticated) {
		return stateAwaitingAuth, nil
	}
	if err != nil {
		return stateResolved, err
	}

	r.accessToken = token
	return stateSelectingArtist, nil
}

// stepAwaitingAuth emits the authorization link and halts; the branch
// is terminal until the user completes authorization and retriggers.
func (o *Orchestrator) stepAwaitingAuth(r *round) (roundState, error) {
	authURL, err := o.deps.AuthURL(r.userID)
	if err != nil {
		return stateResolved, err
	}

	dm := fmt.Sprintf("Please authorize the bot by visiting %s\nPS: This bot's commands work in DMs too!", authURL)
	if err := o.deps.Messenger.DirectMessage(r.userID, dm); err != nil {
		return stateResolved, fmt.Errorf("failed to send auth link: %w", err)
	}

	if err := o.deps.Messenger.Send(r.channelID, "Please link your Spotify account by clicking the link sent to your DMs."); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to send channel auth notice")
	}

	return stateResolved, nil
}

// stepSelectingArtist offers the user's top artists as a single-choice
// selection.
func (o *Orchestrator) stepSelectingArtist(ctx context.Context, r *round) (roundState, error) {
	artists, err := o.deps.Artists.TopArtists(ctx, r.accessToken, o.cfg.TopArtistLimit)
	if err != nil {
		return stateResolved, fmt.Errorf("%w: %v", session.ErrUpstreamUnavailable, err)
	}
	if len(artists) == 0 {
		if err := o.deps.Messenger.Send(r.channelID, "You don't seem to have any top artists yet. Listen to some music first!"); err != nil {
			o.logger.Warn().Err(err).Msg("Failed to send message")
		}
		return stateResolved, nil
	}

	var listing strings.Builder
	choices := make([]Choice, len(artists))
	for i, artist := range artists {
		fmt.Fprintf(&listing, "%d. %s\n", i+1, artist.Name)
		choices[i] = Choice{ID: artist.ID, Label: artist.Name}
	}

	content := fmt.Sprintf("Here are your top artists, <@%s>. Choose one to start the game!\n%s", r.userID, listing.String())

	artistID, err := o.deps.Prompter.Prompt(ctx, PromptRequest{
		ChannelID: r.channelID,
		UserID:    r.userID,
		Content:   content,
		Kind:      PromptSelect,
		Choices:   choices,
		Timeout:   o.cfg.SelectTimeout,
	})
	if errors.Is(err, ErrPromptTimeout) {
		// The prompt already shows its expiry notice
		return stateResolved, nil
	}
	if err != nil {
		return stateResolved, err
	}

	r.artistID = artistID
	return stateSamplingCandidates, nil
}

// stepSamplingCandidates draws the round's candidate set and computes
// the correct label before anything is shown.
func (o *Orchestrator) stepSamplingCandidates(ctx context.Context, r *round) (roundState, error) {
	candidates, err := o.deps.Sampler.Sample(ctx, r.accessToken, r.artistID, o.cfg.ChoiceCount)
	if err != nil {
		return stateResolved, err
	}

	r.candidates = candidates
	for i, c := range candidates {
		if c.Correct {
			r.correctID = choiceID(i)
			r.correctName = c.Name
		}
	}

	return stateAwaitingAnswer, nil
}

// stepAwaitingAnswer presents the correct candidate's preview clip with
// all candidate names as labeled buttons, then resolves the verdict.
func (o *Orchestrator) stepAwaitingAnswer(ctx context.Context, r *round) (roundState, error) {
	choices := make([]Choice, len(r.candidates))
	var audio *Attachment
	for i, c := range r.candidates {
		choices[i] = Choice{
			ID:    choiceID(i),
			Label: fmt.Sprintf("%c. %s", answerLabels[i], c.Name),
		}
		if c.Correct {
			audio = &Attachment{Name: "preview.mp3", URL: c.PreviewURL}
		}
	}

	chosen, err := o.deps.Prompter.Prompt(ctx, PromptRequest{
		ChannelID: r.channelID,
		UserID:    r.userID,
		Content:   fmt.Sprintf("Choose the correct name of the clip\n<@%s>", r.userID),
		Kind:      PromptButtons,
		Choices:   choices,
		Audio:     audio,
		Timeout:   o.cfg.AnswerTimeout,
	})
	if errors.Is(err, ErrPromptTimeout) {
		return stateResolved, nil
	}
	if err != nil {
		return stateResolved, err
	}

	verdict := fmt.Sprintf("Wrong! The correct name of the clip is %s", r.correctName)
	if chosen == r.correctID {
		verdict = fmt.Sprintf("Correct! The correct name of the clip is %s", r.correctName)
	}
	if err := o.deps.Messenger.Send(r.channelID, verdict); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to send verdict")
	}

	return stateResolved, nil
}

// reportFailure converts an error into the single user-visible message
// for its kind.
func (o *Orchestrator) reportFailure(r *round, err error, logger zerolog.Logger) {
	var msg string
	switch {
	case errors.Is(err, session.ErrRefreshFailed):
		msg = "Your Spotify link has expired. Please re-link your account with the link sent to your DMs."
		if authURL, urlErr := o.deps.AuthURL(r.userID); urlErr == nil {
			dm := fmt.Sprintf("Please re-authorize the bot by visiting %s", authURL)
			if dmErr := o.deps.Messenger.DirectMessage(r.userID, dm); dmErr != nil {
				logger.Warn().Err(dmErr).Msg("Failed to send re-auth link")
			}
		}
	case errors.Is(err, session.ErrUpstreamUnavailable):
		msg = "Spotify seems to be unavailable right now. Please try again later."
	case errors.Is(err, ErrNoCatalogue):
		msg = "No albums found for that artist. Try another one!"
	case errors.Is(err, ErrInsufficientCandidates):
		msg = "That artist doesn't have enough playable previews for a game. Try another one!"
	default:
		msg = "Something went wrong. Please try again later."
	}

	logger.Error().Err(err).Str("state", r.state.String()).Msg("Round failed")

	if sendErr := o.deps.Messenger.Send(r.channelID, msg); sendErr != nil {
		logger.Warn().Err(sendErr).Msg("Failed to send failure message")
	}
}

// choiceID is the stable identifier for the choice at index i.
func choiceID(i int) string {
	return fmt.Sprintf("option %c", answerLabels[i])
}
