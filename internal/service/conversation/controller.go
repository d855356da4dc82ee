package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/locallink/backend/internal/analysis/intent"
	"github.com/locallink/backend/internal/model/chat"
	"github.com/locallink/backend/internal/model/listing"
	"github.com/locallink/backend/internal/service/assistant"
	chatservice "github.com/locallink/backend/internal/service/chat"
)

const (
	// Greeting seeds every new transcript.
	Greeting = "Hello! How can I help you today? You can ask me to find a service (e.g., 'find a plumber') or get help offering one (e.g., 'I want to sell homemade food')."
	// Apology replaces the reply of any failed turn.
	Apology = "Sorry, I'm having trouble connecting. Please try again later."

	suggestionsIntro  = "Here are some suggestions I found: \n\n- "
	suggestionsOutro  = "\n\nYou can visit the 'Find Services' page to discover more!"
	noSuggestionsText = "I couldn't find specific listings for that. Try a different search term or visit the 'Find Services' page for a full search."
)

var (
	ErrEmptyInput     = errors.New("message text is required")
	ErrTurnInProgress = errors.New("a reply is still pending for this session")
)

// State 表示会话控制器所处的状态。
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingResponse State = "awaiting_response"
)

// Turn is the outcome of one submission.
type Turn struct {
	Intent      intent.Label   `json:"intent"`
	Reply       chat.Message   `json:"reply"`
	Draft       *listing.Draft `json:"draft,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
	Failed      bool           `json:"failed"`
}

// Controller runs the turn-taking of one session. Submissions are serialized:
// a new one is refused while a reply is pending.
type Controller struct {
	sessionID string
	store     chatservice.Store
	extractor assistant.Extractor
	suggester assistant.Suggester
	timeout   time.Duration
	now       func() time.Time

	mu        sync.Mutex
	state     State
	lastDraft *listing.Draft
	lastUsed  time.Time
}

// SessionID returns the session this controller drives.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastDraft returns the draft of the most recent successful offer turn.
func (c *Controller) LastDraft() (listing.Draft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastDraft == nil {
		return listing.Draft{}, false
	}
	return *c.lastDraft, true
}

// View returns the transcript and pending flag for display.
func (c *Controller) View(ctx context.Context) (chat.View, error) {
	messages, err := c.store.LoadTranscript(ctx, c.sessionID)
	if err != nil {
		return chat.View{}, err
	}
	return chat.View{
		SessionID:        c.sessionID,
		Messages:         messages,
		AwaitingResponse: c.State() == StateAwaitingResponse,
	}, nil
}

// Submit appends the user's text, dispatches it by intent and appends the reply.
// Flow failures do not surface as errors: the turn carries the apology instead.
func (c *Controller) Submit(ctx context.Context, text string) (Turn, error) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, ErrEmptyInput
	}

	c.mu.Lock()
	if c.state == StateAwaitingResponse {
		c.mu.Unlock()
		return Turn{}, ErrTurnInProgress
	}
	c.state = StateAwaitingResponse
	c.lastUsed = c.now()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = StateIdle
		c.lastUsed = c.now()
		c.mu.Unlock()
	}()

	// transcript writes must land even if the caller goes away mid-turn
	writeCtx := context.WithoutCancel(ctx)

	if _, err := c.store.AppendMessage(writeCtx, chat.Message{SessionID: c.sessionID, Sender: chat.SenderUser, Text: text}); err != nil {
		return Turn{}, fmt.Errorf("append user message: %w", err)
	}

	label := intent.Classify(text)
	turn := Turn{Intent: label}

	replyText, err := c.dispatch(ctx, label, text, &turn)
	if err != nil {
		log.Printf("[conversation] session=%s intent=%s turn failed: %v", c.sessionID, label, err)
		replyText = Apology
		turn.Failed = true
		turn.Draft = nil
		turn.Suggestions = nil
	}

	reply, err := c.store.AppendMessage(writeCtx, chat.Message{SessionID: c.sessionID, Sender: chat.SenderBot, Text: replyText})
	if err != nil {
		return Turn{}, fmt.Errorf("append bot message: %w", err)
	}
	turn.Reply = reply

	if turn.Draft != nil {
		c.mu.Lock()
		draft := *turn.Draft
		c.lastDraft = &draft
		c.mu.Unlock()
	}

	return turn, nil
}

func (c *Controller) touch() {
	c.mu.Lock()
	c.lastUsed = c.now()
	c.mu.Unlock()
}

// idleSince reports when the controller was last used; busy controllers are never idle.
func (c *Controller) idleSince() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed, c.state == StateIdle
}

func (c *Controller) dispatch(ctx context.Context, label intent.Label, text string, turn *Turn) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	switch label {
	case intent.Offer:
		draft, err := c.extractor.Extract(ctx, listing.ExtractionRequest{UserInput: text})
		if err != nil {
			return "", err
		}
		turn.Draft = &draft
		return draft.ResponseText, nil
	default:
		result, err := c.suggester.Suggest(ctx, listing.SuggestionRequest{Query: text})
		if err != nil {
			return "", err
		}
		turn.Suggestions = result.Suggestions
		return RenderSuggestions(result.Suggestions), nil
	}
}

// RenderSuggestions formats suggestions as a bot message; an empty list yields
// the fixed no-results sentence.
func RenderSuggestions(suggestions []string) string {
	if len(suggestions) == 0 {
		return noSuggestionsText
	}
	return suggestionsIntro + strings.Join(suggestions, "\n- ") + suggestionsOutro
}
