package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/locallink/backend/internal/model/chat"
	"github.com/locallink/backend/internal/service/assistant"
	chatservice "github.com/locallink/backend/internal/service/chat"
)

// Options 控制会话控制器的行为。
type Options struct {
	// TurnTimeout bounds each model call; zero disables the bound.
	TurnTimeout time.Duration
	// IdleTTL evicts controllers and transcripts unused for this long; zero keeps them forever.
	IdleTTL time.Duration
}

// Manager owns one controller per session.
type Manager struct {
	store     chatservice.Store
	extractor assistant.Extractor
	suggester assistant.Suggester
	opts      Options
	now       func() time.Time

	mu          sync.Mutex
	controllers map[string]*Controller
	lastSweep   time.Time
}

// NewManager wires controllers to the transcript store and both flows.
func NewManager(store chatservice.Store, extractor assistant.Extractor, suggester assistant.Suggester, opts Options) *Manager {
	return &Manager{
		store:       store,
		extractor:   extractor,
		suggester:   suggester,
		opts:        opts,
		now:         func() time.Time { return time.Now().UTC() },
		controllers: make(map[string]*Controller),
	}
}

// Open starts a session whose transcript is seeded with the greeting.
func (m *Manager) Open(ctx context.Context) (*Controller, error) {
	if m.sweepDue() {
		m.Sweep(ctx)
	}

	session, err := m.store.CreateSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if _, err := m.store.AppendMessage(ctx, chat.Message{SessionID: session.ID, Sender: chat.SenderBot, Text: Greeting}); err != nil {
		return nil, fmt.Errorf("seed greeting: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ctrl := m.newController(session.ID)
	m.controllers[session.ID] = ctrl
	return ctrl, nil
}

// Get returns the controller of an existing session. The store stays the source
// of truth: sessions it no longer knows are dropped, sessions known only to a
// shared store are adopted lazily.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Controller, error) {
	if _, err := m.store.GetSession(ctx, sessionID); err != nil {
		if errors.Is(err, chatservice.ErrSessionNotFound) {
			m.mu.Lock()
			delete(m.controllers, sessionID)
			m.mu.Unlock()
		}
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ctrl, ok := m.controllers[sessionID]
	if !ok {
		ctrl = m.newController(sessionID)
		m.controllers[sessionID] = ctrl
	}
	ctrl.touch()
	return ctrl, nil
}

// Len returns the number of live controllers.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.controllers)
}

// Sweep evicts idle controllers older than IdleTTL and deletes their transcripts.
// Controllers awaiting a reply are kept.
func (m *Manager) Sweep(ctx context.Context) int {
	if m.opts.IdleTTL <= 0 {
		return 0
	}

	now := m.now()
	cutoff := now.Add(-m.opts.IdleTTL)

	m.mu.Lock()
	m.lastSweep = now
	var expired []string
	for id, ctrl := range m.controllers {
		lastUsed, idle := ctrl.idleSince()
		if idle && !lastUsed.After(cutoff) {
			expired = append(expired, id)
			delete(m.controllers, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		if err := m.store.DeleteSession(ctx, id); err != nil {
			log.Printf("[conversation] session=%s delete failed: %v", id, err)
		}
	}
	if len(expired) > 0 {
		log.Printf("[conversation] evicted %d idle sessions", len(expired))
	}
	return len(expired)
}

func (m *Manager) sweepDue() bool {
	if m.opts.IdleTTL <= 0 {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now().Sub(m.lastSweep) >= m.opts.IdleTTL/2
}

func (m *Manager) newController(sessionID string) *Controller {
	return &Controller{
		sessionID: sessionID,
		store:     m.store,
		extractor: m.extractor,
		suggester: m.suggester,
		timeout:   m.opts.TurnTimeout,
		now:       m.now,
		state:     StateIdle,
		lastUsed:  m.now(),
	}
}
