package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/locallink/backend/internal/config"
	"github.com/locallink/backend/internal/handler"
	"github.com/locallink/backend/internal/model/listing"
	"github.com/locallink/backend/internal/service/ai"
	"github.com/locallink/backend/internal/service/assistant"
	chatservice "github.com/locallink/backend/internal/service/chat"
	"github.com/locallink/backend/internal/service/conversation"
	"github.com/locallink/backend/internal/store"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// App holds the wired services of the LocalLink backend.
type App struct {
	Config        config.Config
	Transcripts   chatservice.Store
	Listings      listing.Store
	Prompts       *ai.PromptEngine
	Invoker       ai.Invoker
	Extractor     assistant.Extractor
	Suggester     assistant.Suggester
	Conversations *conversation.Manager

	pingers []pinger
	closers []func() error
}

// New builds every component described by cfg. Missing model credentials
// leave the assistant running with a disabled invoker.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{Config: cfg}

	if err := a.openTranscripts(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openListings(ctx); err != nil {
		a.Close()
		return nil, err
	}

	prompts, err := ai.NewPromptEngine(cfg.Assistant.Prompts)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load prompt templates: %w", err)
	}
	a.Prompts = prompts
	a.Invoker = selectInvoker(ctx, cfg.AI)

	a.Extractor = assistant.NewExtractionFlow(a.Invoker, prompts)
	switch cfg.Assistant.SuggestionBackend {
	case config.SuggestionBackendStore:
		a.Suggester = assistant.NewStoreSuggester(a.Listings, cfg.Assistant.SuggestionLimit)
	default:
		a.Suggester = assistant.NewSuggestionFlow(a.Invoker, prompts)
	}
	log.Printf("[app] suggestion backend=%s", cfg.Assistant.SuggestionBackend)

	a.Conversations = conversation.NewManager(a.Transcripts, a.Extractor, a.Suggester, conversation.Options{
		TurnTimeout: cfg.Assistant.TurnTimeout,
		IdleTTL:     cfg.Redis.SessionTTL,
	})
	return a, nil
}

func (a *App) openTranscripts(ctx context.Context) error {
	if a.Config.Redis.URL == "" {
		a.Transcripts = chatservice.NewService()
		log.Println("[app] transcripts kept in memory")
		return nil
	}

	rs, err := chatservice.NewRedisStore(a.Config.Redis.URL, a.Config.Redis.SessionTTL)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, rs.Close)
	if err := rs.Ping(ctx); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	a.Transcripts = rs
	a.pingers = append(a.pingers, rs)
	log.Printf("[app] transcripts stored in redis ttl=%s", a.Config.Redis.SessionTTL)
	return nil
}

func (a *App) openListings(ctx context.Context) error {
	if a.Config.Database.Driver == "" || a.Config.Database.Driver == "memory" {
		a.Listings = listing.NewMemoryStore(listing.Seed())
		log.Println("[app] listings kept in memory with seed catalogue")
		return nil
	}

	driver, err := store.ParseDriver(a.Config.Database.Driver)
	if err != nil {
		return err
	}
	st, err := store.Open(driver, a.Config.Database.DSN)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, st.Close)
	if err := store.Migrate(ctx, st.DB(), driver); err != nil {
		return fmt.Errorf("migrate listings: %w", err)
	}
	a.Listings = st
	a.pingers = append(a.pingers, st)
	log.Printf("[app] listings stored in %s", driver)
	return nil
}

func selectInvoker(ctx context.Context, cfg config.AIConfig) ai.Invoker {
	if !cfg.Enabled() {
		log.Println("Ark 凭证未配置，助手将以降级模式运行")
		return ai.DisabledInvoker{}
	}

	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		log.Printf("warning: failed to create chat model: %v", err)
		return ai.DisabledInvoker{}
	}

	invoker, err := ai.NewChainInvoker(ctx, chatModel)
	if err != nil {
		log.Printf("warning: failed to build invoker chain: %v", err)
		return ai.DisabledInvoker{}
	}
	log.Printf("AI invoker initialized model=%s", cfg.Model)
	return invoker
}

// Ready reports whether every external backend answers.
func (a *App) Ready(ctx context.Context) error {
	for _, p := range a.pingers {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Handler returns the HTTP surface.
func (a *App) Handler() http.Handler {
	return handler.NewRouter(handler.Dependencies{
		Conversations: a.Conversations,
		Listings:      a.Listings,
		Ready:         a.Ready,
	})
}

// Close releases backends in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
