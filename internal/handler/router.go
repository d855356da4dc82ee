package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/locallink/backend/internal/handler/chat"
	listingHandler "github.com/locallink/backend/internal/handler/listing"
	"github.com/locallink/backend/internal/handler/stream"
	"github.com/locallink/backend/internal/handler/ws"
	middlewarePkg "github.com/locallink/backend/internal/middleware"
	"github.com/locallink/backend/internal/model/listing"
	"github.com/locallink/backend/internal/service/conversation"
	"github.com/locallink/backend/pkg/utils"
)

// Dependencies are the services exposed over HTTP.
type Dependencies struct {
	Conversations *conversation.Manager
	Listings      listing.Store
	// Ready backs /readyz; nil means always ready.
	Ready func(ctx context.Context) error
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(r.Context()); err != nil {
				utils.RespondError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
		}
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Route("/api", func(api chi.Router) {
		chat.New(deps.Conversations).RegisterRoutes(api)
		stream.New(deps.Conversations).RegisterRoutes(api)
		ws.New(deps.Conversations).RegisterRoutes(api)
		listingHandler.New(deps.Listings).RegisterRoutes(api)
	})

	return r
}
