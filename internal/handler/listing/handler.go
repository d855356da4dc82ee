package listing

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/locallink/backend/internal/model/listing"
	"github.com/locallink/backend/pkg/utils"
)

// Handler listing服务的HTTP处理器
type Handler struct {
	listings listing.Store
}

// New 创建listing处理器
func New(listings listing.Store) *Handler {
	return &Handler{listings: listings}
}

// RegisterRoutes 注册listing相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/listings", h.handleSearch)
	r.Post("/listings", h.handleCreate)
}

// SearchResponse 是列表检索的返回体。
type SearchResponse struct {
	Listings []listing.Listing `json:"listings"`
	Services []string          `json:"services"`
}

// handleSearch 按关键字、服务类别与发布者检索
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := listing.Filter{
		Keyword: strings.TrimSpace(query.Get("q")),
		Service: strings.TrimSpace(query.Get("service")),
		UserID:  strings.TrimSpace(query.Get("userId")),
	}

	matched, err := h.listings.Query(r.Context(), filter)
	if err != nil {
		log.Printf("[listing] query failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to load listings")
		return
	}

	// 服务类别下拉框始终基于全部listing
	all, err := h.listings.Query(r.Context(), listing.Filter{})
	if err != nil {
		log.Printf("[listing] query failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to load listings")
		return
	}
	if matched == nil {
		matched = []listing.Listing{}
	}

	utils.RespondJSON(w, http.StatusOK, SearchResponse{
		Listings: matched,
		Services: listing.Services(all),
	})
}

// handleCreate 校验表单并创建listing
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID string `json:"userId"`
		listing.FormValues
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	l, err := listing.NewListing(payload.UserID, payload.FormValues)
	if err != nil {
		var ve *listing.ValidationError
		if errors.As(err, &ve) {
			utils.RespondJSON(w, http.StatusBadRequest, map[string]any{
				"error":  listing.ErrInvalidListing.Error(),
				"fields": ve.Fields,
			})
			return
		}
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.listings.Create(r.Context(), l)
	if err != nil {
		log.Printf("[listing] create failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to create listing")
		return
	}

	log.Printf("[listing] created id=%s service=%q", created.ID, created.ServiceName)
	utils.RespondJSON(w, http.StatusCreated, created)
}
