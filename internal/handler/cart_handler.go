package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"nepkart/internal/model"
	"nepkart/internal/recommend"
	"nepkart/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CartHandler handles cart HTTP requests.
type CartHandler struct {
	service     service.CartService
	recommender *recommend.Recommender
	logger      zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, recommender *recommend.Recommender, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service:     service,
		recommender: recommender,
		logger:      logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/cart requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "owner identity is required", h.logger)
		return
	}

	cart, err := h.service.GetCart(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err, "failed to load cart", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// AddItem handles POST /api/cart requests.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "owner identity is required", h.logger)
		return
	}

	var req model.CartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	item, err := h.service.AddItem(r.Context(), owner, &req)
	if err != nil {
		writeServiceError(w, err, "failed to add cart item", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// RemoveItem handles DELETE /api/cart/{itemID} requests.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "owner identity is required", h.logger)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/cart/")
	itemID, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid cart item ID", h.logger)
		return
	}

	if err := h.service.RemoveItem(r.Context(), owner, itemID); err != nil {
		writeServiceError(w, err, "failed to remove cart item", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Recommendations handles GET /api/cart/recommendations requests: products
// frequently bought together with what is currently in the cart.
func (h *CartHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	owner, ok := ownerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "owner identity is required", h.logger)
		return
	}

	cart, err := h.service.GetCart(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err, "failed to load cart", h.logger)
		return
	}

	productIDs := make([]int64, 0, len(cart.Items))
	for _, item := range cart.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	recommended, err := h.recommender.Recommend(r.Context(), productIDs)
	if err != nil {
		writeServiceError(w, err, "failed to compute recommendations", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]int64{"productIds": recommended})
}
