package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"nepkart/internal/model"
	"nepkart/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles catalogue HTTP requests.
type ProductHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.CatalogService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /api/products requests. Filters are supplied as query
// parameters: category, category_id (repeatable), size (repeatable),
// min_price, max_price, keyword, limit, offset.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	q := r.URL.Query()
	filter := model.ProductFilter{
		CategorySlug: q.Get("category"),
		Sizes:        q["size"],
		Keyword:      q.Get("keyword"),
	}

	for _, raw := range q["category_id"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid category_id", h.logger)
			return
		}
		filter.CategoryIDs = append(filter.CategoryIDs, id)
	}

	var err error
	if filter.MinPrice, err = parsePrice(q.Get("min_price")); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid min_price", h.logger)
		return
	}
	if filter.MaxPrice, err = parsePrice(q.Get("max_price")); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid max_price", h.logger)
		return
	}

	if raw := q.Get("limit"); raw != "" {
		if filter.Limit, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid limit", h.logger)
			return
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if filter.Offset, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid offset", h.logger)
			return
		}
	}

	listing, err := h.service.Filter(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err, "failed to list products", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

// Detail handles GET /api/products/{categorySlug}/{productSlug} requests.
func (h *ProductHandler) Detail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/products"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "category and product slugs are required", h.logger)
		return
	}

	detail, err := h.service.GetDetail(r.Context(), parts[0], parts[1])
	if err != nil {
		writeServiceError(w, err, "failed to retrieve product", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// SubmitReview handles POST /api/reviews/{productID} requests.
func (h *ProductHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	owner, ok := ownerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "owner identity is required", h.logger)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/reviews/")
	productID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || productID <= 0 {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid product ID", h.logger)
		return
	}

	var req model.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	review, err := h.service.SubmitReview(r.Context(), owner, productID, &req, clientIP(r))
	if err != nil {
		writeServiceError(w, err, "failed to save review", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

func parsePrice(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
