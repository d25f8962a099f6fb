package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"nepkart/internal/model"
	"nepkart/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles checkout, payment initiation and the gateway
// completion callback.
type OrderHandler struct {
	orders   service.OrderService
	payments service.PaymentService
	logger   zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders service.OrderService, payments service.PaymentService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		payments: payments,
		logger:   logger.With().Str("handler", "order").Logger(),
	}
}

// Checkout handles POST /api/checkout requests. Submitting with an empty
// cart redirects back to the catalogue instead of creating an order.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	owner, ok := ownerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "owner identity is required", h.logger)
		return
	}

	var form model.ShippingForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	placement, err := h.orders.PlaceOrder(r.Context(), owner, &form, clientIP(r))
	if err != nil {
		if err == model.ErrCartEmpty {
			http.Redirect(w, r, "/api/products", http.StatusSeeOther)
			return
		}
		writeServiceError(w, err, "failed to place order", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, placement)
}

// paymentRequest is the payment-initiation payload. Amount is in minor
// units (paisa).
type paymentRequest struct {
	OrderNumber string `json:"orderNumber"`
	Amount      int64  `json:"amount"`
}

// InitiatePayment handles POST /api/payments requests and relays the
// gateway's raw JSON response to the caller.
func (h *OrderHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.OrderNumber == "" || req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "orderNumber and a positive amount are required", h.logger)
		return
	}

	raw, err := h.payments.InitiatePayment(r.Context(), req.OrderNumber, req.Amount)
	if err != nil {
		writeServiceError(w, err, "failed to initiate payment", h.logger)
		return
	}

	// The gateway body is relayed byte for byte; re-encoding would choke on
	// a non-JSON error page.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// Complete handles GET and POST /api/orders/complete, the gateway's return
// callback. Parameters arrive in the query string: purchase_order_id,
// transaction_id (or its txnId alias), payment_method and total_amount in
// minor units. A callback without an order number redirects home; replays
// return the already persisted receipt.
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	q := r.URL.Query()
	orderNumber := q.Get("purchase_order_id")
	if orderNumber == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	transactionID := q.Get("transaction_id")
	if transactionID == "" {
		transactionID = q.Get("txnId")
	}

	req := &model.CompletionRequest{
		OrderNumber:   orderNumber,
		TransactionID: transactionID,
		PaymentMethod: q.Get("payment_method"),
	}

	if raw := q.Get("total_amount"); raw != "" {
		amount, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || amount < 0 {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid total_amount", h.logger)
			return
		}
		req.AmountMinor = &amount
	}

	receipt, err := h.orders.CompleteOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "failed to complete order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}
