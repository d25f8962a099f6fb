package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"nepkart/internal/config"

	"github.com/rs/zerolog"
)

// CustomerInfo is the buyer contact block of an initiation request.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// InitiationRequest is the payment-initiation payload sent to the gateway.
// Amount is in minor units (paisa).
type InitiationRequest struct {
	ReturnURL         string       `json:"return_url"`
	WebsiteURL        string       `json:"website_url"`
	Amount            int64        `json:"amount"`
	PurchaseOrderID   string       `json:"purchase_order_id"`
	PurchaseOrderName string       `json:"purchase_order_name"`
	CustomerInfo      CustomerInfo `json:"customer_info"`
}

// Client initiates payments against the external gateway.
type Client interface {
	// Initiate sends a payment-initiation request and returns the
	// gateway's raw JSON response unmodified. The caller redirects the end
	// user to whatever URL the gateway returned. Transport failures
	// propagate as-is; there is no retry.
	Initiate(ctx context.Context, req *InitiationRequest) (json.RawMessage, error)
}

// khaltiClient implements Client for the Khalti e-payment API.
type khaltiClient struct {
	cfg        config.GatewayConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewKhaltiClient creates a gateway client with a bounded request timeout.
func NewKhaltiClient(cfg config.GatewayConfig, logger zerolog.Logger) Client {
	return &khaltiClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		logger: logger.With().Str("component", "khalti-gateway").Logger(),
	}
}

// Initiate sends the payment-initiation request.
func (c *khaltiClient) Initiate(ctx context.Context, req *InitiationRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initiation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.InitiateURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build initiation request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Key "+c.cfg.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Info().
		Str("purchase_order_id", req.PurchaseOrderID).
		Int64("amount", req.Amount).
		Msg("initiating payment")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("purchase_order_id", req.PurchaseOrderID).
			Msg("gateway request failed")
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	// The gateway's JSON is passed through untouched, success or not; the
	// caller surfaces it to the end user.
	c.logger.Debug().
		Str("purchase_order_id", req.PurchaseOrderID).
		Int("status", resp.StatusCode).
		Msg("gateway responded")

	return json.RawMessage(raw), nil
}
