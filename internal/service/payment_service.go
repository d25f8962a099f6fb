package service

import (
	"context"
	"encoding/json"
	"fmt"

	"nepkart/internal/config"
	"nepkart/internal/gateway"
	"nepkart/internal/model"
	"nepkart/internal/repository"

	"github.com/rs/zerolog"
)

// paymentService implements PaymentService.
type paymentService struct {
	orderRepo repository.OrderRepository
	client    gateway.Client
	cfg       config.GatewayConfig
	logger    zerolog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(orderRepo repository.OrderRepository, client gateway.Client, cfg config.GatewayConfig, logger zerolog.Logger) PaymentService {
	return &paymentService{
		orderRepo: orderRepo,
		client:    client,
		cfg:       cfg,
		logger:    logger.With().Str("component", "payment_service").Logger(),
	}
}

func (s *paymentService) InitiatePayment(ctx context.Context, orderNumber string, amountMinor int64) (json.RawMessage, error) {
	order, err := s.orderRepo.GetPendingByNumber(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	req := &gateway.InitiationRequest{
		ReturnURL:         s.cfg.ReturnURL,
		WebsiteURL:        s.cfg.WebsiteURL,
		Amount:            amountMinor,
		PurchaseOrderID:   order.OrderNumber,
		PurchaseOrderName: "Order " + order.OrderNumber,
		CustomerInfo: gateway.CustomerInfo{
			Name:  order.FullName(),
			Email: order.Email,
			Phone: order.Phone,
		},
	}

	raw, err := s.client.Initiate(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("order_number", orderNumber).Msg("Payment initiation failed")
		return nil, err
	}
	return raw, nil
}
