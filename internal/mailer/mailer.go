package mailer

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"nepkart/internal/model"

	"github.com/rs/zerolog"
)

const orderTemplateName = "order_received.tmpl"

const orderSubject = "Thank you for your order!"

// defaultOrderTemplate is used when no template can be loaded, so a loader
// outage never blocks confirmations.
const defaultOrderTemplate = `Dear {{.Order.FirstName}} {{.Order.LastName}},

Thank you for your order!

Your order {{.Order.OrderNumber}} has been received and is being processed.
Order total: {{printf "%.2f" .Order.OrderTotal}}

We will notify you once your items are on the way.
`

// Mailer renders and sends the order-confirmation email.
type Mailer struct {
	loader Loader
	sender Sender
	logger zerolog.Logger
}

// New creates a Mailer.
func New(loader Loader, sender Sender, logger zerolog.Logger) *Mailer {
	return &Mailer{
		loader: loader,
		sender: sender,
		logger: logger.With().Str("component", "mailer").Logger(),
	}
}

// SendOrderConfirmation renders the confirmation template for the order and
// sends it to the order's email address.
func (m *Mailer) SendOrderConfirmation(ctx context.Context, order *model.Order) error {
	text, err := m.loader.Load(ctx, orderTemplateName)
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to load order template, using built-in default")
		text = defaultOrderTemplate
	}

	tmpl, err := template.New(orderTemplateName).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse order template: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, struct{ Order *model.Order }{Order: order}); err != nil {
		return fmt.Errorf("failed to render order template: %w", err)
	}

	if err := m.sender.Send(ctx, order.Email, orderSubject, body.String()); err != nil {
		return fmt.Errorf("failed to send order confirmation: %w", err)
	}

	m.logger.Info().
		Str("order_number", order.OrderNumber).
		Str("to", order.Email).
		Msg("order confirmation sent")

	return nil
}
