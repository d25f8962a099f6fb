package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

// OrderCompletedKey is the routing key of fulfillment events.
const OrderCompletedKey = "order.completed"

// OrderCompletedEvent is published once per fulfilled order.
type OrderCompletedEvent struct {
	OrderNumber string    `json:"orderNumber"`
	OwnerID     int64     `json:"ownerId"`
	AmountPaid  float64   `json:"amountPaid"`
	ItemCount   int       `json:"itemCount"`
	CompletedAt time.Time `json:"completedAt"`
}

// Publisher emits domain events. Publishing is best-effort; fulfillment
// never rolls back on a broker failure.
type Publisher interface {
	Publish(routingKey string, payload any) error
	Close()
}

// amqpPublisher implements Publisher on a RabbitMQ topic exchange.
type amqpPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   zerolog.Logger
}

// NewPublisher connects to the broker and declares the topic exchange.
func NewPublisher(amqpURL, exchange string, logger zerolog.Logger) (Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &amqpPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger.With().Str("component", "event-publisher").Logger(),
	}, nil
}

// Publish sends one event to the exchange under the routing key.
func (p *amqpPublisher) Publish(routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.Publish(
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug().
		Str("routing_key", routingKey).
		Str("exchange", p.exchange).
		Msg("event published")

	return nil
}

// Close releases the channel and connection.
func (p *amqpPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
