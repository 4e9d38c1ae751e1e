// Package events publishes domain events to other systems.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const Exchange = "etiquetas-eventos"

// Routing keys.
const (
	StockCreated       = "stock.created"
	StockStatusChanged = "stock.status_changed"
	StockUpdated       = "stock.updated"
	StockDeleted       = "stock.deleted"
	LabelPrinted       = "label.printed"
)

type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
	Close() error
}

// Envelope is the message body.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

func newPublishing(key string, payload any, now time.Time) (amqp.Publishing, error) {
	env := Envelope{ID: uuid.NewString(), Type: key, OccurredAt: now, Data: payload}
	body, err := json.Marshal(env)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal %s event: %w", key, err)
	}
	return amqp.Publishing{
		MessageId:    env.ID,
		Type:         key,
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    now,
		DeliveryMode: amqp.Persistent,
	}, nil
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close() error                               { return nil }

// AMQPPublisher publishes to a durable topic exchange on RabbitMQ.
type AMQPPublisher struct {
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// DialAMQP connects, retrying while the broker comes up, and declares the exchange.
func DialAMQP(url string, attempts int, wait time.Duration) (*AMQPPublisher, error) {
	var (
		conn *amqp.Connection
		ch   *amqp.Channel
		err  error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			ch, err = conn.Channel()
			if err == nil {
				break
			}
			conn.Close()
		}
		log.Warn().Err(err).Int("attempt", attempt).Int("of", attempts).Msg("rabbitmq not ready")
		if attempt < attempts {
			time.Sleep(wait)
		}
	}
	if ch == nil {
		return nil, fmt.Errorf("connect rabbitmq after %d attempts: %w", attempts, err)
	}

	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	log.Info().Str("exchange", Exchange).Msg("rabbitmq publisher ready")
	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, key string, payload any) error {
	msg, err := newPublishing(key, payload, time.Now())
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, Exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		log.Warn().Err(err).Msg("close rabbitmq channel")
	}
	return p.conn.Close()
}

// Emit publishes in the background with its own timeout; failures are only logged.
func Emit(p Publisher, key string, payload any) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Publish(ctx, key, payload); err != nil {
			log.Error().Err(err).Str("key", key).Msg("domain event not published")
		}
	}()
}
