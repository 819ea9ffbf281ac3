package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type ExchangeType string

const (
	DirectExchangeType ExchangeType = "direct"
	FanoutExchangeType ExchangeType = "fanout"
	TopicExchangeType  ExchangeType = "topic"
)

// ParseExchangeType accepts the exchange kinds this publisher declares.
func ParseExchangeType(s string) (ExchangeType, error) {
	switch k := ExchangeType(s); k {
	case DirectExchangeType, FanoutExchangeType, TopicExchangeType:
		return k, nil
	default:
		return "", fmt.Errorf("eventbus: unsupported exchange type %q", s)
	}
}

// RabbitMQ publishes JSON events to one durable exchange.
// An amqp channel is not safe for concurrent publishing, hence mu.
type RabbitMQ struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	channel  *amqp.Channel
	exchange string
	appID    string
}

func NewRabbitMQ(amqpURI, exchange string, kind ExchangeType) (*RabbitMQ, error) {
	conn, err := amqp.Dial(amqpURI)
	if err != nil {
		return nil, fmt.Errorf("eventbus: connect: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("eventbus: open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,     // name
		string(kind), // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("eventbus: declare exchange %q: %w", exchange, err)
	}

	return &RabbitMQ{conn: conn, channel: ch, exchange: exchange, appID: "weeklychef-api"}, nil
}

func (b *RabbitMQ) Publish(ctx context.Context, routingKey string, event any) error {
	msg, err := newPublishing(b.appID, routingKey, event, time.Now())
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.channel.PublishWithContext(
		ctx,
		b.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		msg,
	)
}

func (b *RabbitMQ) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.channel != nil {
		if err := b.channel.Close(); err != nil {
			return err
		}
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

func newPublishing(appID, routingKey string, event any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("eventbus: marshal %s: %w", routingKey, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    now.UTC(),
		Type:         routingKey,
		AppId:        appID,
		Body:         body,
	}, nil
}
