// Package events publishes delivery outcomes for downstream CRM sync.
package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/streadway/amqp"
)

// DeliveryEvent describes what happened to one queued message.
type DeliveryEvent struct {
	MessageID int64     `json:"message_id"`
	ContactID *int64    `json:"contact_id,omitempty"`
	Channel   string    `json:"channel"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher emits delivery events.
type Publisher interface {
	Publish(ev DeliveryEvent) error
	Close() error
}

// AMQPPublisher publishes to a topic exchange with routing keys
// message.sent, message.failed, message.skipped.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("events: declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ev DeliveryEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.ch.Publish(
		p.exchange,
		"message."+ev.Status,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   ev.At,
			Body:        body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	p.ch.Close()
	return p.conn.Close()
}

// NoopPublisher drops events. Used when no broker is configured and in tests.
type NoopPublisher struct{}

func (NoopPublisher) Publish(DeliveryEvent) error { return nil }
func (NoopPublisher) Close() error                { return nil }
