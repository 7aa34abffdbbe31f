package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// MailMessage is the payload published for an external mail worker to deliver.
type MailMessage struct {
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// MailPublisher queues outbound mail on a durable direct exchange instead of
// talking to an SMTP server itself.
type MailPublisher struct {
	conn         *amqp091.Connection
	channel      channel
	exchangeName string
	queueName    string
}

func NewMailPublisher(url, exchangeName, queueName string) (*MailPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := setup(ch, exchangeName, queueName); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return &MailPublisher{conn: conn, channel: ch, exchangeName: exchangeName, queueName: queueName}, nil
}

func setup(ch *amqp091.Channel, exchangeName, queueName string) error {
	if err := ch.ExchangeDeclare(exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// routing key is the queue name on a direct exchange
	if err := ch.QueueBind(queueName, queueName, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// SendEmail publishes the message as persistent JSON. It returns once the broker
// has accepted the publish, not when the mail is delivered.
func (p *MailPublisher) SendEmail(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(MailMessage{To: to, Subject: subject, Body: body, QueuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, p.exchangeName, p.queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	slog.InfoContext(ctx, "queued outbound mail", "to", to, "exchange", p.exchangeName, "queue", p.queueName)
	return nil
}

func (p *MailPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
