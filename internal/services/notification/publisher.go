package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"escrow/internal/config"
	"escrow/internal/models"

	"github.com/nsqio/go-nsq"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Message is the wire form of a dispatched outbox event.
type Message struct {
	EventID    string              `json:"event_id"`
	Type       models.EventType    `json:"type"`
	OccurredAt time.Time           `json:"occurred_at"`
	Payload    models.EventPayload `json:"payload"`
}

func newMessage(ev *models.OutboxEvent) Message {
	return Message{EventID: ev.EventID, Type: ev.Type, OccurredAt: ev.CreatedAt, Payload: ev.Payload}
}

// Topic is the routing key or topic an event type is published under.
func Topic(t models.EventType) string {
	return "escrow." + string(t)
}

// Publisher delivers events to external collaborators.
type Publisher interface {
	Publish(ctx context.Context, ev *models.OutboxEvent) error
	Close()
}

// NewPublisher builds the publisher selected by cfg.Broker.
func NewPublisher(cfg config.EventsConfig, log *logrus.Logger) (Publisher, error) {
	switch cfg.Broker {
	case "rabbitmq":
		return NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	case "nsq":
		return NewNSQPublisher(cfg.NSQDAddr)
	case "log", "":
		return NewLogPublisher(log), nil
	default:
		return nil, fmt.Errorf("unsupported event broker %q", cfg.Broker)
	}
}

// LogPublisher writes events to the service log.
type LogPublisher struct {
	log *logrus.Logger
}

func NewLogPublisher(log *logrus.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, ev *models.OutboxEvent) error {
	fields := logrus.Fields{"event": ev.Type, "event_id": ev.EventID}
	if ev.Payload.Transaction != nil {
		fields["transaction_id"] = ev.Payload.Transaction.ID
	}
	if ev.Payload.Milestone != nil {
		fields["milestone_id"] = ev.Payload.Milestone.ID
	}
	p.log.WithFields(fields).Info("escrow event")
	return nil
}

func (p *LogPublisher) Close() {}

// AMQPPublisher publishes events to a durable RabbitMQ topic exchange.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

func NewAMQPPublisher(amqpURL, exchange string) (*AMQPPublisher, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	p := &AMQPPublisher{conn: conn, exchange: exchange}
	if err := p.openChannel(); err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) openChannel() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}
	p.channel = ch
	return nil
}

// Publish sends the event; on failure it reopens the channel and retries once.
func (p *AMQPPublisher) Publish(ctx context.Context, ev *models.OutboxEvent) error {
	body, err := json.Marshal(newMessage(ev))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    time.Now(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, Topic(ev.Type), false, false, msg)
	if err == nil {
		return nil
	}
	if reopenErr := p.openChannel(); reopenErr != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	return p.channel.PublishWithContext(ctx, p.exchange, Topic(ev.Type), false, false, msg)
}

func (p *AMQPPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// NSQPublisher publishes events to nsqd, one topic per event type.
type NSQPublisher struct {
	producer *nsq.Producer
}

func NewNSQPublisher(address string) (*NSQPublisher, error) {
	producer, err := nsq.NewProducer(address, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create NSQ producer: %w", err)
	}

	// Ping the NSQ daemon to ensure connectivity
	if err := producer.Ping(); err != nil {
		producer.Stop()
		return nil, fmt.Errorf("failed to ping NSQ daemon: %w", err)
	}
	producer.SetLoggerLevel(nsq.LogLevelWarning)

	return &NSQPublisher{producer: producer}, nil
}

func (p *NSQPublisher) Publish(ctx context.Context, ev *models.OutboxEvent) error {
	body, err := json.Marshal(newMessage(ev))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.producer.Publish(Topic(ev.Type), body); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (p *NSQPublisher) Close() {
	p.producer.Stop()
}
