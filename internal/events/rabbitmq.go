package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"muebles-catalog/internal/logger"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
)

const DefaultQueue = "productos_queue"

var RabbitMQPublisherTracer = otel.Tracer("RabbitMQPublisher")

// RabbitMQPublisher publishes persistent JSON messages to one durable queue
// through the default exchange. amqp.Channel is not safe for concurrent
// publishing, hence the mutex.
type RabbitMQPublisher struct {
	mu         sync.Mutex
	connection *amqp.Connection
	channel    *amqp.Channel
	queueName  string
	appID      string
}

func NewRabbitMQPublisher(url, queueName, appID string) (*RabbitMQPublisher, error) {
	if queueName == "" {
		queueName = DefaultQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %q: %w", queueName, err)
	}

	logger.Instance().Info("RabbitMQ publisher ready", slog.String("queue", queueName))
	return &RabbitMQPublisher{
		connection: conn,
		channel:    ch,
		queueName:  queueName,
		appID:      appID,
	}, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, event Event) error {
	ctx, span := RabbitMQPublisherTracer.Start(ctx, "RabbitMQPublisher.Publish")
	defer span.End()

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.Publish(
		"",          // default exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     uuid.NewString(),
			CorrelationId: logger.RequestID(ctx),
			Timestamp:     event.OccurredAt,
			Type:          string(event.Action),
			AppId:         p.appID,
			Body:          body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s event: %w", event.Action, err)
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if p.connection != nil {
		if err := p.connection.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}
