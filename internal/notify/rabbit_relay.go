package notify

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPClient is the part of the shared RabbitMQ client the relay needs.
type AMQPClient interface {
	Publish(ctx context.Context, body []byte, contentType string) error
	Consume(consumerTag string, autoAck bool) (<-chan amqp.Delivery, error)
	NotifyClose() <-chan *amqp.Error
}

// RabbitRelay fans events out through a fanout exchange. Each process binds
// its own exclusive queue, so every process sees every event.
type RabbitRelay struct {
	client      AMQPClient
	consumerTag string
	logger      *slog.Logger
}

var _ Relay = (*RabbitRelay)(nil)

// NewRabbitRelay creates a relay over client.
func NewRabbitRelay(client AMQPClient, consumerTag string, logger *slog.Logger) *RabbitRelay {
	return &RabbitRelay{
		client:      client,
		consumerTag: consumerTag,
		logger:      logger,
	}
}

func (r *RabbitRelay) Name() string { return "rabbitmq" }

func (r *RabbitRelay) Publish(ctx context.Context, event Event) error {
	data, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return r.client.Publish(ctx, data, "application/json")
}

func (r *RabbitRelay) Listen(ctx context.Context, handle func(Event)) error {
	deliveries, err := r.client.Consume(r.consumerTag, true)
	if err != nil {
		return err
	}
	closed := r.client.NotifyClose()

	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr, ok := <-closed:
			if ok && amqpErr != nil {
				return fmt.Errorf("rabbitmq channel closed: %w", amqpErr)
			}
			closed = nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("rabbitmq delivery channel closed")
			}
			event, err := UnmarshalEvent(d.Body)
			if err != nil {
				r.logger.Warn("Discarding malformed relayed event",
					slog.String("relay", r.Name()),
					slog.String("message_id", d.MessageId),
					slog.Any("error", err),
				)
				continue
			}
			handle(event)
		}
	}
}
