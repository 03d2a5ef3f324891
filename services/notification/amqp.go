package notification

import (
	"context"
	"encoding/json"
	"time"

	"museum-ticketing/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueName is the durable queue email dispatchers consume from.
const QueueName = "museum.order.events"

// AMQPSink publishes events to RabbitMQ. It dials per publish so a broker
// restart never leaves the service holding a dead connection; events are
// rare (one per order transition) so the overhead is acceptable.
type AMQPSink struct {
	URL string
}

func NewAMQPSink(url string) *AMQPSink {
	return &AMQPSink{URL: url}
}

func (s *AMQPSink) Publish(event Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := amqp.Dial(s.URL)
	if err != nil {
		logger.Error("rabbitmq: dial failed", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("rabbitmq: channel open failed", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		logger.Error("rabbitmq: queue declare failed", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		logger.Error("rabbitmq: marshal event failed", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", QueueName, false, false, pub); err != nil {
		logger.Error("rabbitmq: publish failed", err)
		return err
	}

	return nil
}
