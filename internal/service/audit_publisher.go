// Package service publishes domain events to RabbitMQ. Errors are logged
// and returned so callers can treat publishing as best-effort without
// failing the request that triggered it.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/personal-finance-api/internal/queue"
)

// PublishTransactionEvent sends a TransactionEvent to the durable audit
// queue. Each call dials the broker, which keeps the publisher stateless;
// audit traffic is low-rate enough that connection reuse is not worth the
// reconnect bookkeeping. Messages are persistent.
func PublishTransactionEvent(ctx context.Context, ev queue.TransactionEvent) error {
	conn, err := amqp.Dial(queue.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue.AuditQueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",                   // default exchange
		queue.AuditQueueName, // routing key = queue name
		false,                // mandatory
		false,                // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
