package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smart-schedule/core/logger"
	"smart-schedule/modules/notification/entity"

	amqp "github.com/rabbitmq/amqp091-go"
)

// publisher is the part of *amqp.Channel the notifier uses.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type amqpNotifier struct {
	conn    *amqp.Connection
	channel publisher
	queue   string
}

// NewAMQPNotifier dials the broker and declares a durable queue.
func NewAMQPNotifier(url, queue string) (NoSlotsNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare %s: %w", queue, err)
	}

	logger.Info("NoSlotsNotifier:AMQP:Connected", "queue", queue)
	return &amqpNotifier{conn: conn, channel: ch, queue: queue}, nil
}

func (n *amqpNotifier) NotifyNoSlots(ctx context.Context, event entity.NoSlotsEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal no-slots event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    DedupeKey(event),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := n.channel.PublishWithContext(ctx, "", n.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

func (n *amqpNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
