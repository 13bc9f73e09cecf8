// Package amqp carries record change events over RabbitMQ so that every
// running instance re-fetches when any of them writes. Events are
// notifications only; the store stays the source of truth.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"adminsum/internal/store"
)

const publishTimeout = 5 * time.Second

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
}

// NewClient dials the broker and declares a fanout exchange. Fanout, not
// direct: each subscriber binds its own queue, so every instance sees every
// change event.
func NewClient(url, exchangeName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"fanout",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	return nil
}

// Notify implements store.Notifier.
func (c *Client) Notify(ctx context.Context, change store.Change) error {
	body, err := NewChangeMessage(change).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		"",             // routing key, ignored by fanout
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "Published change message",
		"op", change.Op,
		"ids", len(change.IDs),
		"exchange", c.exchangeName)

	return nil
}

// Changes implements store.Feed. Each call declares its own exclusive
// auto-delete queue bound to the fanout exchange. A closed delivery channel
// means the connection is gone; the error channel reports it and both
// channels close so the consumer can tell loss from cancellation.
func (c *Client) Changes(ctx context.Context) (<-chan store.Change, <-chan error, error) {
	queue, err := c.channel.QueueDeclare(
		"",    // name, broker-generated
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, nil, fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		queue.Name,
		"", // routing key, ignored by fanout
		c.exchangeName,
		false,
		nil,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("bind queue: %w", err)
	}

	deliveries, err := c.channel.Consume(
		queue.Name,
		"",    // consumer
		true,  // auto-ack, events are fire-and-forget
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return nil, nil, fmt.Errorf("start consuming: %w", err)
	}

	changes := make(chan store.Change)
	errs := make(chan error, 1)

	go func() {
		defer close(changes)
		defer close(errs)

		slog.InfoContext(ctx, "Started consuming change messages", "queue", queue.Name)

		for {
			select {
			case <-ctx.Done():
				slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
				return
			case delivery, ok := <-deliveries:
				if !ok {
					errs <- fmt.Errorf("delivery channel closed")
					return
				}

				msg, err := ChangeMessageFromJSON(delivery.Body)
				if err != nil {
					slog.ErrorContext(ctx, "Failed to unmarshal change message", "error", err)
					continue
				}

				select {
				case changes <- msg.Change():
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return changes, errs, nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
