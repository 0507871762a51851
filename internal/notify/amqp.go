package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPChannel is the part of *amqp.Channel the sink needs.
type AMQPChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPSink delivers each event as a persistent message to a durable queue
// named after the event type. It opens a channel per event because amqp
// channels must not be shared between goroutines.
type AMQPSink struct {
	open func() (AMQPChannel, error)
}

func NewAMQPSink(conn *amqp.Connection) *AMQPSink {
	return NewAMQPSinkWithChannels(func() (AMQPChannel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	})
}

func NewAMQPSinkWithChannels(open func() (AMQPChannel, error)) *AMQPSink {
	return &AMQPSink{
		open: open,
	}
}

func (s *AMQPSink) Name() string {
	return "amqp"
}

func (s *AMQPSink) Notify(ctx context.Context, event domain.BookingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ch, err := s.open()
	if err != nil {
		return err
	}
	defer ch.Close()

	queue := string(event.Type)

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    event.BookingID.String(),
		Type:         queue,
		Body:         body,
	})
}
