package notify

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// StreamSink publishes events as JSON messages on a topic named after the
// event type.
type StreamSink struct {
	publisher message.Publisher
}

func NewStreamSink(publisher message.Publisher) *StreamSink {
	return &StreamSink{
		publisher: publisher,
	}
}

func NewRedisStreamPublisher(client redis.UniversalClient, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: client,
	}, logger)
}

func (s *StreamSink) Name() string {
	return "stream"
}

func (s *StreamSink) Notify(ctx context.Context, event domain.BookingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", string(event.Type))
	msg.Metadata.Set("booking_id", event.BookingID.String())
	msg.SetContext(ctx)

	return s.publisher.Publish(string(event.Type), msg)
}
