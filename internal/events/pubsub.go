package events

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	TransportGoChannel = "gochannel"
	TransportKafka     = "kafka"
)

// Config selects and configures the message transport.
type Config struct {
	Transport     string
	Brokers       []string
	ConsumerGroup string
	Logger        *slog.Logger
}

// PubSub bundles both ends of the chosen transport.
type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// NewPubSub creates an in-process gochannel bus or a Kafka-backed one.
func NewPubSub(cfg Config) (PubSub, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := watermill.NewSlogLogger(cfg.Logger)

	switch cfg.Transport {
	case "", TransportGoChannel:
		bus := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
		return PubSub{Publisher: bus, Subscriber: bus}, nil
	case TransportKafka:
		if len(cfg.Brokers) == 0 {
			return PubSub{}, errors.New("kafka transport requires at least one broker")
		}
		publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.Brokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, logger)
		if err != nil {
			return PubSub{}, fmt.Errorf("failed to create Kafka publisher: %w", err)
		}
		subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
			Brokers:               cfg.Brokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			ConsumerGroup:         cfg.ConsumerGroup,
			OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
		}, logger)
		if err != nil {
			_ = publisher.Close()
			return PubSub{}, fmt.Errorf("failed to create Kafka subscriber: %w", err)
		}
		return PubSub{Publisher: publisher, Subscriber: subscriber}, nil
	default:
		return PubSub{}, fmt.Errorf("unknown events transport %q", cfg.Transport)
	}
}

func (p PubSub) Close() error {
	var errs []error
	if p.Publisher != nil {
		errs = append(errs, p.Publisher.Close())
	}
	if p.Subscriber != nil {
		errs = append(errs, p.Subscriber.Close())
	}
	return errors.Join(errs...)
}
