package events

import (
	"context"
	"log/slog"
	"time"

	"trivia-legends/internal/domain"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// ScoreSink persists a summary, typically app.ScoreService.
type ScoreSink interface {
	RecordSummary(ctx context.Context, summary domain.ScoreSummary) error
}

// RouterConfig wires the summary consumer.
type RouterConfig struct {
	Topic           string
	Subscriber      message.Subscriber
	Sink            ScoreSink
	Logger          *slog.Logger
	MaxRetries      int
	InitialInterval time.Duration
}

// NewRouter builds a router that stores every game.finished message through
// the sink. Failed writes are retried with backoff, then logged and dropped.
func NewRouter(cfg RouterConfig) (*message.Router, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Topic == "" {
		cfg.Topic = EventGameFinished
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	logger := watermill.NewSlogLogger(cfg.Logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 5 * time.Second}, logger)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		dropAfterRetries(cfg.Logger),
		middleware.Retry{
			MaxRetries:      cfg.MaxRetries,
			InitialInterval: cfg.InitialInterval,
			Multiplier:      2,
			Logger:          logger,
		}.Middleware,
		middleware.Recoverer,
	)

	router.AddNoPublisherHandler("store_score_summary", cfg.Topic, cfg.Subscriber, func(msg *message.Message) error {
		event, err := decodeGameFinished(msg)
		if err != nil {
			return err
		}
		return cfg.Sink.RecordSummary(msg.Context(), event.Summary)
	})
	return router, nil
}

// dropAfterRetries acks messages whose handler still fails so one bad
// summary never blocks the topic.
func dropAfterRetries(logger *slog.Logger) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			produced, err := h(msg)
			if err != nil {
				logger.Error("dropping game finished event", "message_uuid", msg.UUID, "error", err)
				return nil, nil
			}
			return produced, nil
		}
	}
}
