package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"trivia-legends/internal/domain"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	EventGameFinished = "game.finished"
	eventVersion      = "1"
	eventSource       = "trivia-legends"
)

// GameFinished is the payload published when a game reaches Finished.
type GameFinished struct {
	ID         string              `json:"id"`
	OccurredAt time.Time           `json:"occurredAt"`
	Summary    domain.ScoreSummary `json:"summary"`
}

// Publisher forwards finished-game summaries to the message bus. It
// implements app.ScoreRecorder and returns as soon as the message is handed off.
type Publisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

func NewPublisher(publisher message.Publisher, topic string, logger *slog.Logger) *Publisher {
	if topic == "" {
		topic = EventGameFinished
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{publisher: publisher, topic: topic, logger: logger}
}

func (p *Publisher) RecordSummary(ctx context.Context, summary domain.ScoreSummary) error {
	event := GameFinished{
		ID:         watermill.NewUUID(),
		OccurredAt: time.Now().UTC(),
		Summary:    summary,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal game finished event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", EventGameFinished)
	msg.Metadata.Set("source", eventSource)
	msg.Metadata.Set("version", eventVersion)
	msg.Metadata.Set("timestamp", event.OccurredAt.Format(time.RFC3339))

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.logger.Error("publish game finished event failed", "event_id", event.ID, "error", err)
		return fmt.Errorf("publish game finished event: %w", err)
	}
	p.logger.Debug("published game finished event", "event_id", event.ID, "topic", p.topic, "score", summary.Score)
	return nil
}

func decodeGameFinished(msg *message.Message) (GameFinished, error) {
	var event GameFinished
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return GameFinished{}, fmt.Errorf("decode game finished event %s: %w", msg.UUID, err)
	}
	return event, nil
}
