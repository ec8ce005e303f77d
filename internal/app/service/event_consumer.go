package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/linkshot/linkshot/internal/app/model"
	apprepository "github.com/linkshot/linkshot/internal/app/repository"
	"github.com/linkshot/linkshot/internal/infra/prometheus"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// EventConsumer consumes analytics events from NATS JetStream and stores
// them for the analytics summaries
type EventConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	repo   apprepository.ViewEventRepository
}

// NewEventConsumer creates a new analytics event consumer
func NewEventConsumer(js nats.JetStreamContext, logger *zap.Logger, repo apprepository.ViewEventRepository) *EventConsumer {
	return &EventConsumer{js: js, logger: logger, repo: repo}
}

// Start begins consuming analytics events
func (c *EventConsumer) Start() error {
	// Create stream if not exists
	_, err := c.js.StreamInfo(model.ViewStreamName)
	if err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.ViewStreamName,
			Subjects: []string{model.ViewStreamSubject},
			MaxBytes: model.ViewStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	// Create consumer if not exists
	_, err = c.js.ConsumerInfo(model.ViewStreamName, model.ViewConsumerName)
	if err != nil {
		_, err = c.js.AddConsumer(model.ViewStreamName, &nats.ConsumerConfig{
			Durable:   model.ViewConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	// Subscribe to consume messages
	sub, err := c.js.PullSubscribe(model.ViewStreamSubject, model.ViewConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

func (c *EventConsumer) consume(sub *nats.Subscription) {
	ctx := context.Background()
	for {
		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && err != nats.ErrTimeout {
			c.logger.Error("failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			var event model.ViewEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				c.logger.Error("failed to unmarshal analytics event", zap.Error(err))
				msg.Nak()
				continue
			}

			if err := c.repo.Create(ctx, &event); err != nil {
				c.logger.Error("failed to store analytics event",
					zap.String("id", event.ID),
					zap.String("handle", event.Handle),
					zap.Error(err))
				msg.Nak()
				continue
			}

			prometheus.EventsStored.Inc()
			c.logger.Debug("analytics event stored",
				zap.String("id", event.ID),
				zap.String("handle", event.Handle),
				zap.String("kind", event.Kind),
				zap.Time("timestamp", event.Timestamp),
			)

			msg.Ack()
		}
	}
}
