package application

import (
	"context"
	"encoding/json"

	"github.com/meetpoint/service-pickup/internal/domain/pickup"
	"github.com/meetpoint/service-pickup/internal/events"
	"github.com/meetpoint/service-pickup/internal/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// FeedbackEventConsumer listens to the feedback topic and triggers session
// refinements.
type FeedbackEventConsumer struct {
	consumer *kafka.Consumer
	service  *ResolutionService
	logger   *zap.Logger
}

// NewFeedbackEventConsumer creates a new FeedbackEventConsumer.
func NewFeedbackEventConsumer(
	brokers []string,
	groupID string,
	service *ResolutionService,
	logger *zap.Logger,
) *FeedbackEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicPickupFeedback, logger)
	return &FeedbackEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming feedback events. This blocks until the context is
// cancelled.
func (c *FeedbackEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *FeedbackEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *FeedbackEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from feedback topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.FeedbackSubmitted:
		return c.handleFeedbackSubmitted(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled feedback event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *FeedbackEventConsumer) handleFeedbackSubmitted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.FeedbackSubmittedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse FeedbackSubmittedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing feedback event",
		zap.String("session_id", evt.SessionID.String()),
	)

	_, err := c.service.Refine(ctx, evt.SessionID, evt.Feedback)
	if err != nil {
		// A resolution failure is final for this feedback round; redelivering
		// the message would replay the same rejected refinement.
		if resErr, ok := pickup.AsResolutionError(err); ok {
			c.logger.Warn("feedback refinement rejected",
				zap.String("session_id", evt.SessionID.String()),
				zap.String("kind", string(resErr.Kind)),
				zap.String("message", resErr.Message),
			)
			return nil
		}
		c.logger.Error("failed to refine session after feedback",
			zap.String("session_id", evt.SessionID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("session refined after feedback",
		zap.String("session_id", evt.SessionID.String()),
	)
	return nil
}
