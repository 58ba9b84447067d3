package competitionservice

import (
	"context"
	"encoding/json"

	competitionevents "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/events"
	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type correlationIDKey struct{}

// WithCorrelationID stores the request correlation id on ctx so published
// events carry it.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationID returns the correlation id stored on ctx, if any.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// publish emits a committed change. Publication failures are logged and never
// undo the committed write.
func (s *CompetitionService) publish(ctx context.Context, topic string, payload any) {
	if s.publisher == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal event payload",
			attr.String("topic", topic),
			attr.Error(err),
		)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if id := CorrelationID(ctx); id != "" {
		msg.Metadata.Set(competitionevents.CorrelationIDMetadataKey, id)
	}
	msg.Metadata.Set("topic", topic)

	if err := s.publisher.Publish(topic, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			attr.String("topic", topic),
			attr.String("message_id", msg.UUID),
			attr.Error(err),
		)
		return
	}
	s.logger.DebugContext(ctx, "Published event",
		attr.String("topic", topic),
		attr.String("message_id", msg.UUID),
	)
}
