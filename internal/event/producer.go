package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/camilomoreno07/gorkis-api/internal/domain"
	pkgkafka "github.com/camilomoreno07/gorkis-api/pkg/kafka"
	"github.com/camilomoreno07/gorkis-api/pkg/logger"
)

// Topics for service lifecycle events.
var (
	TopicServiceCreated = pkgkafka.Topic("service", "created")
	TopicServiceUpdated = pkgkafka.Topic("service", "updated")
	TopicServiceRated   = pkgkafka.Topic("service", "rated")
	TopicServiceDeleted = pkgkafka.Topic("service", "deleted")
)

const (
	AggregateTypeService = "service"
	SourceServicesAPI    = "services-api"
)

// Publisher announces service lifecycle changes.
type Publisher interface {
	PublishServiceCreated(ctx context.Context, svc *domain.Service) error
	PublishServiceUpdated(ctx context.Context, id string, attrs domain.Attributes) error
	PublishServiceRated(ctx context.Context, id string, submitted, rate int) error
	PublishServiceDeleted(ctx context.Context, id string) error
}

// ServiceUpdatedData is the payload for a service.updated event.
type ServiceUpdatedData struct {
	ServiceID  string            `json:"serviceId"`
	Attributes domain.Attributes `json:"attributes"`
}

// ServiceRatedData is the payload for a service.rated event.
type ServiceRatedData struct {
	ServiceID string `json:"serviceId"`
	Submitted int    `json:"submitted"`
	Rate      int    `json:"rate"`
}

// ServiceDeletedData is the payload for a service.deleted event.
type ServiceDeletedData struct {
	ServiceID string `json:"serviceId"`
}

// Producer publishes service events to Kafka.
type Producer struct {
	kafka  pkgkafka.Publisher
	logger *slog.Logger
}

// NewProducer creates a Kafka-backed Publisher. kafka is usually a
// *pkgkafka.BreakerPublisher around a *pkgkafka.Producer.
func NewProducer(kafka pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, id string, data any) error {
	event, err := pkgkafka.NewEvent(topic, id, AggregateTypeService, SourceServicesAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if corrID := logger.CorrelationIDFromContext(ctx); corrID != "" {
		event.WithCorrelationID(corrID)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published service event",
		slog.String("topic", topic),
		slog.String("service_id", id),
	)
	return nil
}

// PublishServiceCreated publishes the created record.
func (p *Producer) PublishServiceCreated(ctx context.Context, svc *domain.Service) error {
	return p.publish(ctx, TopicServiceCreated, svc.ServiceID, svc)
}

// PublishServiceUpdated publishes the attributes an update wrote.
func (p *Producer) PublishServiceUpdated(ctx context.Context, id string, attrs domain.Attributes) error {
	return p.publish(ctx, TopicServiceUpdated, id, ServiceUpdatedData{ServiceID: id, Attributes: attrs})
}

// PublishServiceRated publishes the submitted rate and the merged result.
func (p *Producer) PublishServiceRated(ctx context.Context, id string, submitted, rate int) error {
	return p.publish(ctx, TopicServiceRated, id, ServiceRatedData{ServiceID: id, Submitted: submitted, Rate: rate})
}

// PublishServiceDeleted publishes a deletion.
func (p *Producer) PublishServiceDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicServiceDeleted, id, ServiceDeletedData{ServiceID: id})
}

// Noop discards every event. It is used when KAFKA_ENABLED is false.
type Noop struct{}

func (Noop) PublishServiceCreated(context.Context, *domain.Service) error { return nil }
func (Noop) PublishServiceUpdated(context.Context, string, domain.Attributes) error { return nil }
func (Noop) PublishServiceRated(context.Context, string, int, int) error { return nil }
func (Noop) PublishServiceDeleted(context.Context, string) error { return nil }

var (
	_ Publisher = (*Producer)(nil)
	_ Publisher = Noop{}
)
