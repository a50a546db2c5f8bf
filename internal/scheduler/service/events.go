package service

import (
	"context"
	"time"

	"cospace/pkg/config"
	"cospace/pkg/kafka"
	"cospace/pkg/model"
)

const (
	EventBookingConfirmed = "reservation.confirmed"
	EventBookingCancelled = "reservation.cancelled"
	EventBookingExpired   = "reservation.expired"

	eventSchemaVersion = "1.0"
	eventSource        = "reservations"
)

// BookingEvent is the payload published on booking lifecycle
// transitions. Downstream consumers drive notifications from it.
type BookingEvent struct {
	BookingID     string    `json:"booking_id"`
	ResourceID    string    `json:"resource_id"`
	RequesterID   string    `json:"requester_id"`
	RequesterName string    `json:"requester_name,omitempty"`
	Status        string    `json:"status"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	GroupID       string    `json:"group_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventPublisher emits booking lifecycle events. Publishing is
// best-effort: scheduling decisions never fail because the broker is
// down.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, eventType string, booking *model.Booking)
	Close() error
}

type kafkaEventPublisher struct {
	producer *kafka.Producer
	cfg      *config.Config
}

func NewKafkaEventPublisher(producer *kafka.Producer, cfg *config.Config) EventPublisher {
	return &kafkaEventPublisher{
		producer: producer,
		cfg:      cfg,
	}
}

func (p *kafkaEventPublisher) PublishBookingEvent(ctx context.Context, eventType string, booking *model.Booking) {
	event := BookingEvent{
		BookingID:     booking.ID,
		ResourceID:    booking.ResourceID,
		RequesterID:   booking.RequesterID,
		RequesterName: booking.RequesterName,
		Status:        booking.Status,
		StartTime:     booking.StartTime,
		EndTime:       booking.EndTime,
		GroupID:       booking.GroupID,
		OccurredAt:    time.Now().UTC(),
	}

	msg := kafka.NewMessage().
		WithKey(booking.ResourceID).
		WithValue(event).
		WithEventType(eventType).
		WithSchemaVersion(eventSchemaVersion).
		WithSource(eventSource).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.cfg.Log.Error("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
		return
	}

	p.cfg.Log.Debug("Booking event published",
		"event_type", eventType,
		"booking_id", booking.ID,
	)
}

func (p *kafkaEventPublisher) Close() error {
	return p.producer.Close()
}

// noopEventPublisher is used when Kafka is disabled.
type noopEventPublisher struct{}

func NewNoopEventPublisher() EventPublisher {
	return noopEventPublisher{}
}

func (noopEventPublisher) PublishBookingEvent(ctx context.Context, eventType string, booking *model.Booking) {
}

func (noopEventPublisher) Close() error { return nil }
