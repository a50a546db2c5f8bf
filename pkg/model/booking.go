package model

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// Booking is a claim on a resource for a half-open interval
// [StartTime, EndTime). Version implements optimistic concurrency: every
// status transition must present the version read at decision time.
// Bookings are never deleted; cancellation and expiry are transitions.
type Booking struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ResourceID    string    `json:"resource_id" bson:"resource_id" validate:"required,mongodb"`
	RequesterID   string    `json:"requester_id" bson:"requester_id" validate:"required,min=1,max=100"`
	RequesterName string    `json:"requester_name,omitempty" bson:"requester_name,omitempty" validate:"omitempty,max=100"`
	StartTime     time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime       time.Time `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	Status        string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled expired"`
	Version       int64     `json:"version" bson:"version"`
	GroupID       string    `json:"group_id,omitempty" bson:"group_id,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// IsTerminal reports whether the booking can no longer transition.
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCancelled || b.Status == StatusExpired
}

// CanTransitionTo enumerates the legal status transitions:
// pending -> confirmed | cancelled | expired, confirmed -> cancelled.
func (b *Booking) CanTransitionTo(status string) bool {
	switch b.Status {
	case StatusPending:
		return status == StatusConfirmed || status == StatusCancelled || status == StatusExpired
	case StatusConfirmed:
		return status == StatusCancelled
	default:
		return false
	}
}

// BookingRequest is the transient submission input. Recurrence, when set,
// expands into multiple occurrences committed all-or-nothing.
type BookingRequest struct {
	ResourceID    string          `json:"resource_id" validate:"required,mongodb"`
	RequesterID   string          `json:"requester_id" validate:"required,min=1,max=100"`
	RequesterName string          `json:"requester_name,omitempty" validate:"omitempty,max=100"`
	StartTime     time.Time       `json:"start_time" validate:"required"`
	EndTime       time.Time       `json:"end_time" validate:"required,gtfield=StartTime"`
	Recurrence    *RecurrenceRule `json:"recurrence,omitempty"`
}

func (r *BookingRequest) Interval() Interval {
	return Interval{Start: r.StartTime, End: r.EndTime}
}

// RecurrenceRule repeats the requested interval Count times in total,
// stepping by one day or one week per occurrence.
type RecurrenceRule struct {
	Frequency string `json:"frequency" validate:"required,oneof=daily weekly"`
	Count     int    `json:"count" validate:"required,min=1"`
}

const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)
