package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cospace/internal/availability"
	ledgererrors "cospace/internal/ledger/errors"
	"cospace/internal/ledger/repository"
	"cospace/internal/scheduler/validator"
	"cospace/pkg/config"
	apperrors "cospace/pkg/errors"
	"cospace/pkg/model"
	"cospace/pkg/sanitizer"

	"github.com/google/uuid"
)

// expiryBatchSize caps how many stale pending bookings one sweep
// transition pass will touch.
const expiryBatchSize = 500

// occupancyStatuses are the statuses that hold their interval against
// other requests.
var occupancyStatuses = []string{model.StatusPending, model.StatusConfirmed}

// ResourceCatalog is the slice of the catalog the scheduler needs.
type ResourceCatalog interface {
	GetByID(ctx context.Context, id string) (*model.Resource, error)
	GetBookable(ctx context.Context, id string) (*model.Resource, error)
}

// ResourceCoordinator serializes decisions per resource.
type ResourceCoordinator interface {
	WithLock(ctx context.Context, resourceID string, fn func() error) error
}

type SchedulerService interface {
	Submit(ctx context.Context, req *model.BookingRequest) ([]*model.Booking, error)
	Cancel(ctx context.Context, bookingID, requesterID string) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, error)
	GetAvailability(ctx context.Context, resourceID string, window model.Interval) (*model.AvailabilitySnapshot, error)
	ExpireStalePending(ctx context.Context) (int, error)
}

type schedulerService struct {
	ledger      repository.BookingRepository
	catalog     ResourceCatalog
	coordinator ResourceCoordinator
	validator   *validator.RequestValidator
	events      EventPublisher
	cfg         *config.Config
}

func NewSchedulerService(
	ledger repository.BookingRepository,
	catalog ResourceCatalog,
	coordinator ResourceCoordinator,
	validator *validator.RequestValidator,
	events EventPublisher,
	cfg *config.Config,
) SchedulerService {
	return &schedulerService{
		ledger:      ledger,
		catalog:     catalog,
		coordinator: coordinator,
		validator:   validator,
		events:      events,
		cfg:         cfg,
	}
}

// Submit decides a booking request. The whole decision for a resource
// runs under that resource's lock: conflict check, staging, and
// confirmation are atomic with respect to competing submissions.
// Recurring requests commit all occurrences or none.
func (s *schedulerService) Submit(ctx context.Context, req *model.BookingRequest) ([]*model.Booking, error) {
	req.RequesterName = sanitizer.NormalizeName(req.RequesterName)

	if err := s.validator.ValidateShape(req); err != nil {
		s.cfg.Log.Warn("Booking request failed shape validation",
			"resource_id", req.ResourceID,
			"requester_id", req.RequesterID,
			"error", err,
		)
		return nil, apperrors.InvalidInput("Booking request is malformed").WithDetails(map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.validator.ValidateRules(req); err != nil {
		s.cfg.Log.Warn("Booking request failed rule validation",
			"resource_id", req.ResourceID,
			"requester_id", req.RequesterID,
			"error", err,
		)
		return nil, apperrors.Validation("Booking request violates scheduling rules", map[string]any{
			"error": err.Error(),
		})
	}

	resource, err := s.catalog.GetBookable(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}

	occurrences := expandOccurrences(req)
	for i, iv := range occurrences {
		if !resource.IsOpenDuring(iv) {
			return nil, apperrors.Validation("Requested interval falls outside operating hours", map[string]any{
				"occurrence": i,
				"start":      iv.Start,
				"end":        iv.End,
			})
		}
	}

	groupID := ""
	if len(occurrences) > 1 {
		groupID = uuid.New().String()
	}

	var confirmed []*model.Booking
	err = s.coordinator.WithLock(ctx, req.ResourceID, func() error {
		for _, iv := range occurrences {
			overlapping, err := s.ledger.FindOverlapping(ctx, req.ResourceID, iv, occupancyStatuses)
			if err != nil {
				return apperrors.Transient("Failed to check for booking conflicts", err)
			}
			if len(overlapping) > 0 {
				first := overlapping[0]
				return apperrors.BookingConflict(
					fmt.Sprintf("Requested interval overlaps existing booking %s", first.ID),
					first.ID,
				)
			}
		}

		staged := make([]*model.Booking, 0, len(occurrences))
		for _, iv := range occurrences {
			booking := &model.Booking{
				ResourceID:    req.ResourceID,
				RequesterID:   req.RequesterID,
				RequesterName: req.RequesterName,
				StartTime:     iv.Start,
				EndTime:       iv.End,
				Status:        model.StatusPending,
				GroupID:       groupID,
			}
			if err := s.ledger.Insert(ctx, booking); err != nil {
				s.rollback(ctx, staged)
				return apperrors.Transient("Failed to stage booking", err)
			}
			staged = append(staged, booking)
		}

		for _, booking := range staged {
			updated, err := s.confirm(ctx, booking)
			if err != nil {
				s.rollback(ctx, staged)
				confirmed = nil
				return err
			}
			confirmed = append(confirmed, updated)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Booking submission rejected",
			"resource_id", req.ResourceID,
			"requester_id", req.RequesterID,
			"occurrences", len(occurrences),
			"error", err,
		)
		return nil, err
	}

	for _, booking := range confirmed {
		s.events.PublishBookingEvent(ctx, EventBookingConfirmed, booking)
	}

	s.cfg.Log.Info("Booking submission confirmed",
		"resource_id", req.ResourceID,
		"requester_id", req.RequesterID,
		"occurrences", len(confirmed),
		"group_id", groupID,
	)

	return confirmed, nil
}

// confirm moves one staged booking from pending to confirmed, retrying
// stale versions a bounded number of times.
func (s *schedulerService) confirm(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	version := booking.Version
	for attempt := 0; attempt < s.cfg.VersionRetryLimit; attempt++ {
		updated, err := s.ledger.UpdateStatus(ctx, booking.ID, version, model.StatusConfirmed)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, ledgererrors.ErrVersionConflict) {
			current, ferr := s.ledger.FindByID(ctx, booking.ID)
			if ferr != nil {
				return nil, apperrors.Transient("Failed to re-read booking after version conflict", ferr)
			}
			if !current.CanTransitionTo(model.StatusConfirmed) {
				return nil, apperrors.Terminal(fmt.Sprintf("Booking %s can no longer be confirmed (status: %s)", booking.ID, current.Status))
			}
			version = current.Version
			continue
		}
		if errors.Is(err, ledgererrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", booking.ID)
		}
		return nil, apperrors.Transient("Failed to confirm booking", err)
	}
	return nil, apperrors.VersionConflict(fmt.Sprintf("Booking %s version kept moving; confirmation abandoned", booking.ID))
}

// rollback cancels staged bookings after a failed all-or-nothing
// submission. Best effort: a booking that already reached a terminal
// status is left alone.
func (s *schedulerService) rollback(ctx context.Context, staged []*model.Booking) {
	for _, booking := range staged {
		current, err := s.ledger.FindByID(ctx, booking.ID)
		if err != nil {
			s.cfg.Log.Error("Failed to read staged booking during rollback",
				"booking_id", booking.ID,
				"error", err,
			)
			continue
		}
		if current.IsTerminal() {
			continue
		}
		if _, err := s.ledger.UpdateStatus(ctx, booking.ID, current.Version, model.StatusCancelled); err != nil {
			s.cfg.Log.Error("Failed to roll back staged booking",
				"booking_id", booking.ID,
				"error", err,
			)
		}
	}
}

// Cancel transitions a booking to cancelled on behalf of its requester.
func (s *schedulerService) Cancel(ctx context.Context, bookingID, requesterID string) (*model.Booking, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if requesterID == "" {
		return nil, apperrors.InvalidInput("Requester ID cannot be empty")
	}

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.RequesterID != requesterID {
		s.cfg.Log.Warn("Cancellation denied: requester mismatch",
			"booking_id", bookingID,
			"requester_id", requesterID,
		)
		return nil, apperrors.Forbidden("Only the requester may cancel this booking")
	}

	var cancelled *model.Booking
	err = s.coordinator.WithLock(ctx, booking.ResourceID, func() error {
		for attempt := 0; attempt < s.cfg.VersionRetryLimit; attempt++ {
			current, err := s.getBooking(ctx, bookingID)
			if err != nil {
				return err
			}
			if current.IsTerminal() {
				return apperrors.Terminal(fmt.Sprintf("Booking %s is already %s", bookingID, current.Status))
			}

			updated, err := s.ledger.UpdateStatus(ctx, bookingID, current.Version, model.StatusCancelled)
			if err == nil {
				cancelled = updated
				return nil
			}
			if errors.Is(err, ledgererrors.ErrVersionConflict) {
				continue
			}
			if errors.Is(err, ledgererrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", bookingID)
			}
			return apperrors.Transient("Failed to cancel booking", err)
		}
		return apperrors.VersionConflict(fmt.Sprintf("Booking %s version kept moving; cancellation abandoned", bookingID))
	})
	if err != nil {
		return nil, err
	}

	s.events.PublishBookingEvent(ctx, EventBookingCancelled, cancelled)

	s.cfg.Log.Info("Booking cancelled",
		"booking_id", bookingID,
		"resource_id", cancelled.ResourceID,
		"requester_id", requesterID,
	)

	return cancelled, nil
}

func (s *schedulerService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	return s.getBooking(ctx, id)
}

func (s *schedulerService) ListByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, error) {
	if requesterID == "" {
		return nil, apperrors.InvalidInput("Requester ID cannot be empty")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	bookings, err := s.ledger.FindByRequester(ctx, requesterID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings by requester",
			"requester_id", requesterID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	return bookings, nil
}

// GetAvailability recomputes the free/occupied breakdown for a resource
// over the query window. Retired resources remain queryable so their
// history stays visible.
func (s *schedulerService) GetAvailability(ctx context.Context, resourceID string, window model.Interval) (*model.AvailabilitySnapshot, error) {
	if resourceID == "" {
		return nil, apperrors.InvalidInput("Resource ID cannot be empty")
	}
	if !window.IsValid() {
		return nil, apperrors.InvalidInput("Availability window end must be after its start")
	}

	resource, err := s.catalog.GetByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.ledger.FindOverlapping(ctx, resourceID, window, occupancyStatuses)
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for availability",
			"resource_id", resourceID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to compute availability", err)
	}

	return availability.Compute(resource, window, bookings), nil
}

// ExpireStalePending sweeps pending bookings older than the TTL into
// expired. A version conflict means the booking moved on its own in the
// meantime; the sweep skips it.
func (s *schedulerService) ExpireStalePending(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.PendingTTL)

	stale, err := s.ledger.FindStalePending(ctx, cutoff, expiryBatchSize)
	if err != nil {
		return 0, apperrors.Internal("Failed to find stale pending bookings", err)
	}

	expired := 0
	for _, booking := range stale {
		updated, err := s.ledger.UpdateStatus(ctx, booking.ID, booking.Version, model.StatusExpired)
		if err != nil {
			if errors.Is(err, ledgererrors.ErrVersionConflict) || errors.Is(err, ledgererrors.ErrNotFound) {
				continue
			}
			s.cfg.Log.Error("Failed to expire stale booking",
				"booking_id", booking.ID,
				"error", err,
			)
			continue
		}
		expired++
		s.events.PublishBookingEvent(ctx, EventBookingExpired, updated)
	}

	if expired > 0 {
		s.cfg.Log.Info("Expired stale pending bookings", "count", expired)
	}

	return expired, nil
}

func (s *schedulerService) getBooking(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ledgererrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, ledgererrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		s.cfg.Log.Error("Failed to get booking by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

// expandOccurrences turns a request into its concrete intervals. Daily
// and weekly steps use calendar arithmetic so local wall-clock times
// survive DST changes.
func expandOccurrences(req *model.BookingRequest) []model.Interval {
	count := 1
	if req.Recurrence != nil && req.Recurrence.Count > 1 {
		count = req.Recurrence.Count
	}

	occurrences := make([]model.Interval, 0, count)
	for i := 0; i < count; i++ {
		days := 0
		if req.Recurrence != nil {
			switch req.Recurrence.Frequency {
			case model.FrequencyDaily:
				days = i
			case model.FrequencyWeekly:
				days = i * 7
			}
		}
		occurrences = append(occurrences, model.Interval{
			Start: req.StartTime.AddDate(0, 0, days),
			End:   req.EndTime.AddDate(0, 0, days),
		})
	}
	return occurrences
}
