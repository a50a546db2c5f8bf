package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	ledgererrors "cospace/internal/ledger/errors"
	"cospace/internal/scheduler/coordinator"
	"cospace/internal/scheduler/validator"
	"cospace/pkg/config"
	apperrors "cospace/pkg/errors"
	"cospace/pkg/logger"
	"cospace/pkg/model"
)

const testResourceID = "507f1f77bcf86cd799439011"

// fakeLedger is an in-memory booking store with the same CAS semantics
// as the Mongo repository.
type fakeLedger struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	nextID   int

	failInsertAt int // fail the nth insert (1-based), 0 disables
	insertCount  int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{bookings: make(map[string]*model.Booking)}
}

func (f *fakeLedger) Insert(ctx context.Context, booking *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.insertCount++
	if f.failInsertAt > 0 && f.insertCount == f.failInsertAt {
		return fmt.Errorf("simulated insert failure")
	}

	f.nextID++
	booking.ID = fmt.Sprintf("b%03d", f.nextID)
	booking.Version = 1
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	stored := *booking
	f.bookings[booking.ID] = &stored
	return nil
}

func (f *fakeLedger) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.bookings[id]
	if !ok {
		return nil, ledgererrors.ErrNotFound
	}
	copy := *stored
	return &copy, nil
}

func (f *fakeLedger) UpdateStatus(ctx context.Context, id string, expectedVersion int64, status string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.bookings[id]
	if !ok {
		return nil, ledgererrors.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return nil, ledgererrors.ErrVersionConflict
	}

	stored.Status = status
	stored.Version++
	stored.UpdatedAt = time.Now().UTC()

	copy := *stored
	return &copy, nil
}

func (f *fakeLedger) FindOverlapping(ctx context.Context, resourceID string, window model.Interval, statuses []string) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	allowed := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		allowed[s] = true
	}

	var matches []*model.Booking
	for _, stored := range f.bookings {
		if stored.ResourceID != resourceID || !allowed[stored.Status] {
			continue
		}
		if stored.Interval().Overlaps(window) {
			copy := *stored
			matches = append(matches, &copy)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].StartTime.Equal(matches[j].StartTime) {
			return matches[i].StartTime.Before(matches[j].StartTime)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

func (f *fakeLedger) FindByResource(ctx context.Context, resourceID string, window *model.Interval, limit int, offset int64) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matches []*model.Booking
	for _, stored := range f.bookings {
		if stored.ResourceID != resourceID {
			continue
		}
		if window != nil && !stored.Interval().Overlaps(*window) {
			continue
		}
		copy := *stored
		matches = append(matches, &copy)
	}
	return matches, nil
}

func (f *fakeLedger) FindByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matches []*model.Booking
	for _, stored := range f.bookings {
		if stored.RequesterID != requesterID {
			continue
		}
		copy := *stored
		matches = append(matches, &copy)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].StartTime.Before(matches[j].StartTime) })
	return matches, nil
}

func (f *fakeLedger) FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matches []*model.Booking
	for _, stored := range f.bookings {
		if stored.Status != model.StatusPending || !stored.CreatedAt.Before(olderThan) {
			continue
		}
		copy := *stored
		matches = append(matches, &copy)
	}
	return matches, nil
}

func (f *fakeLedger) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.bookings)), nil
}

func (f *fakeLedger) countByStatus(status string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, stored := range f.bookings {
		if stored.Status == status {
			n++
		}
	}
	return n
}

// fakeCatalog serves a fixed resource set.
type fakeCatalog struct {
	resources map[string]*model.Resource
}

func (f *fakeCatalog) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	resource, ok := f.resources[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("Resource", id)
	}
	return resource, nil
}

func (f *fakeCatalog) GetBookable(ctx context.Context, id string) (*model.Resource, error) {
	resource, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if resource.Status != model.ResourceActive {
		return nil, apperrors.NotFoundWithID("Resource", id)
	}
	return resource, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingPublisher) PublishBookingEvent(ctx context.Context, eventType string, booking *model.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType+":"+booking.ID)
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if len(e) >= len(eventType) && e[:len(eventType)] == eventType {
			n++
		}
	}
	return n
}

type fixture struct {
	service SchedulerService
	ledger  *fakeLedger
	catalog *fakeCatalog
	events  *recordingPublisher
	cfg     *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		MinBookingDuration:       15 * time.Minute,
		MaxBookingDuration:       12 * time.Hour,
		RecurrenceMaxOccurrences: 52,
		LockWaitTimeout:          time.Second,
		VersionRetryLimit:        3,
		PendingTTL:               10 * time.Minute,
		Log: logger.New(logger.Config{
			Level:   logger.LevelError,
			Format:  logger.FormatText,
			Service: "test",
		}),
	}

	ledger := newFakeLedger()
	catalog := &fakeCatalog{resources: map[string]*model.Resource{
		testResourceID: {
			ID:       testResourceID,
			Name:     "Focus Room",
			Capacity: 4,
			Status:   model.ResourceActive,
			Windows: []model.OperatingWindow{
				{Start: "00:00", End: "23:59"},
			},
		},
	}}
	events := &recordingPublisher{}

	svc := NewSchedulerService(
		ledger,
		catalog,
		coordinator.New(cfg.LockWaitTimeout),
		validator.NewRequestValidator(cfg),
		events,
		cfg,
	)

	return &fixture{service: svc, ledger: ledger, catalog: catalog, events: events, cfg: cfg}
}

// futureSlot returns a one-hour interval on a day comfortably in the
// future, anchored mid-morning so offsets never cross midnight.
func futureSlot(hourOffset int) (time.Time, time.Time) {
	day := time.Now().UTC().Add(72 * time.Hour).Truncate(24 * time.Hour)
	start := day.Add(time.Duration(8+hourOffset) * time.Hour)
	return start, start.Add(time.Hour)
}

func request(requesterID string, start, end time.Time) *model.BookingRequest {
	return &model.BookingRequest{
		ResourceID:  testResourceID,
		RequesterID: requesterID,
		StartTime:   start,
		EndTime:     end,
	}
}

func TestSubmitConfirmsBooking(t *testing.T) {
	f := newFixture(t)
	start, end := futureSlot(0)

	bookings, err := f.service.Submit(context.Background(), request("user-1", start, end))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(bookings) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(bookings))
	}

	b := bookings[0]
	if b.Status != model.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", b.Status)
	}
	if b.Version != 2 {
		t.Errorf("expected version 2 after confirm, got %d", b.Version)
	}
	if f.events.count(EventBookingConfirmed) != 1 {
		t.Errorf("expected 1 confirmed event, got %d", f.events.count(EventBookingConfirmed))
	}
}

func TestSubmitOverlapRejectedWithConflictingID(t *testing.T) {
	f := newFixture(t)
	start, end := futureSlot(0)

	first, err := f.service.Submit(context.Background(), request("user-1", start, end))
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	_, err = f.service.Submit(context.Background(), request("user-2", start.Add(30*time.Minute), end.Add(30*time.Minute)))
	if err == nil {
		t.Fatal("expected conflict")
	}
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT code, got %v", err)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Details["conflicts_with"] != first[0].ID {
		t.Errorf("expected conflicts_with %s, got %v", first[0].ID, appErr.Details["conflicts_with"])
	}
}

func TestSubmitAdjacentBookingsDoNotConflict(t *testing.T) {
	f := newFixture(t)
	start, end := futureSlot(0)

	if _, err := f.service.Submit(context.Background(), request("user-1", start, end)); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	// [end, end+1h) touches the first booking's end; half-open intervals
	// make this legal.
	if _, err := f.service.Submit(context.Background(), request("user-2", end, end.Add(time.Hour))); err != nil {
		t.Errorf("adjacent booking should not conflict: %v", err)
	}
}

func TestSubmitConcurrentOverlapExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	start, end := futureSlot(0)

	const competitors = 10
	results := make(chan error, competitors)

	var wg sync.WaitGroup
	for i := 0; i < competitors; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.service.Submit(context.Background(), request(fmt.Sprintf("user-%d", n), start, end))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	wins, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case apperrors.HasCode(err, apperrors.CodeConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if wins != 1 {
		t.Errorf("expected exactly 1 winner, got %d", wins)
	}
	if conflicts != competitors-1 {
		t.Errorf("expected %d conflicts, got %d", competitors-1, conflicts)
	}
	if f.ledger.countByStatus(model.StatusConfirmed) != 1 {
		t.Errorf("expected exactly 1 confirmed booking in the ledger")
	}
}

func TestCancelFreesInterval(t *testing.T) {
	f := newFixture(t)
	start, end := futureSlot(0)

	bookings, err := f.service.Submit(context.Background(), request("user-1", start, end))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	cancelled, err := f.service.Cancel(context.Background(), bookings[0].ID, "user-1")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	if f.events.count(EventBookingCancelled) != 1 {
		t.Errorf("expected 1 cancelled event")
	}

	// The interval is free again.
	if _, err := f.service.Submit(context.Background(), request("user-2", start, end)); err != nil {
		t.Errorf("interval should be free after cancellation: %v", err)
	}
}

func TestCancelByNonRequesterForbidden(t *testing.T) {
	f := newFixture(t)
	start, end := futureSlot(0)

	bookings, err := f.service.Submit(context.Background(), request("user-1", start, end))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	_, err = f.service.Cancel(context.Background(), bookings[0].ID, "user-2")
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Errorf("expected FORBIDDEN, got %v", err)
	}
}

func TestCancelTwiceReportsAlreadyTerminal(t *testing.T) {
	f := newFixture(t)
	start, end := futureSlot(0)

	bookings, err := f.service.Submit(context.Background(), request("user-1", start, end))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := f.service.Cancel(context.Background(), bookings[0].ID, "user-1"); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}

	_, err = f.service.Cancel(context.Background(), bookings[0].ID, "user-1")
	if !apperrors.HasCode(err, apperrors.CodeAlreadyTerminal) {
		t.Errorf("expected ALREADY_TERMINAL, got %v", err)
	}
}

func TestCancelMissingBookingNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Cancel(context.Background(), "nope", "user-1")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestSubmitOutsideOperatingHours(t *testing.T) {
	f := newFixture(t)
	f.catalog.resources[testResourceID].Windows = []model.OperatingWindow{
		{Start: "09:00", End: "10:00"},
	}

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(24 * time.Hour).Add(12 * time.Hour)
	_, err := f.service.Submit(context.Background(), request("user-1", start, start.Add(time.Hour)))
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR for booking outside operating hours, got %v", err)
	}
}

func TestSubmitRetiredResourceNotFound(t *testing.T) {
	f := newFixture(t)
	f.catalog.resources[testResourceID].Status = model.ResourceRetired
	start, end := futureSlot(0)

	_, err := f.service.Submit(context.Background(), request("user-1", start, end))
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND for retired resource, got %v", err)
	}
}

func TestSubmitMalformedRequestInvalidInput(t *testing.T) {
	f := newFixture(t)
	start, end := futureSlot(0)

	req := request("user-1", start, end)
	req.ResourceID = "not-an-oid"

	_, err := f.service.Submit(context.Background(), req)
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestRecurrenceConfirmsAllOccurrences(t *testing.T) {
	f := newFixture(t)
	start, end := futureSlot(0)

	req := request("user-1", start, end)
	req.Recurrence = &model.RecurrenceRule{Frequency: model.FrequencyWeekly, Count: 3}

	bookings, err := f.service.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("recurring submit failed: %v", err)
	}
	if len(bookings) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(bookings))
	}

	groupID := bookings[0].GroupID
	if groupID == "" {
		t.Error("expected a group id on recurring bookings")
	}
	for i, b := range bookings {
		if b.GroupID != groupID {
			t.Errorf("occurrence %d has group %s, expected %s", i, b.GroupID, groupID)
		}
		if b.Status != model.StatusConfirmed {
			t.Errorf("occurrence %d not confirmed: %s", i, b.Status)
		}
		expectedStart := start.AddDate(0, 0, 7*i)
		if !b.StartTime.Equal(expectedStart) {
			t.Errorf("occurrence %d starts %v, expected %v", i, b.StartTime, expectedStart)
		}
	}
}

func TestRecurrenceAllOrNothingOnConflict(t *testing.T) {
	f := newFixture(t)
	start, end := futureSlot(0)

	// Occupy the second weekly occurrence.
	blocker := request("user-9", start.AddDate(0, 0, 7), end.AddDate(0, 0, 7))
	if _, err := f.service.Submit(context.Background(), blocker); err != nil {
		t.Fatalf("blocker submit failed: %v", err)
	}

	req := request("user-1", start, end)
	req.Recurrence = &model.RecurrenceRule{Frequency: model.FrequencyWeekly, Count: 3}

	_, err := f.service.Submit(context.Background(), req)
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}

	// Only the blocker occupies time; nothing from the failed series.
	if got := f.ledger.countByStatus(model.StatusConfirmed); got != 1 {
		t.Errorf("expected 1 confirmed booking, got %d", got)
	}
	if got := f.ledger.countByStatus(model.StatusPending); got != 0 {
		t.Errorf("expected no pending leftovers, got %d", got)
	}
}

func TestRecurrenceRollsBackStagedOnInsertFailure(t *testing.T) {
	f := newFixture(t)
	start, end := futureSlot(0)

	f.ledger.failInsertAt = 2

	req := request("user-1", start, end)
	req.Recurrence = &model.RecurrenceRule{Frequency: model.FrequencyDaily, Count: 3}

	_, err := f.service.Submit(context.Background(), req)
	if err == nil {
		t.Fatal("expected submit to fail")
	}

	if got := f.ledger.countByStatus(model.StatusCancelled); got != 1 {
		t.Errorf("expected staged booking rolled back to cancelled, got %d cancelled", got)
	}
	if got := f.ledger.countByStatus(model.StatusPending); got != 0 {
		t.Errorf("expected no pending leftovers, got %d", got)
	}
	if got := f.ledger.countByStatus(model.StatusConfirmed); got != 0 {
		t.Errorf("expected no confirmed bookings, got %d", got)
	}
}

func TestExpireStalePending(t *testing.T) {
	f := newFixture(t)
	start, end := futureSlot(0)

	stale := &model.Booking{
		ResourceID:  testResourceID,
		RequesterID: "user-1",
		StartTime:   start,
		EndTime:     end,
		Status:      model.StatusPending,
	}
	if err := f.ledger.Insert(context.Background(), stale); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	f.ledger.mu.Lock()
	f.ledger.bookings[stale.ID].CreatedAt = time.Now().UTC().Add(-time.Hour)
	f.ledger.mu.Unlock()

	fresh, err := f.service.Submit(context.Background(), request("user-2", start.Add(2*time.Hour), end.Add(2*time.Hour)))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	expired, err := f.service.ExpireStalePending(context.Background())
	if err != nil {
		t.Fatalf("expire sweep failed: %v", err)
	}
	if expired != 1 {
		t.Errorf("expected 1 expired booking, got %d", expired)
	}

	got, err := f.service.GetByID(context.Background(), stale.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != model.StatusExpired {
		t.Errorf("expected expired, got %s", got.Status)
	}

	untouched, err := f.service.GetByID(context.Background(), fresh[0].ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if untouched.Status != model.StatusConfirmed {
		t.Errorf("confirmed booking should not expire, got %s", untouched.Status)
	}
	if f.events.count(EventBookingExpired) != 1 {
		t.Errorf("expected 1 expired event")
	}
}

func TestGetAvailabilityWorkedExample(t *testing.T) {
	f := newFixture(t)
	f.catalog.resources[testResourceID].Windows = []model.OperatingWindow{
		{Start: "09:00", End: "17:00"},
	}

	day := time.Now().UTC().Add(48 * time.Hour).Truncate(24 * time.Hour)
	at := func(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

	if _, err := f.service.Submit(context.Background(), request("user-a", at(10), at(11))); err != nil {
		t.Fatalf("submit A failed: %v", err)
	}
	if _, err := f.service.Submit(context.Background(), request("user-c", at(11), at(12))); err != nil {
		t.Fatalf("submit C failed: %v", err)
	}

	snapshot, err := f.service.GetAvailability(context.Background(), testResourceID, model.NewInterval(at(9), at(13)))
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}

	if len(snapshot.Slots) != 4 {
		t.Fatalf("expected 4 slots, got %d: %+v", len(snapshot.Slots), snapshot.Slots)
	}
	wantStatuses := []string{model.SlotFree, model.SlotOccupied, model.SlotOccupied, model.SlotFree}
	for i, want := range wantStatuses {
		if snapshot.Slots[i].Status != want {
			t.Errorf("slot %d: expected %s, got %s", i, want, snapshot.Slots[i].Status)
		}
	}
	if !snapshot.IsFreeDuring(model.NewInterval(at(12), at(13))) {
		t.Error("expected 12:00-13:00 free")
	}
	if snapshot.IsFreeDuring(model.NewInterval(at(10), at(11))) {
		t.Error("expected 10:00-11:00 occupied")
	}
}

func TestListByRequester(t *testing.T) {
	f := newFixture(t)
	start, end := futureSlot(0)

	if _, err := f.service.Submit(context.Background(), request("user-1", start, end)); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := f.service.Submit(context.Background(), request("user-1", start.Add(2*time.Hour), end.Add(2*time.Hour))); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := f.service.Submit(context.Background(), request("user-2", start.Add(4*time.Hour), end.Add(4*time.Hour))); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	bookings, err := f.service.ListByRequester(context.Background(), "user-1", 10, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(bookings) != 2 {
		t.Errorf("expected 2 bookings for user-1, got %d", len(bookings))
	}
}
