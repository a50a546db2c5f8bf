package availability

import (
	"testing"
	"time"

	"cospace/pkg/model"
)

func dayAt(hour, min int) time.Time {
	return time.Date(2026, 9, 7, hour, min, 0, 0, time.UTC) // a Monday
}

func weekdayResource() *model.Resource {
	return &model.Resource{
		ID:       "res-1",
		Name:     "Focus Room",
		Capacity: 4,
		Status:   model.ResourceActive,
		Windows: []model.OperatingWindow{
			{Days: []string{"monday", "tuesday", "wednesday", "thursday", "friday"}, Start: "09:00", End: "17:00"},
		},
	}
}

func confirmed(id string, start, end time.Time) *model.Booking {
	return &model.Booking{
		ID:         id,
		ResourceID: "res-1",
		StartTime:  start,
		EndTime:    end,
		Status:     model.StatusConfirmed,
	}
}

func TestComputeAlternatesFreeAndOccupied(t *testing.T) {
	resource := weekdayResource()
	window := model.NewInterval(dayAt(9, 0), dayAt(13, 0))
	bookings := []*model.Booking{
		confirmed("a", dayAt(10, 0), dayAt(11, 0)),
		confirmed("c", dayAt(11, 0), dayAt(12, 0)),
	}

	snapshot := Compute(resource, window, bookings)

	expected := []model.Slot{
		{Interval: model.NewInterval(dayAt(9, 0), dayAt(10, 0)), Status: model.SlotFree},
		{Interval: model.NewInterval(dayAt(10, 0), dayAt(11, 0)), Status: model.SlotOccupied, BookingID: "a"},
		{Interval: model.NewInterval(dayAt(11, 0), dayAt(12, 0)), Status: model.SlotOccupied, BookingID: "c"},
		{Interval: model.NewInterval(dayAt(12, 0), dayAt(13, 0)), Status: model.SlotFree},
	}

	if len(snapshot.Slots) != len(expected) {
		t.Fatalf("expected %d slots, got %d: %+v", len(expected), len(snapshot.Slots), snapshot.Slots)
	}
	for i, want := range expected {
		got := snapshot.Slots[i]
		if !got.Start.Equal(want.Start) || !got.End.Equal(want.End) {
			t.Errorf("slot %d: expected [%v, %v), got [%v, %v)", i, want.Start, want.End, got.Start, got.End)
		}
		if got.Status != want.Status {
			t.Errorf("slot %d: expected status %s, got %s", i, want.Status, got.Status)
		}
		if got.BookingID != want.BookingID {
			t.Errorf("slot %d: expected booking %q, got %q", i, want.BookingID, got.BookingID)
		}
	}
}

func TestComputeClipsToOperatingHours(t *testing.T) {
	resource := weekdayResource()
	window := model.NewInterval(dayAt(7, 0), dayAt(19, 0))

	snapshot := Compute(resource, window, nil)

	if len(snapshot.Slots) != 1 {
		t.Fatalf("expected 1 slot, got %d: %+v", len(snapshot.Slots), snapshot.Slots)
	}
	slot := snapshot.Slots[0]
	if !slot.Start.Equal(dayAt(9, 0)) || !slot.End.Equal(dayAt(17, 0)) {
		t.Errorf("expected slot clipped to [09:00, 17:00), got [%v, %v)", slot.Start, slot.End)
	}
	if slot.Status != model.SlotFree {
		t.Errorf("expected free slot, got %s", slot.Status)
	}
}

func TestComputeIgnoresTerminalBookings(t *testing.T) {
	resource := weekdayResource()
	window := model.NewInterval(dayAt(9, 0), dayAt(12, 0))
	cancelled := confirmed("x", dayAt(10, 0), dayAt(11, 0))
	cancelled.Status = model.StatusCancelled
	expired := confirmed("y", dayAt(11, 0), dayAt(12, 0))
	expired.Status = model.StatusExpired

	snapshot := Compute(resource, window, []*model.Booking{cancelled, expired})

	if len(snapshot.Slots) != 1 {
		t.Fatalf("expected 1 slot, got %d: %+v", len(snapshot.Slots), snapshot.Slots)
	}
	if snapshot.Slots[0].Status != model.SlotFree {
		t.Errorf("expected free slot, got %s", snapshot.Slots[0].Status)
	}
}

func TestComputeIncludesPendingBookings(t *testing.T) {
	resource := weekdayResource()
	window := model.NewInterval(dayAt(9, 0), dayAt(12, 0))
	pending := confirmed("p", dayAt(10, 0), dayAt(11, 0))
	pending.Status = model.StatusPending

	snapshot := Compute(resource, window, []*model.Booking{pending})

	if !snapshot.IsFreeDuring(model.NewInterval(dayAt(9, 0), dayAt(10, 0))) {
		t.Error("expected 09:00-10:00 to be free")
	}
	if snapshot.IsFreeDuring(model.NewInterval(dayAt(10, 0), dayAt(11, 0))) {
		t.Error("expected 10:00-11:00 to be occupied by the pending booking")
	}
}

func TestComputeClipsBookingSpillingPastWindow(t *testing.T) {
	resource := weekdayResource()
	window := model.NewInterval(dayAt(9, 0), dayAt(11, 0))
	spill := confirmed("s", dayAt(10, 30), dayAt(12, 0))

	snapshot := Compute(resource, window, []*model.Booking{spill})

	if len(snapshot.Slots) != 2 {
		t.Fatalf("expected 2 slots, got %d: %+v", len(snapshot.Slots), snapshot.Slots)
	}
	occupied := snapshot.Slots[1]
	if !occupied.End.Equal(dayAt(11, 0)) {
		t.Errorf("expected occupied slot clipped to window end, got %v", occupied.End)
	}
}

func TestComputeEmptyForInvalidWindow(t *testing.T) {
	resource := weekdayResource()
	window := model.NewInterval(dayAt(13, 0), dayAt(9, 0))

	snapshot := Compute(resource, window, nil)

	if len(snapshot.Slots) != 0 {
		t.Errorf("expected no slots for inverted window, got %d", len(snapshot.Slots))
	}
}

func TestComputeSpansMultipleDays(t *testing.T) {
	resource := weekdayResource()
	monday := dayAt(9, 0)
	tuesday := monday.AddDate(0, 0, 1)
	window := model.NewInterval(monday, tuesday.Add(8*time.Hour))

	snapshot := Compute(resource, window, nil)

	if len(snapshot.Slots) != 2 {
		t.Fatalf("expected one free slot per open day, got %d: %+v", len(snapshot.Slots), snapshot.Slots)
	}
	if !snapshot.Slots[1].Start.Equal(tuesday) {
		t.Errorf("expected second slot to start tuesday 09:00, got %v", snapshot.Slots[1].Start)
	}
}
