// Package availability derives free/occupied breakdowns for a resource
// over a query window. The computation is pure: callers fetch the
// resource calendar and the relevant bookings, and the index turns them
// into an ordered slot list.
package availability

import (
	"sort"

	"cospace/pkg/model"
)

// Compute builds the availability snapshot for resource over window.
// Only bookings that hold their interval (pending or confirmed) should
// be passed in; cancelled and expired ones never occupy time.
//
// Slots cover exactly the open portions of the window: time outside the
// resource's operating hours yields no slot at all. Occupied slots are
// clipped to the window and carry the holding booking's id.
func Compute(resource *model.Resource, window model.Interval, bookings []*model.Booking) *model.AvailabilitySnapshot {
	snapshot := &model.AvailabilitySnapshot{
		ResourceID: resource.ID,
		Window:     window,
	}

	if !window.IsValid() {
		return snapshot
	}

	occupied := make([]*model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status != model.StatusPending && b.Status != model.StatusConfirmed {
			continue
		}
		if clipped := b.Interval().Clip(window); clipped.IsValid() {
			occupied = append(occupied, b)
		}
	}
	sort.Slice(occupied, func(i, j int) bool {
		if !occupied[i].StartTime.Equal(occupied[j].StartTime) {
			return occupied[i].StartTime.Before(occupied[j].StartTime)
		}
		return occupied[i].ID < occupied[j].ID
	})

	for _, open := range resource.OpenIntervals(window) {
		snapshot.Slots = append(snapshot.Slots, sweep(open, occupied)...)
	}

	return snapshot
}

// sweep walks one open interval against the sorted bookings, emitting
// alternating free and occupied slots.
func sweep(open model.Interval, occupied []*model.Booking) []model.Slot {
	var slots []model.Slot
	cursor := open.Start

	for _, b := range occupied {
		clipped := b.Interval().Clip(open)
		if !clipped.IsValid() {
			continue
		}
		if clipped.Start.After(cursor) {
			slots = append(slots, model.Slot{
				Interval: model.Interval{Start: cursor, End: clipped.Start},
				Status:   model.SlotFree,
			})
		}
		slotStart := cursor
		if clipped.Start.After(cursor) {
			slotStart = clipped.Start
		}
		slotEnd := clipped.End
		if !slotEnd.After(slotStart) {
			// Fully shadowed by an earlier booking.
			continue
		}
		slots = append(slots, model.Slot{
			Interval:  model.Interval{Start: slotStart, End: slotEnd},
			Status:    model.SlotOccupied,
			BookingID: b.ID,
		})
		cursor = slotEnd
	}

	if cursor.Before(open.End) {
		slots = append(slots, model.Slot{
			Interval: model.Interval{Start: cursor, End: open.End},
			Status:   model.SlotFree,
		})
	}

	return slots
}
