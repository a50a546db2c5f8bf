package model

const (
	SlotFree     = "free"
	SlotOccupied = "occupied"
)

// Slot is one free or occupied sub-interval of an availability breakdown.
// Occupied slots carry the id of the booking holding them.
type Slot struct {
	Interval  `bson:",inline"`
	Status    string `json:"status" bson:"status"`
	BookingID string `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
}

// AvailabilitySnapshot is the derived free/occupied breakdown for a resource
// over a query window. It is recomputed on demand from the ledger and the
// catalog and never cached.
type AvailabilitySnapshot struct {
	ResourceID string   `json:"resource_id"`
	Window     Interval `json:"window"`
	Slots      []Slot   `json:"slots"`
}

// FreeSlots returns only the free sub-intervals of the snapshot.
func (s *AvailabilitySnapshot) FreeSlots() []Slot {
	var free []Slot
	for _, slot := range s.Slots {
		if slot.Status == SlotFree {
			free = append(free, slot)
		}
	}
	return free
}

// IsFreeDuring reports whether iv lies entirely within a single free slot.
func (s *AvailabilitySnapshot) IsFreeDuring(iv Interval) bool {
	for _, slot := range s.Slots {
		if slot.Status == SlotFree && slot.Contains(iv) {
			return true
		}
	}
	return false
}
