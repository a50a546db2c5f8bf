package model

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	ResourceActive  = "active"
	ResourceRetired = "retired"
)

// Resource is a bookable entity (room, desk, slot) with an operating
// calendar. Retired resources reject new bookings but keep their history.
type Resource struct {
	ID        string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name      string            `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Capacity  int               `json:"capacity" bson:"capacity" validate:"required,min=1,max=500"`
	Status    string            `json:"status" bson:"status" validate:"required,oneof=active retired"`
	Windows   []OperatingWindow `json:"operating_windows" bson:"operating_windows" validate:"required,min=1,dive"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
}

// OperatingWindow is a recurring or one-off open interval on a resource's
// calendar. Either Days (recurring) or Date (one-off) is set; both empty
// means the window applies every day. Start and End are times of day in
// HH:MM, and windows of one resource never overlap.
type OperatingWindow struct {
	Days  []string `json:"days,omitempty" bson:"days,omitempty" validate:"omitempty,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	Date  string   `json:"date,omitempty" bson:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Start string   `json:"start" bson:"start" validate:"required,datetime=15:04"`
	End   string   `json:"end" bson:"end" validate:"required,datetime=15:04"`
}

// AppliesOn reports whether the window is open at some point on the
// calendar day containing day.
func (w OperatingWindow) AppliesOn(day time.Time) bool {
	if w.Date != "" {
		return day.Format("2006-01-02") == w.Date
	}
	if len(w.Days) == 0 {
		return true
	}
	weekday := strings.ToLower(day.Weekday().String())
	for _, d := range w.Days {
		if d == weekday {
			return true
		}
	}
	return false
}

// ClockMinutes converts an HH:MM string to minutes since midnight. Inputs
// are validated on write; malformed values yield -1.
func ClockMinutes(clock string) int {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return -1
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return -1
	}
	return h*60 + m
}

// OpenIntervals expands the resource's operating windows into the concrete
// open intervals intersecting bounds, merged and sorted ascending.
func (r *Resource) OpenIntervals(bounds Interval) []Interval {
	if !bounds.IsValid() {
		return nil
	}

	var open []Interval
	day := time.Date(bounds.Start.Year(), bounds.Start.Month(), bounds.Start.Day(), 0, 0, 0, 0, bounds.Start.Location())
	for !day.After(bounds.End) {
		for _, w := range r.Windows {
			if !w.AppliesOn(day) {
				continue
			}
			startMin := ClockMinutes(w.Start)
			endMin := ClockMinutes(w.End)
			if startMin < 0 || endMin <= startMin {
				continue
			}
			iv := Interval{
				Start: day.Add(time.Duration(startMin) * time.Minute),
				End:   day.Add(time.Duration(endMin) * time.Minute),
			}
			if clipped := iv.Clip(bounds); clipped.IsValid() {
				open = append(open, clipped)
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	return mergeIntervals(open)
}

// IsOpenDuring reports whether iv lies entirely within the resource's
// operating hours.
func (r *Resource) IsOpenDuring(iv Interval) bool {
	if !iv.IsValid() {
		return false
	}
	for _, open := range r.OpenIntervals(iv) {
		if open.Contains(iv) {
			return true
		}
	}
	return false
}

func mergeIntervals(intervals []Interval) []Interval {
	if len(intervals) < 2 {
		return intervals
	}
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})

	merged := intervals[:1]
	for _, iv := range intervals[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
