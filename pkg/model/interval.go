package model

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start" bson:"start"`
	End   time.Time `json:"end" bson:"end"`
}

func NewInterval(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

func (iv Interval) IsValid() bool {
	return iv.End.After(iv.Start)
}

// Overlaps uses half-open comparison: touching endpoints do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

func (iv Interval) Contains(other Interval) bool {
	return !other.Start.Before(iv.Start) && !other.End.After(iv.End)
}

// Clip returns the portion of iv inside bounds, or an empty interval when
// they do not overlap.
func (iv Interval) Clip(bounds Interval) Interval {
	start := iv.Start
	if start.Before(bounds.Start) {
		start = bounds.Start
	}
	end := iv.End
	if end.After(bounds.End) {
		end = bounds.End
	}
	if !end.After(start) {
		return Interval{}
	}
	return Interval{Start: start, End: end}
}
