package model

import (
	"testing"
	"time"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusExpired, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusExpired, false},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusExpired, StatusCancelled, false},
		{StatusExpired, StatusConfirmed, false},
	}

	for _, tt := range tests {
		b := &Booking{Status: tt.from}
		if got := b.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.want, got)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for status, want := range map[string]bool{
		StatusPending:   false,
		StatusConfirmed: false,
		StatusCancelled: true,
		StatusExpired:   true,
	} {
		b := &Booking{Status: status}
		if got := b.IsTerminal(); got != want {
			t.Errorf("%s: expected terminal=%v, got %v", status, want, got)
		}
	}
}

func TestIntervalOverlapsHalfOpen(t *testing.T) {
	base := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", NewInterval(at(0), at(60)), NewInterval(at(0), at(60)), true},
		{"partial overlap", NewInterval(at(0), at(60)), NewInterval(at(30), at(90)), true},
		{"containment", NewInterval(at(0), at(60)), NewInterval(at(15), at(45)), true},
		{"touching endpoints", NewInterval(at(0), at(60)), NewInterval(at(60), at(120)), false},
		{"disjoint", NewInterval(at(0), at(30)), NewInterval(at(60), at(90)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("symmetric case: expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestIntervalClip(t *testing.T) {
	base := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

	bounds := NewInterval(at(0), at(60))

	clipped := NewInterval(at(-30), at(90)).Clip(bounds)
	if !clipped.Start.Equal(at(0)) || !clipped.End.Equal(at(60)) {
		t.Errorf("expected clip to bounds, got [%v, %v)", clipped.Start, clipped.End)
	}

	outside := NewInterval(at(90), at(120)).Clip(bounds)
	if outside.IsValid() {
		t.Errorf("expected empty interval for disjoint clip, got [%v, %v)", outside.Start, outside.End)
	}
}
