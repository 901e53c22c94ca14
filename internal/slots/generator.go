// Package slots produces bookable time labels and answers occupancy queries.
package slots

import (
	"fmt"

	"github.com/LikkleOra/TrimTime/internal/models"
)

// Generate returns every slot label for a day, ascending.
//
// For each hour in [Start, End) it emits HH:MM labels stepping Interval
// minutes within the hour. When Interval does not divide 60 the last slot
// of an hour is whatever remainder fits before the next hour; this is the
// chosen policy, not an error.
func Generate(wh models.WorkingHours) []string {
	out := make([]string, 0, wh.SlotCount())
	for hour := wh.Start; hour < wh.End; hour++ {
		for min := 0; min < 60; min += wh.Interval {
			out = append(out, fmt.Sprintf("%02d:%02d", hour, min))
		}
	}
	return out
}

// Occupied reports whether a booking already claims the given date and slot.
// Any stored record counts, regardless of its status field.
func Occupied(bookings []models.Booking, date, slot string) bool {
	for i := range bookings {
		if bookings[i].Matches(date, slot) {
			return true
		}
	}
	return false
}

// Slot pairs a label with its occupancy for a given date, for callers that
// render a full day grid.
type Slot struct {
	Time     string `json:"time"`
	Occupied bool   `json:"occupied"`
}

// DayGrid returns the full slot grid for a date with occupancy flags.
func DayGrid(wh models.WorkingHours, bookings []models.Booking, date string) []Slot {
	labels := Generate(wh)
	grid := make([]Slot, len(labels))
	for i, label := range labels {
		grid[i] = Slot{Time: label, Occupied: Occupied(bookings, date, label)}
	}
	return grid
}
