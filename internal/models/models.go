// Package models defines the core data types shared across the service.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Booking statuses.
const (
	StatusConfirmed = "confirmed"
)

// DateLayout is the calendar-date format used throughout the service.
const DateLayout = "2006-01-02"

// TimeLayout is the slot-label format ("09:30").
const TimeLayout = "15:04"

// Service is a static catalog entry. Loaded once at startup, never mutated.
type Service struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Price       float64 `yaml:"price" json:"price"`
	Duration    int     `yaml:"duration_minutes" json:"duration_minutes"`
	Description string  `yaml:"description" json:"description"`
}

// Booking represents a confirmed appointment.
type Booking struct {
	ID            string    `json:"id"`
	ServiceID     string    `json:"service_id"`
	Date          string    `json:"date"` // YYYY-MM-DD
	Time          string    `json:"time"` // HH:MM slot label
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	Notes         string    `json:"notes,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Matches reports whether the booking occupies the given date and slot.
func (b *Booking) Matches(date, slot string) bool {
	return b.Date == date && b.Time == slot
}

// IsToday reports whether the booking is dated today in the given location.
func (b *Booking) IsToday(now time.Time) bool {
	return b.Date == now.Format(DateLayout)
}

// WorkingHours describes the bookable window of a day.
type WorkingHours struct {
	Start    int `yaml:"start" json:"start"`       // opening hour, 0-23
	End      int `yaml:"end" json:"end"`           // closing hour, exclusive
	Interval int `yaml:"interval" json:"interval"` // slot length in minutes
}

// Validate checks the working-hours invariants: start < end, interval > 0.
// An interval that does not divide 60 is accepted; the generator simply
// emits whatever slots fit inside each hour.
func (w WorkingHours) Validate() error {
	if w.Start < 0 || w.Start > 23 {
		return fmt.Errorf("working hours: start %d out of range", w.Start)
	}
	if w.End < 1 || w.End > 24 {
		return fmt.Errorf("working hours: end %d out of range", w.End)
	}
	if w.Start >= w.End {
		return fmt.Errorf("working hours: start %d must be before end %d", w.Start, w.End)
	}
	if w.Interval <= 0 {
		return fmt.Errorf("working hours: interval must be positive, got %d", w.Interval)
	}
	return nil
}

// SlotCount returns the number of labels Generate will produce.
func (w WorkingHours) SlotCount() int {
	perHour := 60 / w.Interval
	if 60%w.Interval != 0 {
		perHour++
	}
	return (w.End - w.Start) * perHour
}

// ViewType is the closed set of UI view modes.
type ViewType int

const (
	ViewCustomer ViewType = iota
	ViewOperator
)

// String returns the wire name of the view.
func (v ViewType) String() string {
	switch v {
	case ViewCustomer:
		return "customer"
	case ViewOperator:
		return "operator"
	default:
		return fmt.Sprintf("ViewType(%d)", int(v))
	}
}

// ParseViewType maps a wire name back to a ViewType.
func ParseViewType(s string) (ViewType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer":
		return ViewCustomer, nil
	case "operator", "barber":
		return ViewOperator, nil
	default:
		return ViewCustomer, fmt.Errorf("unknown view type %q", s)
	}
}
