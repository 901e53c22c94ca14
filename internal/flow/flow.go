// Package flow drives the customer-facing booking dialog from service
// choice through confirmation.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/LikkleOra/TrimTime/internal/config"
	"github.com/LikkleOra/TrimTime/internal/handoff"
	"github.com/LikkleOra/TrimTime/internal/models"
	"github.com/LikkleOra/TrimTime/internal/slots"
	"github.com/LikkleOra/TrimTime/internal/store"
)

// State represents the current step of the booking dialog.
type State string

const (
	StateSelectingService State = "selecting_service"
	StateSelectingTime    State = "selecting_time"
	StateEnteringDetails  State = "entering_details"
)

var (
	ErrInvalidTransition = errors.New("action not allowed in current state")
	ErrUnknownService    = errors.New("unknown service")
	ErrUnknownSlot       = errors.New("slot outside working hours")
	ErrSlotOccupied      = errors.New("slot already occupied")
	ErrIncompleteDetails = errors.New("name and phone are required")
)

// FSM holds the allowed state transitions.
type FSM struct {
	transitions map[State][]State
}

// NewFSM creates the FSM with the booking dialog's transitions.
func NewFSM() *FSM {
	return &FSM{
		transitions: map[State][]State{
			StateSelectingService: {StateSelectingTime},
			StateSelectingTime:    {StateEnteringDetails, StateSelectingService},
			// Confirmation resets straight to the initial state.
			StateEnteringDetails: {StateSelectingTime, StateSelectingService},
		},
	}
}

// CanTransition checks if the transition is allowed.
func (f *FSM) CanTransition(from, to State) bool {
	for _, s := range f.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Options carries the static collaborators of a Flow.
type Options struct {
	Catalog    *config.ServicesConfig
	Hours      models.WorkingHours
	BarberName string
	Recipient  string
	Store      *store.Store
	Dispatcher handoff.Dispatcher
	Logger     *zerolog.Logger

	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// Flow is one customer's booking dialog. Initial state: selecting a
// service, date defaulting to today, every field empty.
type Flow struct {
	opts Options
	fsm  *FSM

	mu       sync.Mutex
	state    State
	service  *models.Service
	date     time.Time
	timeSlot string
	name     string
	phone    string
	notes    string
}

// New creates a flow in its initial state.
func New(opts Options) *Flow {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	f := &Flow{opts: opts, fsm: NewFSM()}
	f.resetLocked()
	return f
}

// resetLocked returns the flow to its initial state. Callers hold f.mu
// (or own the flow exclusively, as in New).
func (f *Flow) resetLocked() {
	f.state = StateSelectingService
	f.service = nil
	f.date = f.opts.Now()
	f.timeSlot = ""
	f.name = ""
	f.phone = ""
	f.notes = ""
}

// State returns the current dialog state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Date returns the currently selected calendar date as YYYY-MM-DD.
func (f *Flow) Date() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.date.Format(models.DateLayout)
}

// SelectService stores the chosen service and advances to time selection.
func (f *Flow) SelectService(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.fsm.CanTransition(f.state, StateSelectingTime) {
		return fmt.Errorf("%w: select service in %s", ErrInvalidTransition, f.state)
	}

	svc := f.opts.Catalog.ByID(id)
	if svc == nil {
		return fmt.Errorf("%w: %q", ErrUnknownService, id)
	}

	f.service = svc
	f.state = StateSelectingTime
	return nil
}

// ShiftDate moves the selected date by the given number of days and clears
// any selected time; a selection never carries across days.
func (f *Flow) ShiftDate(days int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateSelectingTime {
		return fmt.Errorf("%w: shift date in %s", ErrInvalidTransition, f.state)
	}

	f.date = f.date.AddDate(0, 0, days)
	f.timeSlot = ""
	return nil
}

// Slots returns the day grid for the selected date with occupancy flags.
func (f *Flow) Slots(ctx context.Context) []slots.Slot {
	f.mu.Lock()
	date := f.date.Format(models.DateLayout)
	f.mu.Unlock()

	return slots.DayGrid(f.opts.Hours, f.opts.Store.GetBookings(ctx), date)
}

// SelectTime stores the chosen slot and advances to detail entry. The slot
// must exist in the working-hours grid and be unoccupied at selection
// time; that check is best-effort and can race with other writers.
func (f *Flow) SelectTime(ctx context.Context, slot string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.fsm.CanTransition(f.state, StateEnteringDetails) {
		return fmt.Errorf("%w: select time in %s", ErrInvalidTransition, f.state)
	}

	valid := false
	for _, label := range slots.Generate(f.opts.Hours) {
		if label == slot {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}

	date := f.date.Format(models.DateLayout)
	if slots.Occupied(f.opts.Store.GetBookings(ctx), date, slot) {
		return fmt.Errorf("%w: %s %s", ErrSlotOccupied, date, slot)
	}

	f.timeSlot = slot
	f.state = StateEnteringDetails
	return nil
}

// SetDetails updates the mutable detail fields.
func (f *Flow) SetDetails(name, phone, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateEnteringDetails {
		return fmt.Errorf("%w: enter details in %s", ErrInvalidTransition, f.state)
	}
	f.name = name
	f.phone = phone
	f.notes = notes
	return nil
}

// Back navigates one step backwards. From time selection the service
// choice is cleared; from detail entry the selected time and date are
// preserved.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateSelectingTime:
		f.service = nil
		f.state = StateSelectingService
		return nil
	case StateEnteringDetails:
		f.state = StateSelectingTime
		return nil
	default:
		return fmt.Errorf("%w: back in %s", ErrInvalidTransition, f.state)
	}
}

// CanConfirm reports whether the confirm control should be enabled: name
// and phone non-empty after trimming.
func (f *Flow) CanConfirm() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == StateEnteringDetails &&
		strings.TrimSpace(f.name) != "" &&
		strings.TrimSpace(f.phone) != ""
}

// Confirm finalizes the booking: persists it, dispatches the handoff
// summary fire-and-forget, and resets the flow to its initial state. The
// handoff link is returned so a UI can open it.
func (f *Flow) Confirm(ctx context.Context) (models.Booking, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateEnteringDetails {
		return models.Booking{}, "", fmt.Errorf("%w: confirm in %s", ErrInvalidTransition, f.state)
	}

	name := strings.TrimSpace(f.name)
	phone := strings.TrimSpace(f.phone)
	if name == "" || phone == "" {
		return models.Booking{}, "", ErrIncompleteDetails
	}

	booking := models.Booking{
		ID:            f.opts.NewID(),
		ServiceID:     f.service.ID,
		Date:          f.date.Format(models.DateLayout),
		Time:          f.timeSlot,
		CustomerName:  name,
		CustomerPhone: phone,
		Notes:         f.notes,
		Status:        models.StatusConfirmed,
		CreatedAt:     f.opts.Now(),
	}

	if err := f.opts.Store.AddBooking(ctx, booking); err != nil {
		// The flow stays where it is so the customer can pick another slot.
		return models.Booking{}, "", err
	}

	summary := handoff.Summary{
		BarberName:   f.opts.BarberName,
		Service:      *f.service,
		Date:         booking.Date,
		Time:         booking.Time,
		Notes:        booking.Notes,
		CustomerName: booking.CustomerName,
	}
	link := handoff.Link(f.opts.Recipient, handoff.FormatMessage(summary))

	if f.opts.Dispatcher != nil {
		// Fire-and-forget: delivery is outside this system's control.
		if err := f.opts.Dispatcher.Dispatch(ctx, summary); err != nil {
			f.opts.Logger.Warn().Err(err).Msg("handoff dispatch failed")
		}
	}

	f.resetLocked()
	return booking, link, nil
}

// Snapshot is a read-only view of the dialog for rendering.
type Snapshot struct {
	State    State           `json:"state"`
	Service  *models.Service `json:"service,omitempty"`
	Date     string          `json:"date"`
	Time     string          `json:"time,omitempty"`
	Name     string          `json:"name,omitempty"`
	Phone    string          `json:"phone,omitempty"`
	Notes    string          `json:"notes,omitempty"`
	Editable bool            `json:"can_confirm"`
}

// Snapshot returns the current dialog state for rendering.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	snap := Snapshot{
		State:   f.state,
		Service: f.service,
		Date:    f.date.Format(models.DateLayout),
		Time:    f.timeSlot,
		Name:    f.name,
		Phone:   f.phone,
		Notes:   f.notes,
	}
	f.mu.Unlock()
	snap.Editable = f.CanConfirm()
	return snap
}
