// Package store implements the persisted booking collection.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/LikkleOra/TrimTime/internal/events"
	"github.com/LikkleOra/TrimTime/internal/metrics"
	"github.com/LikkleOra/TrimTime/internal/models"
	"github.com/LikkleOra/TrimTime/internal/slots"
	"github.com/LikkleOra/TrimTime/internal/storage"
)

// ErrSlotTaken is returned by AddBooking when the conflict check finds the
// (date, time) pair already occupied at write time.
var ErrSlotTaken = errors.New("slot already booked")

// Store is the CRUD layer over the persisted booking collection. All
// mutations are whole-collection read-then-write; concurrent writers from
// separate contexts resolve last-write-wins, which is the accepted
// limitation for a single-operator tool.
type Store struct {
	port   storage.Port
	bus    *events.Bus
	logger *zerolog.Logger

	// mu serializes read-modify-write cycles inside this process.
	mu sync.Mutex

	conflictCheck bool
}

// Option configures a Store.
type Option func(*Store)

// WithConflictCheck toggles re-validation of slot occupancy inside
// AddBooking. Enabled by default; disabling restores the original
// best-effort, selection-time-only behavior.
func WithConflictCheck(enabled bool) Option {
	return func(s *Store) { s.conflictCheck = enabled }
}

// New builds a Store over the given port. Foreign writes observed through
// the port are republished on the bus so every view re-fetches.
func New(port storage.Port, bus *events.Bus, logger *zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		port:          port,
		bus:           bus,
		logger:        logger,
		conflictCheck: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	port.Subscribe(func() {
		s.logger.Debug().Msg("collection changed in another context")
		s.bus.Publish(events.Event{Type: events.TypeCollectionChanged})
	})
	return s
}

// GetBookings returns the persisted collection in stored order. Read or
// parse failures degrade to an empty collection; display order is the
// consumer's concern.
func (s *Store) GetBookings(ctx context.Context) []models.Booking {
	data, err := s.port.Read(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("read bookings failed, defaulting to empty")
		return []models.Booking{}
	}
	return decode(data, s.logger)
}

// AddBooking appends the record and persists the whole collection. The
// write error, if any, is surfaced so the caller can tell the user the
// booking was not saved.
func (s *Store) AddBooking(ctx context.Context, b models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings := s.GetBookings(ctx)

	if s.conflictCheck && slots.Occupied(bookings, b.Date, b.Time) {
		metrics.IncBookingConflict()
		return fmt.Errorf("%w: %s %s", ErrSlotTaken, b.Date, b.Time)
	}

	bookings = append(bookings, b)
	if err := s.persist(ctx, bookings); err != nil {
		return fmt.Errorf("add booking: %w", err)
	}

	metrics.IncBookingCreated()
	s.logger.Info().
		Str("id", b.ID).
		Str("service", b.ServiceID).
		Str("date", b.Date).
		Str("time", b.Time).
		Msg("booking added")

	if err := s.bus.PublishJSON(events.TypeBookingCreated, b); err != nil {
		s.logger.Debug().Err(err).Msg("publish booking created failed")
	}
	return nil
}

// DeleteBooking removes the first record with a matching id. A missing id
// is a no-op, not an error.
func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings := s.GetBookings(ctx)

	idx := -1
	for i := range bookings {
		if bookings[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	removed := bookings[idx]
	bookings = append(bookings[:idx], bookings[idx+1:]...)
	if err := s.persist(ctx, bookings); err != nil {
		return fmt.Errorf("delete booking %s: %w", id, err)
	}

	metrics.IncBookingDeleted()
	s.logger.Info().Str("id", id).Msg("booking deleted")

	if err := s.bus.PublishJSON(events.TypeBookingDeleted, removed); err != nil {
		s.logger.Debug().Err(err).Msg("publish booking deleted failed")
	}
	return nil
}

// OnChange registers fn to run after any mutation, local or foreign.
func (s *Store) OnChange(fn func()) {
	handler := func(events.Event) error {
		fn()
		return nil
	}
	s.bus.Subscribe(events.TypeBookingCreated, handler)
	s.bus.Subscribe(events.TypeBookingDeleted, handler)
	s.bus.Subscribe(events.TypeCollectionChanged, handler)
}

func (s *Store) persist(ctx context.Context, bookings []models.Booking) error {
	data, err := json.Marshal(bookings)
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	if err := s.port.Write(ctx, data); err != nil {
		return fmt.Errorf("persist collection: %w", err)
	}
	return nil
}

func decode(data []byte, logger *zerolog.Logger) []models.Booking {
	if len(data) == 0 {
		return []models.Booking{}
	}
	var bookings []models.Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		// Corrupted data reads as an empty collection, never a failure.
		logger.Warn().Err(err).Msg("corrupt booking collection, defaulting to empty")
		return []models.Booking{}
	}
	if bookings == nil {
		return []models.Booking{}
	}
	return bookings
}
