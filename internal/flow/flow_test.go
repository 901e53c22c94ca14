package flow

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LikkleOra/TrimTime/internal/config"
	"github.com/LikkleOra/TrimTime/internal/events"
	"github.com/LikkleOra/TrimTime/internal/handoff"
	"github.com/LikkleOra/TrimTime/internal/models"
	"github.com/LikkleOra/TrimTime/internal/storage"
	"github.com/LikkleOra/TrimTime/internal/store"
)

var testCatalog = &config.ServicesConfig{
	Services: []models.Service{
		{ID: "fade", Name: "Skin Fade", Price: 35, Duration: 45},
		{ID: "trim", Name: "Beard Trim & Shape", Price: 20, Duration: 20},
	},
}

var testHours = models.WorkingHours{Start: 9, End: 18, Interval: 30}

type captureDispatcher struct {
	summaries []handoff.Summary
}

func (c *captureDispatcher) Dispatch(_ context.Context, s handoff.Summary) error {
	c.summaries = append(c.summaries, s)
	return nil
}

func newTestFlow(t *testing.T) (*Flow, *store.Store, *captureDispatcher) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	st := store.New(storage.NewMemoryPort(), events.NewBus(), &logger)
	dispatcher := &captureDispatcher{}

	ids := 0
	f := New(Options{
		Catalog:    testCatalog,
		Hours:      testHours,
		BarberName: "Alex the Barber",
		Recipient:  "1234567890",
		Store:      st,
		Dispatcher: dispatcher,
		Logger:     &logger,
		Now:        func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) },
		NewID: func() string {
			ids++
			return string(rune('a' + ids - 1))
		},
	})
	return f, st, dispatcher
}

func TestInitialState(t *testing.T) {
	f, _, _ := newTestFlow(t)

	snap := f.Snapshot()
	assert.Equal(t, StateSelectingService, snap.State)
	assert.Nil(t, snap.Service)
	assert.Equal(t, "2024-06-01", snap.Date, "date defaults to today")
	assert.Empty(t, snap.Time)
	assert.False(t, snap.Editable)
}

func TestFullBookingScenario(t *testing.T) {
	f, st, dispatcher := newTestFlow(t)
	ctx := context.Background()

	require.NoError(t, f.SelectService("fade"))
	assert.Equal(t, StateSelectingTime, f.State())

	require.NoError(t, f.SelectTime(ctx, "09:30"))
	assert.Equal(t, StateEnteringDetails, f.State())

	require.NoError(t, f.SetDetails("Jane", "555-0100", ""))
	require.True(t, f.CanConfirm())

	booking, link, err := f.Confirm(ctx)
	require.NoError(t, err)

	assert.Equal(t, "fade", booking.ServiceID)
	assert.Equal(t, "2024-06-01", booking.Date)
	assert.Equal(t, "09:30", booking.Time)
	assert.Equal(t, "Jane", booking.CustomerName)
	assert.Equal(t, models.StatusConfirmed, booking.Status)
	assert.NotEmpty(t, booking.ID)
	assert.Contains(t, link, "https://wa.me/1234567890?text=")

	// Exactly one record appended.
	stored := st.GetBookings(ctx)
	require.Len(t, stored, 1)
	assert.Equal(t, booking, stored[0])

	// Handoff dispatched once.
	require.Len(t, dispatcher.summaries, 1)
	assert.Equal(t, "Jane", dispatcher.summaries[0].CustomerName)

	// Flow fully reset.
	snap := f.Snapshot()
	assert.Equal(t, StateSelectingService, snap.State)
	assert.Nil(t, snap.Service)
	assert.Empty(t, snap.Time)
	assert.Empty(t, snap.Name)
}

func TestConfirmBlockedOnMissingDetails(t *testing.T) {
	f, st, _ := newTestFlow(t)
	ctx := context.Background()

	require.NoError(t, f.SelectService("fade"))
	require.NoError(t, f.SelectTime(ctx, "10:00"))

	tests := []struct {
		name, phone string
	}{
		{"", ""},
		{"Jane", ""},
		{"", "555-0100"},
		{"   ", "555-0100"},
		{"Jane", "   "},
	}

	for _, tt := range tests {
		require.NoError(t, f.SetDetails(tt.name, tt.phone, ""))
		assert.False(t, f.CanConfirm())

		_, _, err := f.Confirm(ctx)
		assert.ErrorIs(t, err, ErrIncompleteDetails)
		assert.Equal(t, StateEnteringDetails, f.State(), "blocked confirm must not transition")
		assert.Empty(t, st.GetBookings(ctx), "blocked confirm must not create a booking")
	}
}

func TestConfirmTrimsNameAndPhone(t *testing.T) {
	f, _, _ := newTestFlow(t)
	ctx := context.Background()

	require.NoError(t, f.SelectService("trim"))
	require.NoError(t, f.SelectTime(ctx, "11:00"))
	require.NoError(t, f.SetDetails("  Jane  ", " 555-0100 ", "notes"))

	booking, _, err := f.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Jane", booking.CustomerName)
	assert.Equal(t, "555-0100", booking.CustomerPhone)
	assert.Equal(t, "notes", booking.Notes)
}

func TestSelectTimeRejectsOccupiedSlot(t *testing.T) {
	f, st, _ := newTestFlow(t)
	ctx := context.Background()

	require.NoError(t, st.AddBooking(ctx, models.Booking{
		ID: "x", ServiceID: "fade", Date: "2024-06-01", Time: "10:00",
		CustomerName: "Bob", CustomerPhone: "555", Status: models.StatusConfirmed,
	}))

	require.NoError(t, f.SelectService("fade"))

	err := f.SelectTime(ctx, "10:00")
	assert.ErrorIs(t, err, ErrSlotOccupied)
	assert.Equal(t, StateSelectingTime, f.State())

	require.NoError(t, f.SelectTime(ctx, "10:30"))
}

func TestSelectTimeRejectsUnknownSlot(t *testing.T) {
	f, _, _ := newTestFlow(t)
	ctx := context.Background()

	require.NoError(t, f.SelectService("fade"))

	assert.ErrorIs(t, f.SelectTime(ctx, "08:00"), ErrUnknownSlot)
	assert.ErrorIs(t, f.SelectTime(ctx, "10:15"), ErrUnknownSlot)
}

func TestShiftDateClearsTime(t *testing.T) {
	f, _, _ := newTestFlow(t)
	ctx := context.Background()

	require.NoError(t, f.SelectService("fade"))
	require.NoError(t, f.SelectTime(ctx, "09:30"))
	require.NoError(t, f.Back())

	require.NoError(t, f.ShiftDate(1))
	snap := f.Snapshot()
	assert.Equal(t, "2024-06-02", snap.Date)
	assert.Empty(t, snap.Time, "time selection does not carry across days")

	require.NoError(t, f.ShiftDate(-1))
	assert.Equal(t, "2024-06-01", f.Date())
}

func TestBackTransitions(t *testing.T) {
	f, _, _ := newTestFlow(t)
	ctx := context.Background()

	// Back is invalid at the initial step.
	assert.ErrorIs(t, f.Back(), ErrInvalidTransition)

	require.NoError(t, f.SelectService("fade"))
	require.NoError(t, f.SelectTime(ctx, "09:30"))

	// Details -> time selection preserves the slot and date.
	require.NoError(t, f.Back())
	snap := f.Snapshot()
	assert.Equal(t, StateSelectingTime, snap.State)
	assert.Equal(t, "09:30", snap.Time)
	assert.Equal(t, "2024-06-01", snap.Date)

	// Time selection -> service selection clears the service.
	require.NoError(t, f.Back())
	snap = f.Snapshot()
	assert.Equal(t, StateSelectingService, snap.State)
	assert.Nil(t, snap.Service)
}

func TestInvalidTransitions(t *testing.T) {
	f, _, _ := newTestFlow(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.SelectTime(ctx, "09:00"), ErrInvalidTransition)
	assert.ErrorIs(t, f.SetDetails("a", "b", ""), ErrInvalidTransition)
	assert.ErrorIs(t, f.ShiftDate(1), ErrInvalidTransition)

	_, _, err := f.Confirm(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.ErrorIs(t, f.SelectService("nope"), ErrUnknownService)
}

func TestConfirmSurfacesSlotRace(t *testing.T) {
	f, st, _ := newTestFlow(t)
	ctx := context.Background()

	require.NoError(t, f.SelectService("fade"))
	require.NoError(t, f.SelectTime(ctx, "10:00"))
	require.NoError(t, f.SetDetails("Jane", "555-0100", ""))

	// Another customer grabs the slot between selection and confirm.
	require.NoError(t, st.AddBooking(ctx, models.Booking{
		ID: "r", ServiceID: "trim", Date: "2024-06-01", Time: "10:00",
		CustomerName: "Bob", CustomerPhone: "555", Status: models.StatusConfirmed,
	}))

	_, _, err := f.Confirm(ctx)
	require.ErrorIs(t, err, store.ErrSlotTaken)

	// Flow stays put so the customer can go back and pick another slot.
	assert.Equal(t, StateEnteringDetails, f.State())
	assert.Len(t, st.GetBookings(ctx), 1)
}

func TestFlowSlotsGrid(t *testing.T) {
	f, st, _ := newTestFlow(t)
	ctx := context.Background()

	require.NoError(t, st.AddBooking(ctx, models.Booking{
		ID: "x", ServiceID: "fade", Date: "2024-06-01", Time: "09:00",
		CustomerName: "Bob", CustomerPhone: "555", Status: models.StatusConfirmed,
	}))

	grid := f.Slots(ctx)
	require.Len(t, grid, 18)
	assert.Equal(t, "09:00", grid[0].Time)
	assert.True(t, grid[0].Occupied)
	assert.Equal(t, "17:30", grid[17].Time)
	assert.False(t, grid[17].Occupied)
}

func TestSessions(t *testing.T) {
	logger := zerolog.New(io.Discard)
	st := store.New(storage.NewMemoryPort(), events.NewBus(), &logger)
	opts := Options{
		Catalog: testCatalog,
		Hours:   testHours,
		Store:   st,
		Logger:  &logger,
	}

	ss := NewSessions(opts, time.Minute)

	session := ss.Create()
	require.NotNil(t, session)
	assert.Equal(t, StateSelectingService, session.Flow.State())

	got := ss.Get(session.ID)
	require.NotNil(t, got)
	assert.Same(t, session, got)

	assert.Nil(t, ss.Get("unknown"))

	ss.Delete(session.ID)
	assert.Nil(t, ss.Get(session.ID))
}

func TestSessionsCleanup(t *testing.T) {
	logger := zerolog.New(io.Discard)
	st := store.New(storage.NewMemoryPort(), events.NewBus(), &logger)
	ss := NewSessions(Options{Catalog: testCatalog, Hours: testHours, Store: st, Logger: &logger}, 10*time.Millisecond)

	session := ss.Create()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, ss.Cleanup())
	assert.Nil(t, ss.Get(session.ID))
}
