// Package google mirrors the booking collection to a Google Sheet so the
// operator has an off-device copy of the schedule.
package google

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/LikkleOra/TrimTime/internal/events"
	"github.com/LikkleOra/TrimTime/internal/models"
)

const bookingsRange = "Bookings!A1"

var sheetHeader = []interface{}{"ID", "Service", "Date", "Time", "Customer", "Phone", "Notes", "Status", "Created"}

// BookingSource supplies the current collection; satisfied by the store.
type BookingSource interface {
	GetBookings(ctx context.Context) []models.Booking
}

// Mirror pushes the whole collection to a spreadsheet. Mirroring is
// whole-collection, matching the store's write granularity: every change
// rewrites the sheet.
type Mirror struct {
	svc           *sheets.Service
	spreadsheetID string
	logger        *zerolog.Logger
}

// NewMirror builds the Sheets client from a service-account credentials
// file.
func NewMirror(ctx context.Context, spreadsheetID, credentialsFile string, logger *zerolog.Logger) (*Mirror, error) {
	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.Info().Str("spreadsheet", spreadsheetID).Msg("sheets mirror ready")
	return &Mirror{svc: svc, spreadsheetID: spreadsheetID, logger: logger}, nil
}

// Sync replaces the sheet contents with the given collection.
func (m *Mirror) Sync(ctx context.Context, bookings []models.Booking) error {
	values := make([][]interface{}, 0, len(bookings)+1)
	values = append(values, sheetHeader)
	for i := range bookings {
		values = append(values, bookingRowValues(&bookings[i]))
	}

	clear := &sheets.ClearValuesRequest{}
	if _, err := m.svc.Spreadsheets.Values.Clear(m.spreadsheetID, "Bookings!A:I", clear).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	vr := &sheets.ValueRange{Values: values}
	_, err := m.svc.Spreadsheets.Values.
		Update(m.spreadsheetID, bookingsRange, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update sheet: %w", err)
	}
	return nil
}

// Bind re-syncs the sheet after every store mutation. Sync errors are
// logged, never propagated; the mirror is best-effort.
func (m *Mirror) Bind(bus *events.Bus, source BookingSource) {
	handler := func(events.Event) error {
		ctx := context.Background()
		if err := m.Sync(ctx, source.GetBookings(ctx)); err != nil {
			m.logger.Warn().Err(err).Msg("sheets sync failed")
		}
		return nil
	}
	bus.Subscribe(events.TypeBookingCreated, handler)
	bus.Subscribe(events.TypeBookingDeleted, handler)
	bus.Subscribe(events.TypeCollectionChanged, handler)
}

func bookingRowValues(b *models.Booking) []interface{} {
	return []interface{}{
		b.ID,
		b.ServiceID,
		b.Date,
		b.Time,
		b.CustomerName,
		b.CustomerPhone,
		b.Notes,
		b.Status,
		b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
