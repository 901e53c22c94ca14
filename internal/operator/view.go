// Package operator provides the barber-facing read model over the booking
// store: today's lineup plus deletion.
package operator

import (
	"context"
	"sort"
	"time"

	"github.com/LikkleOra/TrimTime/internal/config"
	"github.com/LikkleOra/TrimTime/internal/models"
	"github.com/LikkleOra/TrimTime/internal/store"
)

// Entry is one row of the operator listing.
type Entry struct {
	Booking     models.Booking `json:"booking"`
	ServiceName string         `json:"service_name"`
}

// Projection is the operator view's render model: the full collection
// sorted by time label, plus the badge count of today's bookings.
type Projection struct {
	TodayCount int     `json:"today_count"`
	Entries    []Entry `json:"entries"`
}

// View projects the booking store for the operator.
type View struct {
	store   *store.Store
	catalog *config.ServicesConfig
	now     func() time.Time
}

// New creates the operator view. now defaults to time.Now.
func New(st *store.Store, catalog *config.ServicesConfig, now func() time.Time) *View {
	if now == nil {
		now = time.Now
	}
	return &View{store: st, catalog: catalog, now: now}
}

// Project builds the current listing. Sorting by the zero-padded HH:MM
// label is lexicographic and therefore chronological.
func (v *View) Project(ctx context.Context) Projection {
	bookings := v.store.GetBookings(ctx)
	now := v.now()

	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].Time < bookings[j].Time
	})

	proj := Projection{Entries: make([]Entry, 0, len(bookings))}
	for _, b := range bookings {
		if b.IsToday(now) {
			proj.TodayCount++
		}
		name := ""
		if svc := v.catalog.ByID(b.ServiceID); svc != nil {
			name = svc.Name
		}
		proj.Entries = append(proj.Entries, Entry{Booking: b, ServiceName: name})
	}
	return proj
}

// Delete removes a booking; the store notifies every view to refresh.
func (v *View) Delete(ctx context.Context, id string) error {
	return v.store.DeleteBooking(ctx, id)
}
