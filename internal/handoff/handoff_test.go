package handoff

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/LikkleOra/TrimTime/internal/models"
)

var fadeService = models.Service{
	ID:       "fade",
	Name:     "Skin Fade",
	Price:    35,
	Duration: 45,
}

func TestFormatMessage(t *testing.T) {
	msg := FormatMessage(Summary{
		BarberName:   "Alex the Barber",
		Service:      fadeService,
		Date:         "2024-06-01",
		Time:         "09:30",
		Notes:        "reference image attached",
		CustomerName: "Jane",
	})

	assert.Contains(t, msg, "Hi Alex the Barber!")
	assert.Contains(t, msg, "book a Skin Fade on 2024-06-01 at 09:30")
	assert.Contains(t, msg, "Notes: reference image attached.")
	assert.Contains(t, msg, "My name is Jane.")
}

func TestFormatMessageEmptyNotes(t *testing.T) {
	for _, notes := range []string{"", "   "} {
		msg := FormatMessage(Summary{
			BarberName:   "Alex",
			Service:      fadeService,
			Date:         "2024-06-01",
			Time:         "09:30",
			Notes:        notes,
			CustomerName: "Jane",
		})
		assert.Contains(t, msg, "Notes: None.")
	}
}

func TestLink(t *testing.T) {
	link := Link("1234567890", "hello there & welcome")

	require.True(t, strings.HasPrefix(link, "https://wa.me/1234567890?text="))

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "hello there & welcome", u.Query().Get("text"))
}

func TestLinkDispatcher(t *testing.T) {
	logger := zerolog.New(io.Discard)
	d := NewLinkDispatcher("1234567890", &logger)

	err := d.Dispatch(context.Background(), Summary{
		BarberName:   "Alex",
		Service:      fadeService,
		Date:         "2024-06-01",
		Time:         "09:30",
		CustomerName: "Jane",
	})
	assert.NoError(t, err)
}

type recordingDispatcher struct {
	calls []Summary
	err   error
}

func (r *recordingDispatcher) Dispatch(_ context.Context, s Summary) error {
	r.calls = append(r.calls, s)
	return r.err
}

func TestMultiDispatchesAll(t *testing.T) {
	a := &recordingDispatcher{}
	b := &recordingDispatcher{err: assert.AnError}
	c := &recordingDispatcher{}

	err := Multi{a, b, c}.Dispatch(context.Background(), Summary{CustomerName: "Jane"})

	assert.ErrorIs(t, err, assert.AnError)
	assert.Len(t, a.calls, 1)
	assert.Len(t, b.calls, 1)
	assert.Len(t, c.calls, 1, "a failing channel must not block the others")
}

func TestWithRateLimit(t *testing.T) {
	inner := &recordingDispatcher{}
	d := WithRateLimit(inner, rate.Inf, 1)

	require.NoError(t, d.Dispatch(context.Background(), Summary{}))
	require.NoError(t, d.Dispatch(context.Background(), Summary{}))
	assert.Len(t, inner.calls, 2)
}

func TestWithRateLimitHonorsContext(t *testing.T) {
	inner := &recordingDispatcher{}
	// One token, no refill: the second dispatch must block until cancel.
	d := WithRateLimit(inner, rate.Limit(0.0001), 1)

	require.NoError(t, d.Dispatch(context.Background(), Summary{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Dispatch(ctx, Summary{})
	assert.Error(t, err)
	assert.Len(t, inner.calls, 1)
}
