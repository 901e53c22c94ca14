// Package handoff builds the booking summary message and dispatches it to
// the external messaging channel. Dispatch is one-way: no response is
// consumed, nothing is retried.
package handoff

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/LikkleOra/TrimTime/internal/metrics"
	"github.com/LikkleOra/TrimTime/internal/models"
)

// Summary carries everything the outbound message needs.
type Summary struct {
	BarberName   string
	Service      models.Service
	Date         string
	Time         string
	Notes        string
	CustomerName string
}

// FormatMessage renders the human-readable handoff text.
func FormatMessage(s Summary) string {
	notes := strings.TrimSpace(s.Notes)
	if notes == "" {
		notes = "None"
	}
	return fmt.Sprintf(`Hi %s! I'd like to book a %s on %s at %s.
Notes: %s.
My name is %s.
Looking forward to it!`,
		s.BarberName,
		s.Service.Name,
		s.Date,
		s.Time,
		notes,
		s.CustomerName,
	)
}

// Link builds the outbound messaging URL for a fixed recipient.
func Link(recipient, message string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", recipient, url.QueryEscape(message))
}

// Dispatcher delivers a formatted summary to an external channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, s Summary) error
}

// LinkDispatcher constructs the messaging link and records it; opening the
// link is the whole integration, so there is nothing to await.
type LinkDispatcher struct {
	recipient string
	logger    *zerolog.Logger
}

// NewLinkDispatcher creates a dispatcher for the configured recipient.
func NewLinkDispatcher(recipient string, logger *zerolog.Logger) *LinkDispatcher {
	return &LinkDispatcher{recipient: recipient, logger: logger}
}

func (d *LinkDispatcher) Dispatch(_ context.Context, s Summary) error {
	link := Link(d.recipient, FormatMessage(s))
	d.logger.Info().
		Str("customer", s.CustomerName).
		Str("date", s.Date).
		Str("time", s.Time).
		Str("link", link).
		Msg("handoff link ready")
	metrics.IncHandoffDispatched("link")
	return nil
}

// Multi fans a summary out to several channels. Failures are independent;
// the first error is returned after all dispatchers ran.
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, s Summary) error {
	var first error
	for _, d := range m {
		if err := d.Dispatch(ctx, s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// limited wraps a dispatcher with a token-bucket rate limit so a burst of
// confirmations cannot flood the outbound channel.
type limited struct {
	inner   Dispatcher
	limiter *rate.Limiter
}

// WithRateLimit caps dispatches at r per second with the given burst.
func WithRateLimit(d Dispatcher, r rate.Limit, burst int) Dispatcher {
	return &limited{inner: d, limiter: rate.NewLimiter(r, burst)}
}

func (l *limited) Dispatch(ctx context.Context, s Summary) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	return l.inner.Dispatch(ctx, s)
}
