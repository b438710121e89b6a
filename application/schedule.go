package application

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/srishtipnt/Parabot/domain"
)

const fireTimeFormat = "Mon, 02 Jan 2006, 03:04 PM"

type settings struct {
	now         func() time.Time
	loc         *time.Location
	prefix      string
	fireTimeout time.Duration
}

type Option func(*settings)

// WithClock replaces time.Now as the reference time for new reminders.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithLocation sets the zone fire times are shown in.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithCommandPrefix(prefix string) Option {
	return func(s *settings) { s.prefix = prefix }
}

// WithFireTimeout bounds the transport and store calls of one fulfillment.
func WithFireTimeout(d time.Duration) Option {
	return func(s *settings) { s.fireTimeout = d }
}

func newSettings(opts []Option) settings {
	s := settings{
		now:         time.Now,
		loc:         time.UTC,
		prefix:      ".",
		fireTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) formatTime(t time.Time) string {
	return t.In(s.loc).Format(fireTimeFormat)
}

// parseRequest splits a reminder body into its task text and the absolute
// fire time, rejecting anything that cannot be armed.
func parseRequest(resolver TimeResolver, body string, now time.Time) (string, time.Time, error) {
	res, err := resolver.Resolve(body, now)
	if err != nil {
		log.Warn().Err(err).Str("body", body).Msg("time resolver failed")
		return "", time.Time{}, domain.ErrTimeNotUnderstood
	}
	if res == nil || res.Index < 0 || res.Index > len(body) {
		return "", time.Time{}, domain.ErrTimeNotUnderstood
	}

	task := strings.TrimSpace(body[:res.Index])
	if task == "" {
		return "", time.Time{}, domain.ErrNoTask
	}
	if !res.At.After(now) {
		return "", time.Time{}, domain.ErrNotInFuture
	}
	if res.At.Sub(now) > domain.MaxDelay {
		return "", time.Time{}, domain.ErrTooFarAhead
	}
	return task, res.At, nil
}
