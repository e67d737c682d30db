package booking

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidWindow = errors.New("start time must be before end time")
	ErrWindowInPast  = errors.New("start time cannot be in the past")
)

// TimeWindow is a half-open interval [start, end). A booking ending
// exactly when another starts does not conflict.
type TimeWindow struct {
	start time.Time
	end   time.Time
}

func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if !start.Before(end) {
		return TimeWindow{}, ErrInvalidWindow
	}
	return TimeWindow{start: start, end: end}, nil
}

func (w TimeWindow) Start() time.Time {
	return w.start
}

func (w TimeWindow) End() time.Time {
	return w.end
}

func (w TimeWindow) Duration() time.Duration {
	return w.end.Sub(w.start)
}

// Overlaps implements half-open semantics: [s1,e1) and [s2,e2)
// conflict iff s1 < e2 && s2 < e1.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.start.Before(other.end) && other.start.Before(w.end)
}

// HasStarted reports whether the window start has passed, the pivot
// for refund entitlement.
func (w TimeWindow) HasStarted(now time.Time) bool {
	return !now.Before(w.start)
}

func (w TimeWindow) ValidateNotInPast(now time.Time) error {
	if w.start.Before(now) {
		return ErrWindowInPast
	}
	return nil
}

func (w TimeWindow) ToTstzrange() string {
	return fmt.Sprintf("[%s,%s)", w.start.Format(time.RFC3339), w.end.Format(time.RFC3339))
}

type Money struct {
	cents    int64
	currency string
}

func NewMoney(cents int64, currency string) (Money, error) {
	if cents < 0 {
		return Money{}, errors.New("money cannot be negative")
	}
	if currency == "" {
		return Money{}, errors.New("currency is required")
	}
	return Money{cents: cents, currency: currency}, nil
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) Currency() string {
	return m.currency
}

func (m Money) IsZero() bool {
	return m.cents == 0
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.cents/100, m.cents%100, m.currency)
}
