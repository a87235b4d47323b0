package service

import (
	"time"

	"village/internal/models"
)

// Clock decides what "today" is for schedules and streaks
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a clock in loc. A nil loc means time.Local.
func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc, now: time.Now}
}

// FixedClock always reports the given instant
func FixedClock(t time.Time) *Clock {
	return &Clock{loc: t.Location(), now: func() time.Time { return t }}
}

// Now returns the current instant
func (c *Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c.now()
}

// Today returns the current calendar date in the clock's location
func (c *Clock) Today() time.Time {
	if c == nil {
		return models.CivilDate(time.Now())
	}
	return models.CivilDate(c.now().In(c.loc))
}
