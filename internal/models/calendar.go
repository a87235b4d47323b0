package models

import "time"

// SchoolYear is the date range a family schedules lessons in
type SchoolYear struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
}

// Contains reports whether day falls inside the school year, inclusive
func (y *SchoolYear) Contains(day time.Time) bool {
	d := CivilDate(day)
	return !d.Before(CivilDate(y.StartDate)) && !d.After(CivilDate(y.EndDate))
}

// SchoolBreak is a closed date interval with no lessons
type SchoolBreak struct {
	ID           int64     `json:"id"`
	SchoolYearID int64     `json:"school_year_id"`
	Name         string    `json:"name"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
}

// Covers reports whether day falls inside the break, inclusive
func (b *SchoolBreak) Covers(day time.Time) bool {
	d := CivilDate(day)
	return !d.Before(CivilDate(b.StartDate)) && !d.After(CivilDate(b.EndDate))
}

// DateLayout is the wire and storage format for calendar dates
const DateLayout = "2006-01-02"

// CivilDate drops the time of day and zone, keeping the calendar date as
// seen in t's own location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
