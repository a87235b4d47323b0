// Package schedule maps a course's lesson progress onto the school calendar.
//
// Every date is compared as a civil day: the time of day and zone are
// dropped before comparing, so a lesson logged late in the evening still
// lands on the day it was logged.
package schedule

import (
	"time"

	"village/internal/models"
)

// Status classifies a course against its expected lesson
type Status string

const (
	StatusAhead   Status = "ahead"
	StatusBehind  Status = "behind"
	StatusOnTrack Status = "on-track"
)

// Progress is the result of comparing a course with the calendar.
// Diff is the absolute distance between current and expected lesson.
type Progress struct {
	ExpectedLesson int    `json:"expected_lesson"`
	Status         Status `json:"status"`
	Diff           int    `json:"diff"`
}

// maxProjectionDays bounds ProjectedFinish when breaks cover every remaining day
const maxProjectionDays = 10 * 366

// ExpectedLesson returns the lesson the course should be on by today.
//
// Each active weekday from the start of the school year up to today (or the
// end of the year, whichever comes first) that is not inside a break counts
// as one lesson. The count is capped at the course's total lessons.
func ExpectedLesson(course models.Course, year models.SchoolYear, breaks []models.SchoolBreak, today time.Time) Progress {
	start := models.CivilDate(year.StartDate)
	day := models.CivilDate(today)

	if day.Before(start) {
		return Progress{ExpectedLesson: 1, Status: StatusOnTrack}
	}

	end := models.CivilDate(year.EndDate)
	if day.Before(end) {
		end = day
	}

	expected := SchoolDaysBetween(start, end, ResolveActiveDays(course.ActiveDays), breaks)
	if expected > course.TotalLessons {
		expected = course.TotalLessons
	}

	diff := course.CurrentLesson - expected
	p := Progress{ExpectedLesson: expected, Status: StatusOnTrack}
	switch {
	case diff > 0:
		p.Status = StatusAhead
		p.Diff = diff
	case diff < 0:
		p.Status = StatusBehind
		p.Diff = -diff
	}
	return p
}

// IsSchoolDay reports whether day is inside the school year, on an active
// weekday and outside every break.
func IsSchoolDay(day time.Time, weekdays WeekdaySet, year models.SchoolYear, breaks []models.SchoolBreak) bool {
	if !year.Contains(day) {
		return false
	}
	return isLessonDay(models.CivilDate(day), weekdays, breaks)
}

// SchoolDaysBetween counts lesson days in [from, to], inclusive.
// It returns 0 when from is after to.
func SchoolDaysBetween(from, to time.Time, weekdays WeekdaySet, breaks []models.SchoolBreak) int {
	from, to = models.CivilDate(from), models.CivilDate(to)
	count := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if isLessonDay(d, weekdays, breaks) {
			count++
		}
	}
	return count
}

// LessonDate returns the day on which lesson n is scheduled, i.e. the n-th
// lesson day of the school year. The second result is false when n is out of
// range or the lesson would fall after the year ends.
func LessonDate(course models.Course, year models.SchoolYear, breaks []models.SchoolBreak, lesson int) (time.Time, bool) {
	if lesson < 1 || lesson > course.TotalLessons {
		return time.Time{}, false
	}

	weekdays := ResolveActiveDays(course.ActiveDays)
	end := models.CivilDate(year.EndDate)
	count := 0
	for d := models.CivilDate(year.StartDate); !d.After(end); d = d.AddDate(0, 0, 1) {
		if !isLessonDay(d, weekdays, breaks) {
			continue
		}
		count++
		if count == lesson {
			return d, true
		}
	}
	return time.Time{}, false
}

// ProjectedFinish returns the day the last lesson would be done if one lesson
// is completed on every lesson day after today. The current lesson counts as
// still to do. The second result reports whether that day is inside the
// school year; a finish beyond the year is still projected using the same
// weekdays and breaks.
func ProjectedFinish(course models.Course, year models.SchoolYear, breaks []models.SchoolBreak, today time.Time) (time.Time, bool) {
	day := models.CivilDate(today)
	remaining := course.TotalLessons - course.CurrentLesson + 1
	if remaining <= 0 {
		if course.LastLessonDate != nil {
			return models.CivilDate(*course.LastLessonDate), true
		}
		return day, year.Contains(day)
	}

	d := day.AddDate(0, 0, 1)
	if start := models.CivilDate(year.StartDate); d.Before(start) {
		d = start
	}

	weekdays := ResolveActiveDays(course.ActiveDays)
	for i := 0; i < maxProjectionDays; i, d = i+1, d.AddDate(0, 0, 1) {
		if !isLessonDay(d, weekdays, breaks) {
			continue
		}
		remaining--
		if remaining == 0 {
			return d, year.Contains(d)
		}
	}
	return time.Time{}, false
}

func isLessonDay(day time.Time, weekdays WeekdaySet, breaks []models.SchoolBreak) bool {
	if !weekdays.Has(day.Weekday()) {
		return false
	}
	for i := range breaks {
		if breaks[i].Covers(day) {
			return false
		}
	}
	return true
}
