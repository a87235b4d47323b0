package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"village/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testYear() models.SchoolYear {
	return models.SchoolYear{
		ID:        1,
		StartDate: date(2024, 9, 2), // Monday
		EndDate:   date(2025, 6, 2),
	}
}

func TestExpectedLessonWorkedExample(t *testing.T) {
	course := models.Course{
		TotalLessons:  180,
		CurrentLesson: 10,
		ActiveDays:    []string{"Mon", "Wed", "Fri"},
	}

	got := ExpectedLesson(course, testYear(), nil, date(2024, 9, 16))

	assert.Equal(t, Progress{ExpectedLesson: 7, Status: StatusAhead, Diff: 3}, got)
}

func TestExpectedLessonBeforeYearStarts(t *testing.T) {
	course := models.Course{TotalLessons: 180, CurrentLesson: 5}

	got := ExpectedLesson(course, testYear(), nil, date(2024, 8, 30))

	assert.Equal(t, Progress{ExpectedLesson: 1, Status: StatusOnTrack, Diff: 0}, got)
}

func TestExpectedLessonCountsWeekdaysByDefault(t *testing.T) {
	year := testYear()

	tests := []struct {
		name  string
		today time.Time
		want  int
	}{
		{name: "first day", today: date(2024, 9, 2), want: 1},
		{name: "first friday", today: date(2024, 9, 6), want: 5},
		{name: "weekend adds nothing", today: date(2024, 9, 8), want: 5},
		{name: "two weeks", today: date(2024, 9, 13), want: 10},
		{name: "late evening same day", today: time.Date(2024, 9, 13, 23, 59, 0, 0, time.UTC), want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			course := models.Course{TotalLessons: 180, CurrentLesson: 1}
			got := ExpectedLesson(course, year, nil, tt.today)
			assert.Equal(t, tt.want, got.ExpectedLesson)
		})
	}
}

func TestExpectedLessonSkipsBreaks(t *testing.T) {
	year := testYear()
	breaks := []models.SchoolBreak{
		{Name: "Fall break", StartDate: date(2024, 9, 9), EndDate: date(2024, 9, 13)},
	}
	course := models.Course{TotalLessons: 180, CurrentLesson: 6}

	got := ExpectedLesson(course, year, breaks, date(2024, 9, 16))

	// Sep 2-6 plus Sep 16; the week of the 9th is a break.
	assert.Equal(t, Progress{ExpectedLesson: 6, Status: StatusOnTrack}, got)
}

func TestExpectedLessonSaturatesAndStopsAtYearEnd(t *testing.T) {
	year := models.SchoolYear{StartDate: date(2024, 9, 2), EndDate: date(2024, 9, 6)}
	course := models.Course{TotalLessons: 3, CurrentLesson: 1}

	got := ExpectedLesson(course, year, nil, date(2024, 12, 1))
	assert.Equal(t, Progress{ExpectedLesson: 3, Status: StatusBehind, Diff: 2}, got)

	course.TotalLessons = 100
	got = ExpectedLesson(course, year, nil, date(2024, 12, 1))
	assert.Equal(t, 5, got.ExpectedLesson, "days after the year ends are not counted")
}

func TestExpectedLessonProperties(t *testing.T) {
	year := testYear()
	breaks := []models.SchoolBreak{
		{StartDate: date(2024, 11, 25), EndDate: date(2024, 11, 29)},
		{StartDate: date(2024, 12, 23), EndDate: date(2025, 1, 3)},
	}
	course := models.Course{TotalLessons: 90, CurrentLesson: 40, ActiveDays: []string{"Mon", "Tue", "Thu"}}

	prev := 0
	for d := date(2024, 8, 25); d.Before(date(2025, 7, 1)); d = d.AddDate(0, 0, 1) {
		p := ExpectedLesson(course, year, breaks, d)
		if d.Before(year.StartDate) {
			require.Equal(t, Progress{ExpectedLesson: 1, Status: StatusOnTrack}, p, "before the year starts on %s", d.Format(models.DateLayout))
			prev = p.ExpectedLesson
			continue
		}

		require.GreaterOrEqual(t, p.ExpectedLesson, prev, "expected lesson decreased on %s", d.Format(models.DateLayout))
		require.LessOrEqual(t, p.ExpectedLesson, course.TotalLessons)
		require.GreaterOrEqual(t, p.Diff, 0)
		require.Equal(t, p.Status == StatusOnTrack, course.CurrentLesson == p.ExpectedLesson)
		prev = p.ExpectedLesson
	}
	assert.Equal(t, course.TotalLessons, prev)
}

func TestBreakDaysNeverCount(t *testing.T) {
	weekdays := NewWeekdaySet(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday)
	breaks := []models.SchoolBreak{{StartDate: date(2024, 10, 1), EndDate: date(2024, 10, 10)}}

	assert.Equal(t, 0, SchoolDaysBetween(date(2024, 10, 1), date(2024, 10, 10), weekdays, breaks))
	assert.Equal(t, 2, SchoolDaysBetween(date(2024, 9, 30), date(2024, 10, 11), weekdays, breaks))
	assert.Equal(t, 0, SchoolDaysBetween(date(2024, 10, 11), date(2024, 10, 1), weekdays, nil))

	overlapping := append(breaks, models.SchoolBreak{StartDate: date(2024, 10, 5), EndDate: date(2024, 10, 12)})
	assert.Equal(t, 2, SchoolDaysBetween(date(2024, 9, 30), date(2024, 10, 13), weekdays, overlapping))
}

func TestIsSchoolDay(t *testing.T) {
	year := testYear()
	breaks := []models.SchoolBreak{{StartDate: date(2024, 12, 23), EndDate: date(2025, 1, 3)}}

	assert.True(t, IsSchoolDay(date(2024, 9, 2), DefaultActiveDays, year, breaks))
	assert.False(t, IsSchoolDay(date(2024, 9, 7), DefaultActiveDays, year, breaks), "saturday")
	assert.False(t, IsSchoolDay(date(2024, 12, 23), DefaultActiveDays, year, breaks), "break")
	assert.False(t, IsSchoolDay(date(2025, 6, 3), DefaultActiveDays, year, breaks), "after year end")
}

func TestLessonDate(t *testing.T) {
	course := models.Course{TotalLessons: 180, CurrentLesson: 1, ActiveDays: []string{"Mon", "Wed", "Fri"}}
	year := testYear()

	d, ok := LessonDate(course, year, nil, 7)
	require.True(t, ok)
	assert.Equal(t, date(2024, 9, 16), d)

	_, ok = LessonDate(course, year, nil, 0)
	assert.False(t, ok)

	// Mon/Wed/Fri gives fewer than 180 lesson days in this year.
	_, ok = LessonDate(course, year, nil, 180)
	assert.False(t, ok)
}

func TestProjectedFinish(t *testing.T) {
	year := testYear()
	course := models.Course{TotalLessons: 12, CurrentLesson: 10}

	// Lessons 10, 11 and 12 remain: Tue 17th, Wed 18th, Thu 19th.
	d, ok := ProjectedFinish(course, year, nil, date(2024, 9, 16))
	require.True(t, ok)
	assert.Equal(t, date(2024, 9, 19), d)

	breaks := []models.SchoolBreak{{StartDate: date(2024, 9, 17), EndDate: date(2024, 9, 18)}}
	d, ok = ProjectedFinish(course, year, breaks, date(2024, 9, 16))
	require.True(t, ok)
	assert.Equal(t, date(2024, 9, 23), d)

	late := models.Course{TotalLessons: 50, CurrentLesson: 1}
	d, ok = ProjectedFinish(late, year, nil, date(2025, 5, 30))
	assert.False(t, ok, "finish falls after the school year")
	assert.True(t, d.After(year.EndDate))

	done := models.Course{TotalLessons: 5, CurrentLesson: 6}
	d, ok = ProjectedFinish(done, year, nil, date(2024, 10, 1))
	require.True(t, ok)
	assert.Equal(t, date(2024, 10, 1), d)
}
