package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"village/internal/models"
	"village/internal/schedule"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

var testYear = models.SchoolYear{ID: 7, Name: "2024-25", StartDate: date(2024, 9, 2), EndDate: date(2025, 6, 13)}

func TestProgressFor(t *testing.T) {
	course := models.Course{ID: 3, Name: "Math", TotalLessons: 100, CurrentLesson: 8}
	today := date(2024, 9, 13) // Friday of the second week

	tests := []struct {
		name         string
		breaks       []models.SchoolBreak
		wantExpected int
		wantStatus   schedule.Status
		wantDiff     int
		wantDays     int
	}{
		{name: "no breaks", wantExpected: 10, wantStatus: schedule.StatusBehind, wantDiff: 2, wantDays: 10},
		{
			name:         "second week off",
			breaks:       []models.SchoolBreak{{StartDate: date(2024, 9, 9), EndDate: date(2024, 9, 13)}},
			wantExpected: 5,
			wantStatus:   schedule.StatusAhead,
			wantDiff:     3,
			wantDays:     5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := progressFor(course, testYear, tt.breaks, today)
			assert.Equal(t, tt.wantExpected, p.ExpectedLesson)
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.wantDiff, p.Diff)
			assert.Equal(t, tt.wantDays, p.SchoolDaysToDate)
			assert.Equal(t, int64(7), p.SchoolYearID)
			assert.False(t, p.Completed)
			assert.InDelta(t, 7.0, p.PercentComplete, 0.001)
			require.NotNil(t, p.ProjectedFinish)
			assert.True(t, p.FinishesInYear)
		})
	}

	t.Run("next lesson date", func(t *testing.T) {
		p := progressFor(course, testYear, nil, today)
		require.NotNil(t, p.NextLessonDate)
		assert.Equal(t, date(2024, 9, 11), *p.NextLessonDate)
	})

	t.Run("completed course has no next lesson", func(t *testing.T) {
		done := course
		done.CurrentLesson = 101
		last := date(2024, 9, 12)
		done.LastLessonDate = &last
		p := progressFor(done, testYear, nil, today)
		assert.True(t, p.Completed)
		assert.Nil(t, p.NextLessonDate)
		require.NotNil(t, p.ProjectedFinish)
		assert.Equal(t, last, *p.ProjectedFinish)
	})

	t.Run("before the year starts", func(t *testing.T) {
		p := progressFor(course, testYear, nil, date(2024, 8, 20))
		assert.Equal(t, 1, p.ExpectedLesson)
		assert.Equal(t, 0, p.SchoolDaysToDate)
	})
}

func TestSummarizeAttendance(t *testing.T) {
	records := []models.Attendance{
		{Date: date(2024, 9, 9), Status: models.AttendanceExcused},
		{Date: date(2024, 9, 10), Status: models.AttendanceAbsent},
		{Date: date(2024, 9, 11), Status: models.AttendancePresent, Hours: 4},
		{Date: date(2024, 9, 12), Status: models.AttendanceHalfDay, Hours: 2},
		{Date: date(2024, 9, 13), Status: models.AttendancePresent, Hours: 4.5},
	}

	s := summarizeAttendance(42, records, date(2024, 9, 13))
	assert.Equal(t, int64(42), s.ChildID)
	assert.Equal(t, 5, s.DaysRecorded)
	assert.Equal(t, 3, s.DaysAttended)
	assert.Equal(t, 1, s.DaysAbsent)
	assert.Equal(t, 1, s.DaysExcused)
	assert.InDelta(t, 10.5, s.TotalHours, 0.001)
	assert.Equal(t, 3, s.CurrentStreak)
	assert.Equal(t, 3, s.LongestStreak)

	empty := summarizeAttendance(42, nil, date(2024, 9, 13))
	assert.Zero(t, empty.DaysRecorded)
	assert.Zero(t, empty.CurrentStreak)
}

func TestReadingTotals(t *testing.T) {
	logs := []models.ReadingLog{
		{Date: date(2024, 9, 13), Minutes: 30, Pages: 20, Finished: true},
		{Date: date(2024, 9, 12), Minutes: 15, Pages: 10},
		{Date: date(2024, 9, 12), Minutes: 10, Pages: 5},
		{Date: date(2024, 9, 5), Minutes: 20, Pages: 12, Finished: true},
	}

	totals := readingTotals(1, logs, date(2024, 9, 14))
	assert.Equal(t, 4, totals.Sessions)
	assert.Equal(t, 75, totals.Minutes)
	assert.Equal(t, 47, totals.Pages)
	assert.Equal(t, 2, totals.BooksFinished)
	assert.Equal(t, 2, totals.CurrentStreak, "a run ending yesterday still counts")
	assert.Equal(t, 2, totals.LongestStreak)
}

func TestGradesByCourse(t *testing.T) {
	graded := func(courseID int64, score, max float64) models.Assignment {
		return models.Assignment{CourseID: ptr(courseID), Status: models.AssignmentGraded, Score: ptr(score), MaxScore: max}
	}
	assignments := []models.Assignment{
		graded(1, 90, 100),
		graded(1, 40, 50),
		graded(2, 97, 100),
		{CourseID: ptr(int64(2)), Status: models.AssignmentPending, MaxScore: 100},
		{Status: models.AssignmentGraded, Score: ptr(10.0), MaxScore: 100},
	}

	grades := gradesByCourse(assignments)
	require.Len(t, grades, 2)
	assert.Equal(t, CourseGrade{CourseID: 1, Graded: 2, Percent: 85, Letter: "B"}, grades[1])
	assert.Equal(t, CourseGrade{CourseID: 2, Graded: 1, Percent: 97, Letter: "A+"}, grades[2])
}

func TestBuildTranscript(t *testing.T) {
	years := []models.SchoolYear{
		{ID: 2, Name: "2024-25", StartDate: date(2024, 9, 2), EndDate: date(2025, 6, 13)},
		{ID: 1, Name: "2023-24", StartDate: date(2023, 9, 1), EndDate: date(2024, 6, 1)},
	}
	courses := []models.Course{
		{ID: 10, Name: "Algebra", TotalLessons: 10, CurrentLesson: 11, Credits: 1, StartDate: ptr(date(2023, 9, 5))},
		{ID: 11, Name: "Biology", TotalLessons: 10, CurrentLesson: 4, Credits: 0.5, StartDate: ptr(date(2024, 9, 3))},
		{ID: 12, Name: "Art", TotalLessons: 10, CurrentLesson: 11, Credits: 1, CreatedAt: date(2022, 1, 1)},
	}
	grades := map[int64]CourseGrade{
		10: {CourseID: 10, Graded: 3, Percent: 85, Letter: "B"},
		11: {CourseID: 11, Graded: 1, Percent: 97, Letter: "A+"},
	}

	tr := buildTranscript(models.Child{ID: 5, Name: "Robin"}, courses, grades, years)
	require.Len(t, tr.Years, 3)

	require.NotNil(t, tr.Years[0].SchoolYear)
	assert.Equal(t, int64(1), tr.Years[0].SchoolYear.ID)
	require.Len(t, tr.Years[0].Courses, 1)
	assert.Equal(t, "B", tr.Years[0].Courses[0].Letter)
	assert.Equal(t, 3.0, tr.Years[0].Courses[0].Points)
	assert.Equal(t, 3.0, tr.Years[0].GPA)
	assert.Equal(t, 1.0, tr.Years[0].CreditsEarned)

	require.NotNil(t, tr.Years[1].SchoolYear)
	assert.Equal(t, int64(2), tr.Years[1].SchoolYear.ID)
	assert.Equal(t, 4.0, tr.Years[1].GPA)
	assert.Zero(t, tr.Years[1].CreditsEarned, "unfinished course earns no credit")

	assert.Nil(t, tr.Years[2].SchoolYear)
	assert.False(t, tr.Years[2].Courses[0].Graded)
	assert.Zero(t, tr.Years[2].GPA)

	assert.Equal(t, 3.33, tr.CumulativeGPA)
	assert.Equal(t, 2.0, tr.TotalCredits)
}
