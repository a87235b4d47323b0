package service

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"village/internal/database"
	"village/internal/models"
	"village/internal/repository"
	"village/internal/security"
	"village/internal/storage"
	"village/internal/validation"
)

// testNow is a Friday in the second week of the test school year
var testNow = time.Date(2024, 9, 13, 15, 0, 0, 0, time.UTC)

type testEnv struct {
	db  *database.DB
	svc *Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	dir := t.TempDir()
	db, err := database.Initialize(filepath.Join(dir, "service_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := storage.NewLocalStore(filepath.Join(dir, "uploads"), "/files")
	require.NoError(t, err)

	svc := New(db, Options{
		Tokens:        security.NewTokenIssuer("test-secret", time.Hour),
		Store:         store,
		Clock:         FixedClock(testNow),
		MaxUploadSize: 1024,
	})
	return &testEnv{db: db, svc: svc}
}

func (e *testEnv) registerParent(t *testing.T, email, name string) (*models.User, *models.Family) {
	t.Helper()
	user, err := e.svc.Auth.Register(context.Background(), RegisterInput{Email: email, Password: "password123", Name: name})
	require.NoError(t, err)
	family, err := e.svc.Families.PrimaryFamily(user.ID)
	require.NoError(t, err)
	require.NotNil(t, family)
	return user, family
}

func (e *testEnv) addChild(t *testing.T, userID, familyID int64, name string) *models.Child {
	t.Helper()
	child, err := e.svc.Families.CreateChild(userID, familyID, ChildInput{Name: name, GradeLevel: "5th"})
	require.NoError(t, err)
	return child
}

func (e *testEnv) addSchoolYear(t *testing.T, userID, familyID int64) *models.SchoolYear {
	t.Helper()
	year, err := e.svc.Calendar.CreateSchoolYear(userID, familyID, SchoolYearInput{
		Name:      "2024-25",
		StartDate: date(2024, 9, 2),
		EndDate:   date(2025, 6, 13),
	})
	require.NoError(t, err)
	return year
}

func TestRegisterLoginAndTokens(t *testing.T) {
	env := newTestEnv(t)
	user, family := env.registerParent(t, "Pat@Example.com", "Pat Parent")

	assert.Equal(t, "pat@example.com", user.Email)
	assert.True(t, user.IsAdmin, "first account administers the server")
	assert.Equal(t, "Pat's Family", family.Name)
	assert.Len(t, family.FamilyCode, 6)

	_, err := env.svc.Auth.Register(context.Background(), RegisterInput{Email: "pat@example.com", Password: "password123", Name: "Pat Again"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, _, err = env.svc.Auth.Login("pat@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, loggedIn, err := env.svc.Auth.Login(" PAT@example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	current, err := env.svc.Auth.ValidateSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)

	token, expires, err := env.svc.Auth.IssueToken(user)
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))
	fromToken, err := env.svc.Auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, fromToken.ID)

	_, err = env.svc.Auth.ValidateToken(token + "x")
	assert.ErrorIs(t, err, security.ErrInvalidToken)

	require.NoError(t, env.svc.Auth.Logout(session.ID))
	_, err = env.svc.Auth.ValidateSession(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistrationToggleAndFamilyCode(t *testing.T) {
	env := newTestEnv(t)
	admin, family := env.registerParent(t, "admin@example.com", "Alex Admin")
	other, _ := env.registerParent(t, "other@example.com", "Olive Other")

	assert.ErrorIs(t, env.svc.Auth.SetRegistrationOpen(other, false), ErrForbidden)
	require.NoError(t, env.svc.Auth.SetRegistrationOpen(admin, false))
	assert.False(t, env.svc.Auth.RegistrationOpen())

	_, err := env.svc.Auth.Register(context.Background(), RegisterInput{Email: "new@example.com", Password: "password123", Name: "New Parent"})
	assert.ErrorIs(t, err, ErrRegistrationClosed)

	_, err = env.svc.Auth.Register(context.Background(), RegisterInput{Email: "new@example.com", Password: "password123", Name: "New Parent", FamilyCode: "NOPE99"})
	assert.ErrorIs(t, err, ErrInvalidFamilyCode)

	coParent, err := env.svc.Auth.Register(context.Background(), RegisterInput{
		Email:      "co@example.com",
		Password:   "password123",
		Name:       "Casey Co",
		FamilyCode: strings.ToLower(family.FamilyCode),
	})
	require.NoError(t, err)
	assert.NoError(t, env.svc.Families.VerifyFamilyAccess(coParent.ID, family.ID))

	_, err = env.svc.Families.JoinFamilyByCode(coParent.ID, family.FamilyCode)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestPasswordReset(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.registerParent(t, "reset@example.com", "Riley Reset")
	session, _, err := env.svc.Auth.Login("reset@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, env.svc.Auth.RequestPasswordReset(context.Background(), "nobody@example.com"))
	require.NoError(t, env.svc.Auth.RequestPasswordReset(context.Background(), "reset@example.com"))

	var token string
	require.NoError(t, env.db.QueryRow("SELECT token FROM password_reset_tokens WHERE user_id = ?", user.ID).Scan(&token))

	ok, err := env.svc.Auth.ValidatePasswordResetToken(token)
	require.NoError(t, err)
	assert.True(t, ok)

	var vErr validation.ValidationError
	assert.True(t, errors.As(env.svc.Auth.ResetPassword(token, "short"), &vErr))

	require.NoError(t, env.svc.Auth.ResetPassword(token, "new-password-1"))
	assert.ErrorIs(t, env.svc.Auth.ResetPassword(token, "new-password-2"), ErrInvalidResetToken)

	_, err = env.svc.Auth.ValidateSession(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "reset signs the user out everywhere")

	_, _, err = env.svc.Auth.Login("reset@example.com", "new-password-1")
	assert.NoError(t, err)
}

func TestChildLoginAndAccessControl(t *testing.T) {
	env := newTestEnv(t)
	parent, family := env.registerParent(t, "parent@example.com", "Pat Parent")
	stranger, _ := env.registerParent(t, "stranger@example.com", "Sam Stranger")
	child := env.addChild(t, parent.ID, family.ID, "Robin")

	assert.Regexp(t, `^[a-z]+-[a-z]+$`, child.Username)
	assert.Regexp(t, `^[0-9]{4}$`, child.PIN)

	_, err := env.svc.Families.ChildForUser(stranger.ID, child.ID)
	assert.ErrorIs(t, err, ErrNotFamilyMember)
	_, err = env.svc.Courses.CreateCourse(stranger.ID, child.ID, CourseInput{Name: "Math", TotalLessons: 10})
	assert.ErrorIs(t, err, ErrNotFamilyMember)

	_, _, err = env.svc.Families.ChildLogin(family.FamilyCode, child.Username, "0000x")
	assert.ErrorIs(t, err, ErrInvalidChildLogin)

	session, loggedIn, err := env.svc.Families.ChildLogin(strings.ToLower(family.FamilyCode), strings.ToUpper(child.Username), child.PIN)
	require.NoError(t, err)
	assert.Equal(t, child.ID, loggedIn.ID)

	current, err := env.svc.Families.ValidateChildSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, child.ID, current.ID)

	pin, err := env.svc.Families.RegeneratePIN(parent.ID, child.ID)
	require.NoError(t, err)
	_, _, err = env.svc.Families.ChildLogin(family.FamilyCode, child.Username, pin)
	assert.NoError(t, err)

	require.NoError(t, env.svc.Families.LogoutChild(session.ID))
	_, err = env.svc.Families.ValidateChildSession(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCourseProgressAndAdvance(t *testing.T) {
	env := newTestEnv(t)
	parent, family := env.registerParent(t, "parent@example.com", "Pat Parent")
	child := env.addChild(t, parent.ID, family.ID, "Robin")

	_, err := env.svc.Courses.CreateCourse(parent.ID, child.ID, CourseInput{Name: "Math", TotalLessons: 0})
	var vErr validation.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "total_lessons", vErr.Field)

	course, err := env.svc.Courses.CreateCourse(parent.ID, child.ID, CourseInput{Name: "Math", Subject: "Mathematics", TotalLessons: 12, CurrentLesson: 8})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri"}, course.ActiveDays)

	_, err = env.svc.Courses.Progress(parent.ID, course.ID, nil)
	assert.ErrorIs(t, err, ErrNoActiveSchoolYear)

	year := env.addSchoolYear(t, parent.ID, family.ID)
	progress, err := env.svc.Courses.Progress(parent.ID, course.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, year.ID, progress.SchoolYearID)
	assert.Equal(t, 10, progress.ExpectedLesson)
	assert.Equal(t, "behind", string(progress.Status))
	assert.Equal(t, 2, progress.Diff)

	advanced, err := env.svc.Courses.AdvanceLesson(parent.ID, course.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 11, advanced.CurrentLesson)
	require.NotNil(t, advanced.LastLessonDate)
	assert.Equal(t, date(2024, 9, 13), *advanced.LastLessonDate)

	advanced, err = env.svc.Courses.AdvanceLesson(parent.ID, course.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 13, advanced.CurrentLesson, "capped one past the last lesson")

	_, err = env.svc.Courses.AdvanceLesson(parent.ID, course.ID, 1)
	assert.ErrorIs(t, err, ErrCourseComplete)

	overview, err := env.svc.Achievements.Overview(child.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 28, overview.TotalCount)
	assert.True(t, earned(overview, "first_lesson"))
	assert.True(t, earned(overview, "lesson_explorer"))
	assert.True(t, earned(overview, "first_course_complete"))
}

func earned(o *AchievementOverview, key string) bool {
	for _, a := range o.Achievements {
		if a.Key == key {
			return a.Earned
		}
	}
	return false
}

func TestCreateCourseAwardsAchievements(t *testing.T) {
	env := newTestEnv(t)
	parent, family := env.registerParent(t, "pat@example.com", "Pat")
	child := env.addChild(t, parent.ID, family.ID, "Robin")

	_, err := env.svc.Courses.CreateCourse(parent.ID, child.ID, CourseInput{Name: "Latin", TotalLessons: 40, CurrentLesson: 11})
	require.NoError(t, err)

	overview, err := env.svc.Achievements.Overview(child.ID, "learning")
	require.NoError(t, err)
	assert.True(t, earned(overview, "first_lesson"), "courses created mid-way count their finished lessons")
	assert.True(t, earned(overview, "lesson_explorer"))

	_, err = env.svc.Courses.CreateCourse(parent.ID, child.ID, CourseInput{Name: "Typing", TotalLessons: 5, CurrentLesson: 6})
	require.NoError(t, err)
	overview, err = env.svc.Achievements.Overview(child.ID, "milestone")
	require.NoError(t, err)
	assert.True(t, earned(overview, "first_course_complete"))
}

func TestAttendanceReadingAndAchievements(t *testing.T) {
	env := newTestEnv(t)
	parent, family := env.registerParent(t, "parent@example.com", "Pat Parent")
	child := env.addChild(t, parent.ID, family.ID, "Robin")

	for _, d := range []int{11, 12, 13} {
		_, err := env.svc.Attendance.Mark(parent.ID, child.ID, AttendanceInput{Date: date(2024, 9, d), Hours: 4})
		require.NoError(t, err)
	}
	// Marking a day twice replaces the record
	_, err := env.svc.Attendance.Mark(parent.ID, child.ID, AttendanceInput{Date: date(2024, 9, 13), Status: models.AttendanceHalfDay, Hours: 2})
	require.NoError(t, err)
	_, err = env.svc.Attendance.Mark(parent.ID, child.ID, AttendanceInput{Date: date(2024, 9, 10), Status: "sick"})
	assert.Error(t, err)

	summary, err := env.svc.Attendance.Summary(parent.ID, child.ID, repository.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.DaysRecorded)
	assert.Equal(t, 3, summary.CurrentStreak)
	assert.InDelta(t, 10.0, summary.TotalHours, 0.001)

	_, err = env.svc.Reading.LogForChild(child.ID, ReadingInput{Title: "Charlotte's Web", Minutes: 30, Pages: 40, Finished: true})
	require.NoError(t, err)
	totals, err := env.svc.Reading.Totals(child.ID, repository.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 1, totals.BooksFinished)
	assert.Equal(t, 1, totals.CurrentStreak)

	overview, err := env.svc.Achievements.Overview(child.ID, "consistency")
	require.NoError(t, err)
	assert.True(t, earned(overview, "streak_3"))
	assert.False(t, earned(overview, "streak_7"))

	learning, err := env.svc.Achievements.Overview(child.ID, "learning")
	require.NoError(t, err)
	assert.True(t, earned(learning, "first_book"))

	_, err = env.svc.Achievements.Overview(child.ID, "sports")
	var vErr validation.ValidationError
	assert.True(t, errors.As(err, &vErr))

	awarded, err := env.svc.Achievements.SyncAll()
	require.NoError(t, err)
	assert.Zero(t, awarded, "everything was already awarded as it happened")
}

func TestAssignmentsGoalsAndPortfolio(t *testing.T) {
	env := newTestEnv(t)
	parent, family := env.registerParent(t, "parent@example.com", "Pat Parent")
	child := env.addChild(t, parent.ID, family.ID, "Robin")
	sibling := env.addChild(t, parent.ID, family.ID, "Jamie")
	course, err := env.svc.Courses.CreateCourse(parent.ID, child.ID, CourseInput{Name: "Science", TotalLessons: 30})
	require.NoError(t, err)

	_, err = env.svc.Assignments.Create(parent.ID, sibling.ID, AssignmentInput{CourseID: &course.ID, Title: "Wrong child"})
	var vErr validation.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "course_id", vErr.Field)

	a, err := env.svc.Assignments.Create(parent.ID, child.ID, AssignmentInput{CourseID: &course.ID, Title: "Plant cells", DueDate: ptr(date(2024, 9, 20))})
	require.NoError(t, err)
	assert.Equal(t, 100.0, a.MaxScore)

	_, err = env.svc.Assignments.Grade(parent.ID, a.ID, 101)
	assert.Error(t, err)
	graded, err := env.svc.Assignments.Grade(parent.ID, a.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentGraded, graded.Status)
	assert.NotNil(t, graded.CompletedAt)

	grades, err := env.svc.Assignments.CourseGrades(parent.ID, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "A+", grades[course.ID].Letter)

	goal, err := env.svc.Goals.Create(parent.ID, child.ID, GoalInput{Title: "Learn times tables", Progress: 40})
	require.NoError(t, err)
	assert.Nil(t, goal.CompletedAt)
	goal, err = env.svc.Goals.Update(parent.ID, goal.ID, GoalInput{Title: "Learn times tables", Progress: 100})
	require.NoError(t, err)
	assert.NotNil(t, goal.CompletedAt)

	_, err = env.svc.Portfolio.Upload(context.Background(), parent.ID, child.ID, PortfolioUpload{
		Title: "Too big", ContentType: "image/png", Size: 4096, Body: bytes.NewReader(make([]byte, 4096)),
	})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = env.svc.Portfolio.Upload(context.Background(), parent.ID, child.ID, PortfolioUpload{
		Title: "Script", ContentType: "application/x-sh", Size: 4, Body: strings.NewReader("ls\n"),
	})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	item, err := env.svc.Portfolio.Upload(context.Background(), parent.ID, child.ID, PortfolioUpload{
		CourseID: &course.ID, Title: "Leaf drawing", ContentType: "image/png; charset=binary",
		Size: 5, Body: strings.NewReader("image"),
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", item.ContentType)
	assert.True(t, strings.HasSuffix(item.FileKey, ".png"), "key extension follows the accepted type")
	assert.True(t, strings.HasPrefix(item.URL, "/files/"))
	assert.Equal(t, date(2024, 9, 13), item.Date)

	items, err := env.svc.Portfolio.List(context.Background(), parent.ID, child.ID, nil, repository.DateRange{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	overview, err := env.svc.Achievements.Overview(child.ID, "")
	require.NoError(t, err)
	for _, key := range []string{"first_perfect", "distinction", "goal_getter", "portfolio_first"} {
		assert.True(t, earned(overview, key), key)
	}

	require.NoError(t, env.svc.Portfolio.Delete(context.Background(), parent.ID, item.ID))
	assert.ErrorIs(t, env.svc.Portfolio.Delete(context.Background(), parent.ID, item.ID), ErrPortfolioNotFound)
}

func TestDashboardReportAndTranscript(t *testing.T) {
	env := newTestEnv(t)
	parent, family := env.registerParent(t, "parent@example.com", "Pat Parent")
	robin := env.addChild(t, parent.ID, family.ID, "Robin")
	jamie := env.addChild(t, parent.ID, family.ID, "Jamie")
	year := env.addSchoolYear(t, parent.ID, family.ID)

	math, err := env.svc.Courses.CreateCourse(parent.ID, robin.ID, CourseInput{Name: "Math", TotalLessons: 100, CurrentLesson: 10, StartDate: ptr(date(2024, 9, 2))})
	require.NoError(t, err)
	_, err = env.svc.Courses.CreateCourse(parent.ID, jamie.ID, CourseInput{Name: "Phonics", TotalLessons: 50})
	require.NoError(t, err)

	a, err := env.svc.Assignments.Create(parent.ID, robin.ID, AssignmentInput{CourseID: &math.ID, Title: "Quiz 1", MaxScore: 20})
	require.NoError(t, err)
	_, err = env.svc.Assignments.Grade(parent.ID, a.ID, 17)
	require.NoError(t, err)
	_, err = env.svc.Assignments.Create(parent.ID, robin.ID, AssignmentInput{Title: "Overdue essay", DueDate: ptr(date(2024, 9, 10))})
	require.NoError(t, err)

	dash, err := env.svc.Reports.Dashboard(context.Background(), parent.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 9, 13), dash.Today)
	require.Len(t, dash.Children, 2)
	for _, c := range dash.Children {
		require.NotNil(t, c.SchoolYear)
		require.Len(t, c.Courses, 1)
		if c.Child.ID == robin.ID {
			assert.Equal(t, 1, c.PendingAssignments)
			assert.Equal(t, 1, c.OverdueAssignments)
			assert.Equal(t, "on-track", string(c.Courses[0].Status))
		}
	}

	report, err := env.svc.Reports.ProgressReport(parent.ID, robin.ID, &year.ID)
	require.NoError(t, err)
	require.Len(t, report.Courses, 1)
	require.NotNil(t, report.Courses[0].Grade)
	assert.Equal(t, "B", report.Courses[0].Grade.Letter)
	assert.Equal(t, 1, report.AssignmentsCompleted)

	transcript, err := env.svc.Reports.Transcript(parent.ID, robin.ID)
	require.NoError(t, err)
	require.Len(t, transcript.Years, 1)
	assert.Equal(t, year.ID, transcript.Years[0].SchoolYear.ID)
	assert.Equal(t, 3.0, transcript.CumulativeGPA)

	stranger, _ := env.registerParent(t, "stranger@example.com", "Sam Stranger")
	_, err = env.svc.Reports.ProgressReport(stranger.ID, robin.ID, nil)
	assert.ErrorIs(t, err, ErrNotFamilyMember)
	empty, err := env.svc.Reports.Dashboard(context.Background(), stranger.ID)
	require.NoError(t, err)
	assert.Empty(t, empty.Children)
}

func TestBackupRoundTrip(t *testing.T) {
	src := newTestEnv(t)
	parent, family := src.registerParent(t, "parent@example.com", "Pat Parent")
	child := src.addChild(t, parent.ID, family.ID, "Robin")
	src.addSchoolYear(t, parent.ID, family.ID)
	_, err := src.svc.Courses.CreateCourse(parent.ID, child.ID, CourseInput{Name: "Math", TotalLessons: 10, StartDate: ptr(date(2024, 9, 2))})
	require.NoError(t, err)
	_, err = src.svc.Reading.LogForChild(child.ID, ReadingInput{Title: "Matilda", Minutes: 20, Finished: true})
	require.NoError(t, err)

	var buf bytes.Buffer
	exported, err := src.svc.Backup.ExportToWriter(&buf)
	require.NoError(t, err)
	counts := exported.Counts()
	assert.Equal(t, 1, counts["users"])
	assert.Equal(t, 1, counts["children"])
	assert.Equal(t, 1, counts["earned_achievements"])

	dst := newTestEnv(t)
	dst.registerParent(t, "someone@example.com", "Someone Else")
	require.NoError(t, dst.svc.Backup.ImportFromReader(bytes.NewReader(buf.Bytes())))

	_, user, err := dst.svc.Auth.Login("parent@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, parent.ID, user.ID)
	_, _, err = dst.svc.Auth.Login("someone@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "import replaces existing data")

	courses, err := dst.svc.Courses.ListCourses(parent.ID, child.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.NotNil(t, courses[0].StartDate)
	assert.Equal(t, date(2024, 9, 2), *courses[0].StartDate)

	stats, err := dst.svc.Backup.Stats()
	require.NoError(t, err)
	assert.Equal(t, counts, stats)

	again, err := dst.svc.Families.CreateChild(parent.ID, family.ID, ChildInput{Name: "Jamie"})
	require.NoError(t, err)
	assert.Greater(t, again.ID, child.ID)

	assert.Error(t, dst.svc.Backup.ImportFromReader(strings.NewReader(`{"version":"1.0"}`)))
}
