package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"village/internal/grading"
	"village/internal/models"
	"village/internal/repository"
)

const dashboardConcurrency = 4

// ChildSummary is one child's card on the parent dashboard
type ChildSummary struct {
	Child              models.Child              `json:"child"`
	SchoolYear         *models.SchoolYear        `json:"school_year,omitempty"`
	Courses            []CourseProgress          `json:"courses"`
	Attendance         *models.AttendanceSummary `json:"attendance"`
	Reading            *models.ReadingTotals     `json:"reading"`
	PendingAssignments int                       `json:"pending_assignments"`
	OverdueAssignments int                       `json:"overdue_assignments"`
	AchievementsEarned int                       `json:"achievements_earned"`
}

// Dashboard is the parent's overview of every child
type Dashboard struct {
	Today    time.Time      `json:"today"`
	Children []ChildSummary `json:"children"`
}

// CourseReport is a course line in a progress report
type CourseReport struct {
	CourseProgress
	Grade *CourseGrade `json:"grade,omitempty"`
}

// ProgressReport summarises a child's school year to date
type ProgressReport struct {
	Child                models.Child              `json:"child"`
	SchoolYear           models.SchoolYear         `json:"school_year"`
	Breaks               []models.SchoolBreak      `json:"breaks"`
	GeneratedOn          time.Time                 `json:"generated_on"`
	Courses              []CourseReport            `json:"courses"`
	Attendance           *models.AttendanceSummary `json:"attendance"`
	Reading              *models.ReadingTotals     `json:"reading"`
	AssignmentsCompleted int                       `json:"assignments_completed"`
	AssignmentsPending   int                       `json:"assignments_pending"`
	GoalsCompleted       int                       `json:"goals_completed"`
	GoalsOpen            int                       `json:"goals_open"`
	PortfolioItems       int                       `json:"portfolio_items"`
}

// TranscriptCourse is one course line on a transcript
type TranscriptCourse struct {
	CourseID   int64   `json:"course_id"`
	Name       string  `json:"name"`
	Subject    string  `json:"subject"`
	GradeLevel string  `json:"grade_level"`
	Credits    float64 `json:"credits"`
	Completed  bool    `json:"completed"`
	Graded     bool    `json:"graded"`
	Percent    float64 `json:"percent"`
	Letter     string  `json:"letter"`
	Points     float64 `json:"points"`
}

// TranscriptYear groups courses by the school year they started in
type TranscriptYear struct {
	SchoolYear    *models.SchoolYear `json:"school_year,omitempty"`
	Courses       []TranscriptCourse `json:"courses"`
	GPA           float64            `json:"gpa"`
	CreditsEarned float64            `json:"credits_earned"`
}

// Transcript is a child's academic record across school years
type Transcript struct {
	Child         models.Child     `json:"child"`
	Years         []TranscriptYear `json:"years"`
	CumulativeGPA float64          `json:"cumulative_gpa"`
	TotalCredits  float64          `json:"total_credits"`
}

// ReportService builds dashboards, progress reports and transcripts
type ReportService struct {
	families        *FamilyService
	calendar        *CalendarService
	assignments     *AssignmentService
	courseRepo      *repository.CourseRepository
	calendarRepo    *repository.CalendarRepository
	attendanceRepo  *repository.AttendanceRepository
	assignmentRepo  *repository.AssignmentRepository
	readingRepo     *repository.ReadingRepository
	goalRepo        *repository.GoalRepository
	portfolioRepo   *repository.PortfolioRepository
	achievementRepo *repository.AchievementRepository
	email           *EmailService
	clock           *Clock
}

// ReportRepositories bundles the repositories reports read from
type ReportRepositories struct {
	Courses      *repository.CourseRepository
	Calendar     *repository.CalendarRepository
	Attendance   *repository.AttendanceRepository
	Assignments  *repository.AssignmentRepository
	Reading      *repository.ReadingRepository
	Goals        *repository.GoalRepository
	Portfolio    *repository.PortfolioRepository
	Achievements *repository.AchievementRepository
}

// NewReportService creates a new report service
func NewReportService(
	families *FamilyService,
	calendar *CalendarService,
	assignments *AssignmentService,
	repos ReportRepositories,
	email *EmailService,
	clock *Clock,
) *ReportService {
	return &ReportService{
		families:        families,
		calendar:        calendar,
		assignments:     assignments,
		courseRepo:      repos.Courses,
		calendarRepo:    repos.Calendar,
		attendanceRepo:  repos.Attendance,
		assignmentRepo:  repos.Assignments,
		readingRepo:     repos.Reading,
		goalRepo:        repos.Goals,
		portfolioRepo:   repos.Portfolio,
		achievementRepo: repos.Achievements,
		email:           email,
		clock:           clock,
	}
}

type yearContext struct {
	year   *models.SchoolYear
	breaks []models.SchoolBreak
}

// Dashboard loads a summary of every child the user can see. Children are
// loaded concurrently; the first failure cancels the rest.
func (s *ReportService) Dashboard(ctx context.Context, userID int64) (*Dashboard, error) {
	today := s.clock.Today()
	children, err := s.families.GetAllUserChildren(userID)
	if err != nil {
		return nil, err
	}

	years := map[int64]yearContext{}
	for _, child := range children {
		if _, ok := years[child.FamilyID]; ok {
			continue
		}
		year, breaks, err := s.calendar.ActiveYear(child.FamilyID, today)
		if err != nil && !errors.Is(err, ErrNoActiveSchoolYear) {
			return nil, err
		}
		years[child.FamilyID] = yearContext{year: year, breaks: breaks}
	}

	summaries := make([]ChildSummary, len(children))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(dashboardConcurrency)
	for i := range children {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			summary, err := s.childSummary(children[i], years[children[i].FamilyID], today)
			if err != nil {
				return fmt.Errorf("child %d: %w", children[i].ID, err)
			}
			summaries[i] = *summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Dashboard{Today: today, Children: summaries}, nil
}

func (s *ReportService) childSummary(child models.Child, yc yearContext, today time.Time) (*ChildSummary, error) {
	summary := &ChildSummary{Child: child, SchoolYear: yc.year, Courses: []CourseProgress{}}

	courses, err := s.courseRepo.GetChildCourses(child.ID)
	if err != nil {
		return nil, err
	}
	if yc.year != nil {
		for _, course := range courses {
			summary.Courses = append(summary.Courses, progressFor(course, *yc.year, yc.breaks, today))
		}
	}

	dr := repository.DateRange{}
	if yc.year != nil {
		dr = repository.DateRange{From: yc.year.StartDate, To: yc.year.EndDate}
	}
	records, err := s.attendanceRepo.List(child.ID, dr)
	if err != nil {
		return nil, err
	}
	summary.Attendance = summarizeAttendance(child.ID, records, today)

	logs, err := s.readingRepo.List(child.ID, dr)
	if err != nil {
		return nil, err
	}
	summary.Reading = readingTotals(child.ID, logs, today)

	pending, err := s.assignmentRepo.List(child.ID, repository.AssignmentFilter{Status: models.AssignmentPending})
	if err != nil {
		return nil, err
	}
	summary.PendingAssignments = len(pending)
	for _, a := range pending {
		if a.DueDate != nil && a.DueDate.Before(today) {
			summary.OverdueAssignments++
		}
	}

	earned, err := s.achievementRepo.List(child.ID)
	if err != nil {
		return nil, err
	}
	summary.AchievementsEarned = len(earned)
	return summary, nil
}

// ProgressReport summarises a child's progress within a school year, or the
// year covering today when yearID is nil
func (s *ReportService) ProgressReport(userID, childID int64, yearID *int64) (*ProgressReport, error) {
	child, err := s.families.ChildForUser(userID, childID)
	if err != nil {
		return nil, err
	}
	return s.progressReport(child, yearID)
}

// ChildProgressReport builds a progress report without a parent access
// check. It serves operator tooling.
func (s *ReportService) ChildProgressReport(childID int64, yearID *int64) (*ProgressReport, error) {
	child, err := s.families.GetChild(childID)
	if err != nil {
		return nil, err
	}
	return s.progressReport(child, yearID)
}

func (s *ReportService) progressReport(child *models.Child, yearID *int64) (*ProgressReport, error) {
	year, breaks, err := s.calendar.resolveYear(child.FamilyID, yearID)
	if err != nil {
		return nil, err
	}
	today := s.clock.Today()
	dr := repository.DateRange{From: year.StartDate, To: year.EndDate}

	report := &ProgressReport{
		Child:       *child,
		SchoolYear:  *year,
		Breaks:      breaks,
		GeneratedOn: today,
		Courses:     []CourseReport{},
	}

	courses, err := s.courseRepo.GetChildCourses(child.ID)
	if err != nil {
		return nil, err
	}
	grades, err := s.assignments.courseGrades(child.ID)
	if err != nil {
		return nil, err
	}
	for _, course := range courses {
		line := CourseReport{CourseProgress: progressFor(course, *year, breaks, today)}
		if g, ok := grades[course.ID]; ok {
			g := g
			line.Grade = &g
		}
		report.Courses = append(report.Courses, line)
	}

	records, err := s.attendanceRepo.List(child.ID, dr)
	if err != nil {
		return nil, err
	}
	report.Attendance = summarizeAttendance(child.ID, records, today)

	logs, err := s.readingRepo.List(child.ID, dr)
	if err != nil {
		return nil, err
	}
	report.Reading = readingTotals(child.ID, logs, today)

	assignments, err := s.assignmentRepo.List(child.ID, repository.AssignmentFilter{})
	if err != nil {
		return nil, err
	}
	for i := range assignments {
		if assignments[i].Done() {
			report.AssignmentsCompleted++
		} else {
			report.AssignmentsPending++
		}
	}

	goals, err := s.goalRepo.List(child.ID)
	if err != nil {
		return nil, err
	}
	for i := range goals {
		if goals[i].IsCompleted() {
			report.GoalsCompleted++
		} else {
			report.GoalsOpen++
		}
	}

	items, err := s.portfolioRepo.List(child.ID, nil, dr)
	if err != nil {
		return nil, err
	}
	report.PortfolioItems = len(items)

	return report, nil
}

// EmailProgressReport sends a child's progress report to the requesting parent
func (s *ReportService) EmailProgressReport(ctx context.Context, user *models.User, childID int64, yearID *int64) error {
	child, err := s.families.ChildForUser(user.ID, childID)
	if err != nil {
		return err
	}
	report, err := s.progressReport(child, yearID)
	if err != nil {
		return err
	}
	if !s.email.IsEnabled() {
		return ErrEmailDisabled
	}
	return s.email.SendProgressReportEmail(ctx, user.Email, user.Name, report)
}

// Transcript lists a child's courses grouped by school year with grades and GPA
func (s *ReportService) Transcript(userID, childID int64) (*Transcript, error) {
	child, err := s.families.ChildForUser(userID, childID)
	if err != nil {
		return nil, err
	}

	courses, err := s.courseRepo.GetChildCourses(child.ID)
	if err != nil {
		return nil, err
	}
	grades, err := s.assignments.courseGrades(child.ID)
	if err != nil {
		return nil, err
	}
	years, err := s.calendarRepo.GetFamilySchoolYears(child.FamilyID)
	if err != nil {
		return nil, err
	}
	return buildTranscript(*child, courses, grades, years), nil
}

// buildTranscript places each course in the school year containing its start
// date (or creation date). Courses outside every year go in a final group
// without a school year.
func buildTranscript(child models.Child, courses []models.Course, grades map[int64]CourseGrade, years []models.SchoolYear) *Transcript {
	sorted := make([]models.SchoolYear, len(years))
	copy(sorted, years)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartDate.Before(sorted[j].StartDate) })

	groups := make([]TranscriptYear, len(sorted)+1)
	for i := range sorted {
		y := sorted[i]
		groups[i].SchoolYear = &y
	}

	var all []grading.CourseGrade
	transcript := &Transcript{Child: child, Years: []TranscriptYear{}}

	for _, course := range courses {
		started := course.CreatedAt
		if course.StartDate != nil {
			started = *course.StartDate
		}
		idx := len(sorted)
		for i := len(sorted) - 1; i >= 0; i-- {
			if sorted[i].Contains(started) {
				idx = i
				break
			}
		}

		line := TranscriptCourse{
			CourseID:   course.ID,
			Name:       course.Name,
			Subject:    course.Subject,
			GradeLevel: course.GradeLevel,
			Credits:    course.Credits,
			Completed:  course.Completed(),
		}
		if g, ok := grades[course.ID]; ok {
			line.Graded = true
			line.Percent = g.Percent
			line.Letter = g.Letter
			line.Points = grading.Points(g.Letter)
		}
		if line.Completed {
			groups[idx].CreditsEarned += course.Credits
			transcript.TotalCredits += course.Credits
		}
		groups[idx].Courses = append(groups[idx].Courses, line)
	}

	for i := range groups {
		if len(groups[i].Courses) == 0 {
			continue
		}
		var yearGrades []grading.CourseGrade
		for _, c := range groups[i].Courses {
			if c.Graded {
				yearGrades = append(yearGrades, grading.CourseGrade{Percent: c.Percent, Credits: c.Credits})
			}
		}
		groups[i].GPA = grading.GPA(yearGrades)
		all = append(all, yearGrades...)
		transcript.Years = append(transcript.Years, groups[i])
	}
	transcript.CumulativeGPA = grading.GPA(all)
	return transcript
}
