package service

import (
	"fmt"
	"strings"
	"time"

	"village/internal/models"
	"village/internal/repository"
	"village/internal/schedule"
	"village/internal/validation"
)

// CourseInput holds the editable fields of a course
type CourseInput struct {
	Name          string     `json:"name"`
	Subject       string     `json:"subject"`
	TotalLessons  int        `json:"total_lessons"`
	CurrentLesson int        `json:"current_lesson"`
	GradeLevel    string     `json:"grade_level"`
	Credits       *float64   `json:"credits,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	ActiveDays    []string   `json:"active_days"`
}

func (in *CourseInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Subject = strings.TrimSpace(in.Subject)
	in.GradeLevel = strings.TrimSpace(in.GradeLevel)
	if err := validation.ValidateRequired("name", in.Name, 100); err != nil {
		return err
	}
	if err := validation.ValidatePositive("total_lessons", float64(in.TotalLessons)); err != nil {
		return err
	}
	if in.CurrentLesson == 0 {
		in.CurrentLesson = 1
	}
	if err := validation.ValidateIntRange("current_lesson", in.CurrentLesson, 1, in.TotalLessons+1); err != nil {
		return err
	}
	if in.Credits != nil && *in.Credits < 0 {
		return validation.ValidationError{Field: "credits", Message: "credits cannot be negative"}
	}
	if len(in.ActiveDays) > 0 {
		in.ActiveDays = schedule.ResolveActiveDays(in.ActiveDays).Strings()
	}
	return nil
}

// CourseProgress is where a course stands against the school calendar
type CourseProgress struct {
	CourseID         int64           `json:"course_id"`
	CourseName       string          `json:"course_name"`
	SchoolYearID     int64           `json:"school_year_id"`
	CurrentLesson    int             `json:"current_lesson"`
	TotalLessons     int             `json:"total_lessons"`
	ExpectedLesson   int             `json:"expected_lesson"`
	Status           schedule.Status `json:"status"`
	Diff             int             `json:"diff"`
	PercentComplete  float64         `json:"percent_complete"`
	Completed        bool            `json:"completed"`
	NextLessonDate   *time.Time      `json:"next_lesson_date,omitempty"`
	ProjectedFinish  *time.Time      `json:"projected_finish,omitempty"`
	FinishesInYear   bool            `json:"finishes_in_year"`
	SchoolDaysToDate int             `json:"school_days_to_date"`
}

// progressFor combines the calendar computations for one course
func progressFor(course models.Course, year models.SchoolYear, breaks []models.SchoolBreak, today time.Time) CourseProgress {
	p := schedule.ExpectedLesson(course, year, breaks, today)
	cp := CourseProgress{
		CourseID:        course.ID,
		CourseName:      course.Name,
		SchoolYearID:    year.ID,
		CurrentLesson:   course.CurrentLesson,
		TotalLessons:    course.TotalLessons,
		ExpectedLesson:  p.ExpectedLesson,
		Status:          p.Status,
		Diff:            p.Diff,
		PercentComplete: course.PercentComplete(),
		Completed:       course.Completed(),
	}

	if !today.Before(year.StartDate) {
		end := today
		if end.After(year.EndDate) {
			end = year.EndDate
		}
		cp.SchoolDaysToDate = schedule.SchoolDaysBetween(year.StartDate, end, schedule.ResolveActiveDays(course.ActiveDays), breaks)
	}

	if !course.Completed() {
		if d, ok := schedule.LessonDate(course, year, breaks, course.CurrentLesson); ok {
			cp.NextLessonDate = &d
		}
	}
	if d, ok := schedule.ProjectedFinish(course, year, breaks, today); !d.IsZero() {
		cp.ProjectedFinish = &d
		cp.FinishesInYear = ok
	}
	return cp
}

// CourseService manages courses and lesson progress
type CourseService struct {
	courseRepo *repository.CourseRepository
	families   *FamilyService
	calendar   *CalendarService
	awards     *AchievementService
	clock      *Clock
}

// NewCourseService creates a new course service
func NewCourseService(courseRepo *repository.CourseRepository, families *FamilyService, calendar *CalendarService, awards *AchievementService, clock *Clock) *CourseService {
	return &CourseService{
		courseRepo: courseRepo,
		families:   families,
		calendar:   calendar,
		awards:     awards,
		clock:      clock,
	}
}

// CreateCourse adds a course for a child
func (s *CourseService) CreateCourse(userID, childID int64, in CourseInput) (*models.Course, error) {
	if _, err := s.families.ChildForUser(userID, childID); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	credits := 1.0
	if in.Credits != nil {
		credits = *in.Credits
	}
	course, err := s.courseRepo.CreateCourse(&models.Course{
		ChildID:       childID,
		Name:          in.Name,
		Subject:       in.Subject,
		TotalLessons:  in.TotalLessons,
		CurrentLesson: in.CurrentLesson,
		GradeLevel:    in.GradeLevel,
		Credits:       credits,
		StartDate:     in.StartDate,
		ActiveDays:    in.ActiveDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	course.ActiveDays = schedule.ResolveActiveDays(course.ActiveDays).Strings()
	s.awards.afterChange(childID)
	return course, nil
}

// courseForUser loads a course and checks the user may see its child
func (s *CourseService) courseForUser(userID, courseID int64) (*models.Course, *models.Child, error) {
	course, err := s.courseRepo.GetCourseByID(courseID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil {
		return nil, nil, ErrCourseNotFound
	}
	child, err := s.families.ChildForUser(userID, course.ChildID)
	if err != nil {
		return nil, nil, err
	}
	return course, child, nil
}

// GetCourse returns a course the user may see
func (s *CourseService) GetCourse(userID, courseID int64) (*models.Course, error) {
	course, _, err := s.courseForUser(userID, courseID)
	return course, err
}

// ListCourses lists a child's courses
func (s *CourseService) ListCourses(userID, childID int64) ([]models.Course, error) {
	if _, err := s.families.ChildForUser(userID, childID); err != nil {
		return nil, err
	}
	courses, err := s.courseRepo.GetChildCourses(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// UpdateCourse replaces a course's editable fields
func (s *CourseService) UpdateCourse(userID, courseID int64, in CourseInput) (*models.Course, error) {
	course, _, err := s.courseForUser(userID, courseID)
	if err != nil {
		return nil, err
	}
	if in.CurrentLesson == 0 {
		in.CurrentLesson = course.CurrentLesson
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	course.Name = in.Name
	course.Subject = in.Subject
	course.TotalLessons = in.TotalLessons
	course.CurrentLesson = in.CurrentLesson
	course.GradeLevel = in.GradeLevel
	if in.Credits != nil {
		course.Credits = *in.Credits
	}
	course.StartDate = in.StartDate
	course.ActiveDays = in.ActiveDays
	if err := s.courseRepo.UpdateCourse(course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	course.ActiveDays = schedule.ResolveActiveDays(course.ActiveDays).Strings()
	s.awards.afterChange(course.ChildID)
	return course, nil
}

// DeleteCourse removes a course
func (s *CourseService) DeleteCourse(userID, courseID int64) error {
	if _, _, err := s.courseForUser(userID, courseID); err != nil {
		return err
	}
	if err := s.courseRepo.DeleteCourse(courseID); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}

// AdvanceLesson marks lessons as done, moving the course forward by count
// (at least one) and stamping today as the last lesson date
func (s *CourseService) AdvanceLesson(userID, courseID int64, count int) (*models.Course, error) {
	course, _, err := s.courseForUser(userID, courseID)
	if err != nil {
		return nil, err
	}
	if course.Completed() {
		return nil, ErrCourseComplete
	}
	if count < 1 {
		count = 1
	}

	next := course.CurrentLesson + count
	if next > course.TotalLessons+1 {
		next = course.TotalLessons + 1
	}
	today := s.clock.Today()
	if err := s.courseRepo.SetLesson(course.ID, next, today); err != nil {
		return nil, fmt.Errorf("failed to advance lesson: %w", err)
	}
	course.CurrentLesson = next
	course.LastLessonDate = &today

	s.awards.afterChange(course.ChildID)
	return course, nil
}

// Progress reports a course against the given school year, or the family's
// school year covering today when yearID is nil
func (s *CourseService) Progress(userID, courseID int64, yearID *int64) (*CourseProgress, error) {
	course, child, err := s.courseForUser(userID, courseID)
	if err != nil {
		return nil, err
	}
	year, breaks, err := s.calendar.resolveYear(child.FamilyID, yearID)
	if err != nil {
		return nil, err
	}
	cp := progressFor(*course, *year, breaks, s.clock.Today())
	return &cp, nil
}
