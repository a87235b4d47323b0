package service

import (
	"fmt"
	"log"
	"time"

	"village/internal/achievements"
	"village/internal/grading"
	"village/internal/models"
	"village/internal/repository"
	"village/internal/streak"
	"village/internal/validation"
)

// AchievementStatus is a catalog entry as seen by one child
type AchievementStatus struct {
	achievements.Achievement
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
	Progress float64    `json:"progress"`
}

// AchievementOverview is a child's achievements page
type AchievementOverview struct {
	ChildID      int64                `json:"child_id"`
	EarnedCount  int                  `json:"earned_count"`
	TotalCount   int                  `json:"total_count"`
	TotalPoints  int                  `json:"total_points"`
	Metrics      achievements.Metrics `json:"metrics"`
	Achievements []AchievementStatus  `json:"achievements"`
}

// AchievementService computes a child's metrics and awards badges
type AchievementService struct {
	childRepo       *repository.ChildRepository
	courseRepo      *repository.CourseRepository
	attendanceRepo  *repository.AttendanceRepository
	assignmentRepo  *repository.AssignmentRepository
	readingRepo     *repository.ReadingRepository
	goalRepo        *repository.GoalRepository
	portfolioRepo   *repository.PortfolioRepository
	achievementRepo *repository.AchievementRepository
	clock           *Clock
}

// NewAchievementService creates a new achievement service
func NewAchievementService(
	childRepo *repository.ChildRepository,
	courseRepo *repository.CourseRepository,
	attendanceRepo *repository.AttendanceRepository,
	assignmentRepo *repository.AssignmentRepository,
	readingRepo *repository.ReadingRepository,
	goalRepo *repository.GoalRepository,
	portfolioRepo *repository.PortfolioRepository,
	achievementRepo *repository.AchievementRepository,
	clock *Clock,
) *AchievementService {
	return &AchievementService{
		childRepo:       childRepo,
		courseRepo:      courseRepo,
		attendanceRepo:  attendanceRepo,
		assignmentRepo:  assignmentRepo,
		readingRepo:     readingRepo,
		goalRepo:        goalRepo,
		portfolioRepo:   portfolioRepo,
		achievementRepo: achievementRepo,
		clock:           clock,
	}
}

// Metrics gathers every metric the catalog refers to for one child
func (s *AchievementService) Metrics(childID int64) (achievements.Metrics, error) {
	today := s.clock.Today()
	m := achievements.Metrics{}

	courses, err := s.courseRepo.GetChildCourses(childID)
	if err != nil {
		return nil, err
	}
	for i := range courses {
		m[achievements.MetricLessonsCompleted] += float64(courses[i].LessonsCompleted())
		if courses[i].Completed() {
			m[achievements.MetricCoursesCompleted]++
		}
	}

	logs, err := s.readingRepo.List(childID, repository.DateRange{})
	if err != nil {
		return nil, err
	}
	readingDates := make([]time.Time, 0, len(logs))
	for _, l := range logs {
		m[achievements.MetricReadingMinutes] += float64(l.Minutes)
		if l.Finished {
			m[achievements.MetricBooksRead]++
		}
		readingDates = append(readingDates, l.Date)
	}
	m[achievements.MetricReadingStreak] = float64(streak.Current(readingDates, today))

	records, err := s.attendanceRepo.List(childID, repository.DateRange{})
	if err != nil {
		return nil, err
	}
	attended := attendedDates(records)
	m[achievements.MetricAttendanceDays] = float64(len(attended))
	m[achievements.MetricAttendanceStreak] = float64(streak.Current(attended, today))

	assignments, err := s.assignmentRepo.List(childID, repository.AssignmentFilter{})
	if err != nil {
		return nil, err
	}
	var scoreSum float64
	var graded int
	for i := range assignments {
		a := &assignments[i]
		if a.Done() {
			m[achievements.MetricAssignmentsCompleted]++
		}
		if a.IsPerfect() {
			m[achievements.MetricPerfectScores]++
		}
		if a.IsGraded() {
			if pct, ok := grading.Percent(*a.Score, a.MaxScore); ok {
				scoreSum += pct
				graded++
			}
		}
	}
	if graded > 0 {
		m[achievements.MetricAverageScore] = grading.Round2(scoreSum / float64(graded))
	}

	portfolio, err := s.portfolioRepo.Count(childID)
	if err != nil {
		return nil, err
	}
	m[achievements.MetricPortfolioItems] = float64(portfolio)

	goals, err := s.goalRepo.List(childID)
	if err != nil {
		return nil, err
	}
	for i := range goals {
		if goals[i].IsCompleted() {
			m[achievements.MetricGoalsCompleted]++
		}
	}

	return m, nil
}

func attendedDates(records []models.Attendance) []time.Time {
	dates := make([]time.Time, 0, len(records))
	for i := range records {
		if records[i].Attended() {
			dates = append(dates, records[i].Date)
		}
	}
	return dates
}

// CheckAndAward persists every newly satisfied achievement and returns them
func (s *AchievementService) CheckAndAward(childID int64) ([]achievements.Achievement, error) {
	metrics, err := s.Metrics(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute metrics: %w", err)
	}
	earned, err := s.achievementRepo.EarnedKeys(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to load earned achievements: %w", err)
	}

	newly := achievements.Newly(metrics, earned)
	if len(newly) == 0 {
		return nil, nil
	}

	keys := make([]string, len(newly))
	for i, a := range newly {
		keys[i] = a.Key
	}
	if _, err := s.achievementRepo.Award(childID, keys, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("failed to award achievements: %w", err)
	}
	for _, a := range newly {
		log.Printf("Child %d earned achievement %s", childID, a.Key)
	}
	return newly, nil
}

// afterChange re-evaluates achievements once a child's records changed.
// Failures are logged and never surface to the caller.
func (s *AchievementService) afterChange(childID int64) {
	if s == nil {
		return
	}
	if _, err := s.CheckAndAward(childID); err != nil {
		log.Printf("Warning: achievement check failed for child %d: %v", childID, err)
	}
}

// Overview lists the catalog with the child's earned state and progress,
// optionally restricted to one category
func (s *AchievementService) Overview(childID int64, category string) (*AchievementOverview, error) {
	var entries []achievements.Achievement
	if category == "" {
		entries = achievements.Catalog()
	} else {
		if !achievements.ValidCategory(category) {
			return nil, validation.ValidationError{Field: "category", Message: "unknown category"}
		}
		entries = achievements.ByCategory(achievements.Category(category))
	}

	metrics, err := s.Metrics(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute metrics: %w", err)
	}
	earned, err := s.achievementRepo.List(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to load earned achievements: %w", err)
	}
	earnedAt := make(map[string]time.Time, len(earned))
	earnedKeys := make([]string, 0, len(earned))
	for _, e := range earned {
		earnedAt[e.AchievementKey] = e.EarnedAt
		earnedKeys = append(earnedKeys, e.AchievementKey)
	}

	overview := &AchievementOverview{
		ChildID:      childID,
		TotalCount:   len(entries),
		TotalPoints:  achievements.TotalPoints(earnedKeys),
		Metrics:      metrics,
		Achievements: make([]AchievementStatus, 0, len(entries)),
	}
	for _, a := range entries {
		status := AchievementStatus{Achievement: a, Progress: achievements.ProgressOf(a, metrics)}
		if at, ok := earnedAt[a.Key]; ok {
			at := at
			status.Earned = true
			status.EarnedAt = &at
			status.Progress = 1
			overview.EarnedCount++
		}
		overview.Achievements = append(overview.Achievements, status)
	}
	return overview, nil
}

// SyncAll re-runs CheckAndAward for every child and returns how many
// achievements were awarded
func (s *AchievementService) SyncAll() (int, error) {
	children, err := s.childRepo.GetAllChildren()
	if err != nil {
		return 0, fmt.Errorf("failed to list children: %w", err)
	}
	total := 0
	for _, child := range children {
		newly, err := s.CheckAndAward(child.ID)
		if err != nil {
			return total, fmt.Errorf("child %d: %w", child.ID, err)
		}
		total += len(newly)
	}
	return total, nil
}
