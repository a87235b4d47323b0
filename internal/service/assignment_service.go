package service

import (
	"fmt"
	"strings"
	"time"

	"village/internal/grading"
	"village/internal/models"
	"village/internal/repository"
	"village/internal/validation"
)

// AssignmentInput holds the editable fields of an assignment
type AssignmentInput struct {
	CourseID    *int64     `json:"course_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	MaxScore    float64    `json:"max_score"`
}

// CourseGrade is a course's average over its graded assignments
type CourseGrade struct {
	CourseID int64   `json:"course_id"`
	Graded   int     `json:"graded"`
	Percent  float64 `json:"percent"`
	Letter   string  `json:"letter"`
}

// AssignmentService manages assignments and grading
type AssignmentService struct {
	assignmentRepo *repository.AssignmentRepository
	courseRepo     *repository.CourseRepository
	families       *FamilyService
	awards         *AchievementService
	clock          *Clock
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(
	assignmentRepo *repository.AssignmentRepository,
	courseRepo *repository.CourseRepository,
	families *FamilyService,
	awards *AchievementService,
	clock *Clock,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		courseRepo:     courseRepo,
		families:       families,
		awards:         awards,
		clock:          clock,
	}
}

func (s *AssignmentService) validate(childID int64, in *AssignmentInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.ValidateRequired("title", in.Title, 200); err != nil {
		return err
	}
	if in.MaxScore == 0 {
		in.MaxScore = 100
	}
	if err := validation.ValidatePositive("max_score", in.MaxScore); err != nil {
		return err
	}
	if in.CourseID != nil {
		course, err := s.courseRepo.GetCourseByID(*in.CourseID)
		if err != nil {
			return fmt.Errorf("failed to get course: %w", err)
		}
		if course == nil || course.ChildID != childID {
			return validation.ValidationError{Field: "course_id", Message: "course does not belong to this child"}
		}
	}
	return nil
}

// Create adds an assignment for a child
func (s *AssignmentService) Create(userID, childID int64, in AssignmentInput) (*models.Assignment, error) {
	if _, err := s.families.ChildForUser(userID, childID); err != nil {
		return nil, err
	}
	if err := s.validate(childID, &in); err != nil {
		return nil, err
	}

	a, err := s.assignmentRepo.Create(&models.Assignment{
		ChildID:     childID,
		CourseID:    in.CourseID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Status:      models.AssignmentPending,
		MaxScore:    in.MaxScore,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}
	return a, nil
}

func (s *AssignmentService) assignmentForUser(userID, assignmentID int64) (*models.Assignment, error) {
	a, err := s.assignmentRepo.GetByID(assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if a == nil {
		return nil, ErrAssignmentNotFound
	}
	if _, err := s.families.ChildForUser(userID, a.ChildID); err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns an assignment the user may see
func (s *AssignmentService) Get(userID, assignmentID int64) (*models.Assignment, error) {
	return s.assignmentForUser(userID, assignmentID)
}

// List returns a child's assignments matching the filter
func (s *AssignmentService) List(userID, childID int64, filter repository.AssignmentFilter) ([]models.Assignment, error) {
	if _, err := s.families.ChildForUser(userID, childID); err != nil {
		return nil, err
	}
	assignments, err := s.assignmentRepo.List(childID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

// Update changes an assignment's editable fields
func (s *AssignmentService) Update(userID, assignmentID int64, in AssignmentInput) (*models.Assignment, error) {
	a, err := s.assignmentForUser(userID, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(a.ChildID, &in); err != nil {
		return nil, err
	}
	if a.Score != nil && *a.Score > in.MaxScore {
		return nil, validation.ValidationError{Field: "max_score", Message: "max score is below the recorded score"}
	}

	a.CourseID = in.CourseID
	a.Title = in.Title
	a.Description = in.Description
	a.DueDate = in.DueDate
	a.MaxScore = in.MaxScore
	if err := s.assignmentRepo.Update(a); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}
	return a, nil
}

// Delete removes an assignment
func (s *AssignmentService) Delete(userID, assignmentID int64) error {
	if _, err := s.assignmentForUser(userID, assignmentID); err != nil {
		return err
	}
	if err := s.assignmentRepo.Delete(assignmentID); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return nil
}

// Complete marks an assignment as handed in
func (s *AssignmentService) Complete(userID, assignmentID int64) (*models.Assignment, error) {
	a, err := s.assignmentForUser(userID, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.Done() {
		return a, nil
	}
	now := s.clock.Now().UTC()
	a.Status = models.AssignmentCompleted
	a.CompletedAt = &now
	if err := s.assignmentRepo.Update(a); err != nil {
		return nil, fmt.Errorf("failed to complete assignment: %w", err)
	}
	s.awards.afterChange(a.ChildID)
	return a, nil
}

// Grade records a score. Grading an unfinished assignment also completes it.
func (s *AssignmentService) Grade(userID, assignmentID int64, score float64) (*models.Assignment, error) {
	a, err := s.assignmentForUser(userID, assignmentID)
	if err != nil {
		return nil, err
	}
	if score < 0 || score > a.MaxScore {
		return nil, validation.ValidationError{Field: "score", Message: fmt.Sprintf("score must be between 0 and %g", a.MaxScore)}
	}

	a.Score = &score
	a.Status = models.AssignmentGraded
	if a.CompletedAt == nil {
		now := s.clock.Now().UTC()
		a.CompletedAt = &now
	}
	if err := s.assignmentRepo.Update(a); err != nil {
		return nil, fmt.Errorf("failed to grade assignment: %w", err)
	}
	s.awards.afterChange(a.ChildID)
	return a, nil
}

// CourseGrades averages graded assignments per course for a child
func (s *AssignmentService) CourseGrades(userID, childID int64) (map[int64]CourseGrade, error) {
	if _, err := s.families.ChildForUser(userID, childID); err != nil {
		return nil, err
	}
	return s.courseGrades(childID)
}

func (s *AssignmentService) courseGrades(childID int64) (map[int64]CourseGrade, error) {
	assignments, err := s.assignmentRepo.List(childID, repository.AssignmentFilter{Status: models.AssignmentGraded})
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return gradesByCourse(assignments), nil
}

// gradesByCourse averages the percentage of each course's graded assignments.
// Assignments without a course are left out.
func gradesByCourse(assignments []models.Assignment) map[int64]CourseGrade {
	sums := map[int64]float64{}
	counts := map[int64]int{}
	for i := range assignments {
		a := &assignments[i]
		if a.CourseID == nil || !a.IsGraded() {
			continue
		}
		pct, ok := grading.Percent(*a.Score, a.MaxScore)
		if !ok {
			continue
		}
		sums[*a.CourseID] += pct
		counts[*a.CourseID]++
	}

	grades := make(map[int64]CourseGrade, len(sums))
	for id, sum := range sums {
		pct := grading.Round2(sum / float64(counts[id]))
		grades[id] = CourseGrade{CourseID: id, Graded: counts[id], Percent: pct, Letter: grading.Letter(pct)}
	}
	return grades
}
