package models

import "time"

// Assignment statuses
const (
	AssignmentPending   = "pending"
	AssignmentCompleted = "completed"
	AssignmentGraded    = "graded"
)

// Assignment is a piece of work set for a child, optionally tied to a course
type Assignment struct {
	ID          int64      `json:"id"`
	ChildID     int64      `json:"child_id"`
	CourseID    *int64     `json:"course_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      string     `json:"status"`
	Score       *float64   `json:"score,omitempty"`
	MaxScore    float64    `json:"max_score"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Done reports whether the assignment has been handed in
func (a *Assignment) Done() bool {
	return a.Status == AssignmentCompleted || a.Status == AssignmentGraded
}

// IsGraded reports whether a score has been recorded
func (a *Assignment) IsGraded() bool {
	return a.Status == AssignmentGraded && a.Score != nil && a.MaxScore > 0
}

// IsPerfect reports whether the assignment received full marks
func (a *Assignment) IsPerfect() bool {
	return a.IsGraded() && *a.Score >= a.MaxScore
}
