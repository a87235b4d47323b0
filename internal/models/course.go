package models

import "time"

// Course is one subject a child works through lesson by lesson
type Course struct {
	ID             int64      `json:"id"`
	ChildID        int64      `json:"child_id"`
	Name           string     `json:"name"`
	Subject        string     `json:"subject"`
	TotalLessons   int        `json:"total_lessons"`
	CurrentLesson  int        `json:"current_lesson"`
	GradeLevel     string     `json:"grade_level"`
	Credits        float64    `json:"credits"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	ActiveDays     []string   `json:"active_days"`
	LastLessonDate *time.Time `json:"last_lesson_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Completed reports whether every lesson has been done.
// CurrentLesson is the next lesson to do, so it passes TotalLessons at the end.
func (c *Course) Completed() bool {
	return c.CurrentLesson > c.TotalLessons
}

// LessonsCompleted returns how many lessons have been finished
func (c *Course) LessonsCompleted() int {
	done := c.CurrentLesson - 1
	if done < 0 {
		return 0
	}
	if done > c.TotalLessons {
		return c.TotalLessons
	}
	return done
}

// PercentComplete returns lesson completion as 0..100
func (c *Course) PercentComplete() float64 {
	if c.TotalLessons <= 0 {
		return 0
	}
	return float64(c.LessonsCompleted()) * 100 / float64(c.TotalLessons)
}
