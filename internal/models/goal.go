package models

import "time"

// Goal is a target a child is working towards
type Goal struct {
	ID          int64      `json:"id"`
	ChildID     int64      `json:"child_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	Progress    int        `json:"progress"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsCompleted reports whether the goal has been marked complete
func (g *Goal) IsCompleted() bool {
	return g.CompletedAt != nil
}
