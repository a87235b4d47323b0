package models

import "time"

// Child represents a student profile within a family
type Child struct {
	ID          int64      `json:"id"`
	FamilyID    int64      `json:"family_id"`
	Name        string     `json:"name"`
	Username    string     `json:"username"`
	PIN         string     `json:"pin,omitempty"`
	GradeLevel  string     `json:"grade_level"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	AvatarColor string     `json:"avatar_color"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ChildSession is a login session for a child using the student view
type ChildSession struct {
	ID        string
	ChildID   int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the child session has expired
func (s *ChildSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
