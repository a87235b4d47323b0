package models

import "time"

// Family roles
const (
	RoleOwner  = "owner"
	RoleParent = "parent"
)

// Family groups the parents and children of one household
type Family struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	FamilyCode string    `json:"family_code"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FamilyMember links a user to a family
type FamilyMember struct {
	ID       int64     `json:"id"`
	FamilyID int64     `json:"family_id"`
	UserID   int64     `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// FamilyWithMembers combines a family with its member information
type FamilyWithMembers struct {
	Family   Family         `json:"family"`
	Members  []FamilyMember `json:"members"`
	Users    []User         `json:"users"`
	Children []Child        `json:"children"`
}
