package models

import "time"

// PortfolioItem is a piece of work uploaded to a child's portfolio
type PortfolioItem struct {
	ID          int64     `json:"id"`
	ChildID     int64     `json:"child_id"`
	CourseID    *int64    `json:"course_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	FileKey     string    `json:"file_key"`
	ContentType string    `json:"content_type"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
