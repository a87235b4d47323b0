package models

import "time"

// ReadingLog is one reading session
type ReadingLog struct {
	ID        int64     `json:"id"`
	ChildID   int64     `json:"child_id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Date      time.Time `json:"date"`
	Minutes   int       `json:"minutes"`
	Pages     int       `json:"pages"`
	Finished  bool      `json:"finished"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// ReadingTotals aggregates a child's reading log
type ReadingTotals struct {
	ChildID       int64 `json:"child_id"`
	Sessions      int   `json:"sessions"`
	Minutes       int   `json:"minutes"`
	Pages         int   `json:"pages"`
	BooksFinished int   `json:"books_finished"`
	CurrentStreak int   `json:"current_streak"`
	LongestStreak int   `json:"longest_streak"`
}
