package models

import "time"

// Attendance statuses
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceExcused = "excused"
	AttendanceHalfDay = "half_day"
)

// Attendance records one child's school day
type Attendance struct {
	ID        int64     `json:"id"`
	ChildID   int64     `json:"child_id"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
	Hours     float64   `json:"hours"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// Attended reports whether the day counts towards attendance totals and streaks
func (a *Attendance) Attended() bool {
	return a.Status == AttendancePresent || a.Status == AttendanceHalfDay
}

// ValidAttendanceStatus reports whether s is a known status
func ValidAttendanceStatus(s string) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceExcused, AttendanceHalfDay:
		return true
	}
	return false
}

// AttendanceSummary aggregates attendance for a child
type AttendanceSummary struct {
	ChildID       int64   `json:"child_id"`
	DaysRecorded  int     `json:"days_recorded"`
	DaysAttended  int     `json:"days_attended"`
	DaysAbsent    int     `json:"days_absent"`
	DaysExcused   int     `json:"days_excused"`
	TotalHours    float64 `json:"total_hours"`
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
}
