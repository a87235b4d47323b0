package service

import (
	"fmt"
	"strings"
	"time"

	"village/internal/models"
	"village/internal/repository"
	"village/internal/streak"
	"village/internal/validation"
)

const maxHoursPerDay = 24

// AttendanceInput marks one school day
type AttendanceInput struct {
	Date   time.Time `json:"date"`
	Status string    `json:"status"`
	Hours  float64   `json:"hours"`
	Notes  string    `json:"notes"`
}

// AttendanceService records school days and summarises them
type AttendanceService struct {
	attendanceRepo *repository.AttendanceRepository
	families       *FamilyService
	awards         *AchievementService
	clock          *Clock
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(attendanceRepo *repository.AttendanceRepository, families *FamilyService, awards *AchievementService, clock *Clock) *AttendanceService {
	return &AttendanceService{
		attendanceRepo: attendanceRepo,
		families:       families,
		awards:         awards,
		clock:          clock,
	}
}

// Mark records attendance for a day, replacing any earlier record for that day
func (s *AttendanceService) Mark(userID, childID int64, in AttendanceInput) (*models.Attendance, error) {
	if _, err := s.families.ChildForUser(userID, childID); err != nil {
		return nil, err
	}

	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if in.Status == "" {
		in.Status = models.AttendancePresent
	}
	if !models.ValidAttendanceStatus(in.Status) {
		return nil, validation.ValidationError{Field: "status", Message: "status must be present, absent, excused or half_day"}
	}
	if in.Date.IsZero() {
		in.Date = s.clock.Today()
	}
	if in.Hours < 0 || in.Hours > maxHoursPerDay {
		return nil, validation.ValidationError{Field: "hours", Message: "hours must be between 0 and 24"}
	}

	record, err := s.attendanceRepo.Upsert(&models.Attendance{
		ChildID: childID,
		Date:    in.Date,
		Status:  in.Status,
		Hours:   in.Hours,
		Notes:   strings.TrimSpace(in.Notes),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark attendance: %w", err)
	}

	s.awards.afterChange(childID)
	return record, nil
}

// List returns a child's attendance within a date range
func (s *AttendanceService) List(userID, childID int64, dr repository.DateRange) ([]models.Attendance, error) {
	if _, err := s.families.ChildForUser(userID, childID); err != nil {
		return nil, err
	}
	records, err := s.attendanceRepo.List(childID, dr)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

// Delete removes an attendance record
func (s *AttendanceService) Delete(userID, recordID int64) error {
	record, err := s.attendanceRepo.GetByID(recordID)
	if err != nil {
		return fmt.Errorf("failed to get attendance: %w", err)
	}
	if record == nil {
		return ErrAttendanceNotFound
	}
	if _, err := s.families.ChildForUser(userID, record.ChildID); err != nil {
		return err
	}
	if err := s.attendanceRepo.Delete(recordID); err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	return nil
}

// Summary totals a child's attendance within a date range
func (s *AttendanceService) Summary(userID, childID int64, dr repository.DateRange) (*models.AttendanceSummary, error) {
	if _, err := s.families.ChildForUser(userID, childID); err != nil {
		return nil, err
	}
	return s.summary(childID, dr)
}

func (s *AttendanceService) summary(childID int64, dr repository.DateRange) (*models.AttendanceSummary, error) {
	records, err := s.attendanceRepo.List(childID, dr)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return summarizeAttendance(childID, records, s.clock.Today()), nil
}

func summarizeAttendance(childID int64, records []models.Attendance, today time.Time) *models.AttendanceSummary {
	summary := &models.AttendanceSummary{ChildID: childID, DaysRecorded: len(records)}
	for i := range records {
		r := &records[i]
		switch {
		case r.Attended():
			summary.DaysAttended++
		case r.Status == models.AttendanceExcused:
			summary.DaysExcused++
		case r.Status == models.AttendanceAbsent:
			summary.DaysAbsent++
		}
		summary.TotalHours += r.Hours
	}
	attended := attendedDates(records)
	summary.CurrentStreak = streak.Current(attended, today)
	summary.LongestStreak = streak.Longest(attended)
	return summary
}
