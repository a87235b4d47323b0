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

// ReadingInput is one reading session
type ReadingInput struct {
	Title    string    `json:"title"`
	Author   string    `json:"author"`
	Date     time.Time `json:"date"`
	Minutes  int       `json:"minutes"`
	Pages    int       `json:"pages"`
	Finished bool      `json:"finished"`
	Notes    string    `json:"notes"`
}

// ReadingService keeps each child's reading log
type ReadingService struct {
	readingRepo *repository.ReadingRepository
	families    *FamilyService
	awards      *AchievementService
	clock       *Clock
}

// NewReadingService creates a new reading service
func NewReadingService(readingRepo *repository.ReadingRepository, families *FamilyService, awards *AchievementService, clock *Clock) *ReadingService {
	return &ReadingService{
		readingRepo: readingRepo,
		families:    families,
		awards:      awards,
		clock:       clock,
	}
}

// Log records a reading session for a child the user may manage
func (s *ReadingService) Log(userID, childID int64, in ReadingInput) (*models.ReadingLog, error) {
	if _, err := s.families.ChildForUser(userID, childID); err != nil {
		return nil, err
	}
	return s.LogForChild(childID, in)
}

// LogForChild records a reading session for an already authorised child
func (s *ReadingService) LogForChild(childID int64, in ReadingInput) (*models.ReadingLog, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.ValidateRequired("title", in.Title, 200); err != nil {
		return nil, err
	}
	if err := validation.ValidateIntRange("minutes", in.Minutes, 0, 24*60); err != nil {
		return nil, err
	}
	if in.Pages < 0 {
		return nil, validation.ValidationError{Field: "pages", Message: "pages cannot be negative"}
	}
	if in.Date.IsZero() {
		in.Date = s.clock.Today()
	}

	entry, err := s.readingRepo.Create(&models.ReadingLog{
		ChildID:  childID,
		Title:    in.Title,
		Author:   strings.TrimSpace(in.Author),
		Date:     in.Date,
		Minutes:  in.Minutes,
		Pages:    in.Pages,
		Finished: in.Finished,
		Notes:    strings.TrimSpace(in.Notes),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to log reading: %w", err)
	}

	s.awards.afterChange(childID)
	return entry, nil
}

// List returns a child's reading log within a date range
func (s *ReadingService) List(userID, childID int64, dr repository.DateRange) ([]models.ReadingLog, error) {
	if _, err := s.families.ChildForUser(userID, childID); err != nil {
		return nil, err
	}
	return s.ListForChild(childID, dr)
}

// ListForChild returns an already authorised child's reading log
func (s *ReadingService) ListForChild(childID int64, dr repository.DateRange) ([]models.ReadingLog, error) {
	logs, err := s.readingRepo.List(childID, dr)
	if err != nil {
		return nil, fmt.Errorf("failed to list reading logs: %w", err)
	}
	return logs, nil
}

// Delete removes a reading log entry
func (s *ReadingService) Delete(userID, logID int64) error {
	entry, err := s.readingRepo.GetByID(logID)
	if err != nil {
		return fmt.Errorf("failed to get reading log: %w", err)
	}
	if entry == nil {
		return ErrReadingLogNotFound
	}
	if _, err := s.families.ChildForUser(userID, entry.ChildID); err != nil {
		return err
	}
	if err := s.readingRepo.Delete(logID); err != nil {
		return fmt.Errorf("failed to delete reading log: %w", err)
	}
	return nil
}

// Totals aggregates an already authorised child's reading within a date range
func (s *ReadingService) Totals(childID int64, dr repository.DateRange) (*models.ReadingTotals, error) {
	logs, err := s.readingRepo.List(childID, dr)
	if err != nil {
		return nil, fmt.Errorf("failed to list reading logs: %w", err)
	}
	return readingTotals(childID, logs, s.clock.Today()), nil
}

func readingTotals(childID int64, logs []models.ReadingLog, today time.Time) *models.ReadingTotals {
	totals := &models.ReadingTotals{ChildID: childID, Sessions: len(logs)}
	dates := make([]time.Time, 0, len(logs))
	for i := range logs {
		totals.Minutes += logs[i].Minutes
		totals.Pages += logs[i].Pages
		if logs[i].Finished {
			totals.BooksFinished++
		}
		dates = append(dates, logs[i].Date)
	}
	totals.CurrentStreak = streak.Current(dates, today)
	totals.LongestStreak = streak.Longest(dates)
	return totals
}
