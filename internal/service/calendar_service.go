package service

import (
	"fmt"
	"strings"
	"time"

	"village/internal/models"
	"village/internal/repository"
	"village/internal/validation"
)

// SchoolYearInput holds the editable fields of a school year
type SchoolYearInput struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// BreakInput holds the editable fields of a school break
type BreakInput struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// SchoolYearWithBreaks is a school year together with its breaks
type SchoolYearWithBreaks struct {
	models.SchoolYear
	Breaks []models.SchoolBreak `json:"breaks"`
}

// CalendarService manages school years and breaks
type CalendarService struct {
	calendarRepo *repository.CalendarRepository
	families     *FamilyService
	clock        *Clock
}

// NewCalendarService creates a new calendar service
func NewCalendarService(calendarRepo *repository.CalendarRepository, families *FamilyService, clock *Clock) *CalendarService {
	return &CalendarService{
		calendarRepo: calendarRepo,
		families:     families,
		clock:        clock,
	}
}

// CreateSchoolYear adds a school year to a family
func (s *CalendarService) CreateSchoolYear(userID, familyID int64, in SchoolYearInput) (*models.SchoolYear, error) {
	if err := s.families.VerifyFamilyAccess(userID, familyID); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.ValidateRequired("name", in.Name, 100); err != nil {
		return nil, err
	}
	if err := validation.ValidateDateRange(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	year, err := s.calendarRepo.CreateSchoolYear(&models.SchoolYear{
		FamilyID:  familyID,
		Name:      in.Name,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create school year: %w", err)
	}
	return year, nil
}

// schoolYearForUser loads a school year and checks the user may see it
func (s *CalendarService) schoolYearForUser(userID, yearID int64) (*models.SchoolYear, error) {
	year, err := s.calendarRepo.GetSchoolYear(yearID)
	if err != nil {
		return nil, fmt.Errorf("failed to get school year: %w", err)
	}
	if year == nil {
		return nil, ErrSchoolYearNotFound
	}
	if err := s.families.VerifyFamilyAccess(userID, year.FamilyID); err != nil {
		return nil, err
	}
	return year, nil
}

// GetSchoolYear returns a school year with its breaks
func (s *CalendarService) GetSchoolYear(userID, yearID int64) (*SchoolYearWithBreaks, error) {
	year, err := s.schoolYearForUser(userID, yearID)
	if err != nil {
		return nil, err
	}
	breaks, err := s.calendarRepo.GetBreaks(year.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get breaks: %w", err)
	}
	return &SchoolYearWithBreaks{SchoolYear: *year, Breaks: breaks}, nil
}

// ListSchoolYears lists a family's school years, most recent first
func (s *CalendarService) ListSchoolYears(userID, familyID int64) ([]models.SchoolYear, error) {
	if err := s.families.VerifyFamilyAccess(userID, familyID); err != nil {
		return nil, err
	}
	years, err := s.calendarRepo.GetFamilySchoolYears(familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list school years: %w", err)
	}
	return years, nil
}

// UpdateSchoolYear changes a school year's name and dates
func (s *CalendarService) UpdateSchoolYear(userID, yearID int64, in SchoolYearInput) (*models.SchoolYear, error) {
	year, err := s.schoolYearForUser(userID, yearID)
	if err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.ValidateRequired("name", in.Name, 100); err != nil {
		return nil, err
	}
	if err := validation.ValidateDateRange(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	year.Name = in.Name
	year.StartDate = models.CivilDate(in.StartDate)
	year.EndDate = models.CivilDate(in.EndDate)
	if err := s.calendarRepo.UpdateSchoolYear(year); err != nil {
		return nil, fmt.Errorf("failed to update school year: %w", err)
	}
	return year, nil
}

// DeleteSchoolYear removes a school year and its breaks
func (s *CalendarService) DeleteSchoolYear(userID, yearID int64) error {
	if _, err := s.schoolYearForUser(userID, yearID); err != nil {
		return err
	}
	if err := s.calendarRepo.DeleteSchoolYear(yearID); err != nil {
		return fmt.Errorf("failed to delete school year: %w", err)
	}
	return nil
}

// AddBreak adds a break to a school year. Breaks may extend past the year;
// only the days inside the year matter for scheduling.
func (s *CalendarService) AddBreak(userID, yearID int64, in BreakInput) (*models.SchoolBreak, error) {
	if _, err := s.schoolYearForUser(userID, yearID); err != nil {
		return nil, err
	}
	if err := validation.ValidateDateRange(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if len(in.Name) > 100 {
		return nil, validation.ValidationError{Field: "name", Message: "name must be at most 100 characters"}
	}

	b, err := s.calendarRepo.CreateBreak(&models.SchoolBreak{
		SchoolYearID: yearID,
		Name:         in.Name,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create break: %w", err)
	}
	return b, nil
}

// ListBreaks lists a school year's breaks
func (s *CalendarService) ListBreaks(userID, yearID int64) ([]models.SchoolBreak, error) {
	if _, err := s.schoolYearForUser(userID, yearID); err != nil {
		return nil, err
	}
	breaks, err := s.calendarRepo.GetBreaks(yearID)
	if err != nil {
		return nil, fmt.Errorf("failed to list breaks: %w", err)
	}
	return breaks, nil
}

// DeleteBreak removes a break
func (s *CalendarService) DeleteBreak(userID, breakID int64) error {
	b, err := s.calendarRepo.GetBreak(breakID)
	if err != nil {
		return fmt.Errorf("failed to get break: %w", err)
	}
	if b == nil {
		return ErrBreakNotFound
	}
	if _, err := s.schoolYearForUser(userID, b.SchoolYearID); err != nil {
		return err
	}
	if err := s.calendarRepo.DeleteBreak(breakID); err != nil {
		return fmt.Errorf("failed to delete break: %w", err)
	}
	return nil
}

// ActiveYear returns the family's school year covering day, with its breaks
func (s *CalendarService) ActiveYear(familyID int64, day time.Time) (*models.SchoolYear, []models.SchoolBreak, error) {
	year, err := s.calendarRepo.GetSchoolYearCovering(familyID, day)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find school year: %w", err)
	}
	if year == nil {
		return nil, nil, ErrNoActiveSchoolYear
	}
	breaks, err := s.calendarRepo.GetBreaks(year.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get breaks: %w", err)
	}
	return year, breaks, nil
}

// YearWithBreaks loads a specific school year of a family with its breaks
func (s *CalendarService) YearWithBreaks(familyID, yearID int64) (*models.SchoolYear, []models.SchoolBreak, error) {
	year, err := s.calendarRepo.GetSchoolYear(yearID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get school year: %w", err)
	}
	if year == nil || year.FamilyID != familyID {
		return nil, nil, ErrSchoolYearNotFound
	}
	breaks, err := s.calendarRepo.GetBreaks(year.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get breaks: %w", err)
	}
	return year, breaks, nil
}

// resolveYear picks the requested school year, or the one covering today
func (s *CalendarService) resolveYear(familyID int64, yearID *int64) (*models.SchoolYear, []models.SchoolBreak, error) {
	if yearID != nil {
		return s.YearWithBreaks(familyID, *yearID)
	}
	return s.ActiveYear(familyID, s.clock.Today())
}
