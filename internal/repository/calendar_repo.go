package repository

import (
	"database/sql"
	"fmt"
	"time"

	"village/internal/database"
	"village/internal/models"
)

// CalendarRepository handles school years and their breaks
type CalendarRepository struct {
	db *database.DB
}

// NewCalendarRepository creates a new calendar repository
func NewCalendarRepository(db *database.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// CreateSchoolYear inserts a school year
func (r *CalendarRepository) CreateSchoolYear(year *models.SchoolYear) (*models.SchoolYear, error) {
	query := "INSERT INTO school_years (family_id, name, start_date, end_date) VALUES (?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, year.FamilyID, year.Name, models.CivilDate(year.StartDate), models.CivilDate(year.EndDate))
	if err != nil {
		return nil, fmt.Errorf("failed to create school year: %w", err)
	}

	created := *year
	created.ID = id
	created.StartDate = models.CivilDate(year.StartDate)
	created.EndDate = models.CivilDate(year.EndDate)
	created.CreatedAt = time.Now()
	return &created, nil
}

func scanSchoolYear(row interface{ Scan(...interface{}) error }) (*models.SchoolYear, error) {
	year := &models.SchoolYear{}
	if err := row.Scan(&year.ID, &year.FamilyID, &year.Name, &year.StartDate, &year.EndDate, &year.CreatedAt); err != nil {
		return nil, err
	}
	year.StartDate = models.CivilDate(year.StartDate)
	year.EndDate = models.CivilDate(year.EndDate)
	return year, nil
}

// GetSchoolYear retrieves a school year by ID
func (r *CalendarRepository) GetSchoolYear(id int64) (*models.SchoolYear, error) {
	year, err := scanSchoolYear(r.db.QueryRow("SELECT id, family_id, name, start_date, end_date, created_at FROM school_years WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get school year: %w", err)
	}
	return year, nil
}

// GetFamilySchoolYears lists a family's school years, most recent first
func (r *CalendarRepository) GetFamilySchoolYears(familyID int64) ([]models.SchoolYear, error) {
	query := `
		SELECT id, family_id, name, start_date, end_date, created_at
		FROM school_years
		WHERE family_id = ?
		ORDER BY start_date DESC, id DESC
	`
	rows, err := r.db.Query(query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query school years: %w", err)
	}
	defer rows.Close()

	var years []models.SchoolYear
	for rows.Next() {
		year, err := scanSchoolYear(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan school year: %w", err)
		}
		years = append(years, *year)
	}
	return years, rows.Err()
}

// GetSchoolYearCovering returns the family's school year that contains day.
// When years overlap the latest start wins.
func (r *CalendarRepository) GetSchoolYearCovering(familyID int64, day time.Time) (*models.SchoolYear, error) {
	query := `
		SELECT id, family_id, name, start_date, end_date, created_at
		FROM school_years
		WHERE family_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date DESC, id DESC
		LIMIT 1
	`
	d := models.CivilDate(day)
	year, err := scanSchoolYear(r.db.QueryRow(query, familyID, d, d))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get school year: %w", err)
	}
	return year, nil
}

// UpdateSchoolYear updates a school year's name and dates
func (r *CalendarRepository) UpdateSchoolYear(year *models.SchoolYear) error {
	_, err := r.db.Exec("UPDATE school_years SET name = ?, start_date = ?, end_date = ? WHERE id = ?",
		year.Name, models.CivilDate(year.StartDate), models.CivilDate(year.EndDate), year.ID)
	if err != nil {
		return fmt.Errorf("failed to update school year: %w", err)
	}
	return nil
}

// DeleteSchoolYear removes a school year and its breaks
func (r *CalendarRepository) DeleteSchoolYear(id int64) error {
	if _, err := r.db.Exec("DELETE FROM school_years WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete school year: %w", err)
	}
	return nil
}

// CreateBreak inserts a break into a school year
func (r *CalendarRepository) CreateBreak(b *models.SchoolBreak) (*models.SchoolBreak, error) {
	query := "INSERT INTO school_breaks (school_year_id, name, start_date, end_date) VALUES (?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, b.SchoolYearID, b.Name, models.CivilDate(b.StartDate), models.CivilDate(b.EndDate))
	if err != nil {
		return nil, fmt.Errorf("failed to create break: %w", err)
	}
	created := *b
	created.ID = id
	created.StartDate = models.CivilDate(b.StartDate)
	created.EndDate = models.CivilDate(b.EndDate)
	return &created, nil
}

// GetBreak retrieves a break by ID
func (r *CalendarRepository) GetBreak(id int64) (*models.SchoolBreak, error) {
	b := &models.SchoolBreak{}
	err := r.db.QueryRow("SELECT id, school_year_id, name, start_date, end_date FROM school_breaks WHERE id = ?", id).Scan(
		&b.ID, &b.SchoolYearID, &b.Name, &b.StartDate, &b.EndDate,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get break: %w", err)
	}
	b.StartDate = models.CivilDate(b.StartDate)
	b.EndDate = models.CivilDate(b.EndDate)
	return b, nil
}

// GetBreaks lists the breaks of a school year in date order
func (r *CalendarRepository) GetBreaks(schoolYearID int64) ([]models.SchoolBreak, error) {
	query := `
		SELECT id, school_year_id, name, start_date, end_date
		FROM school_breaks
		WHERE school_year_id = ?
		ORDER BY start_date ASC, id ASC
	`
	rows, err := r.db.Query(query, schoolYearID)
	if err != nil {
		return nil, fmt.Errorf("failed to query breaks: %w", err)
	}
	defer rows.Close()

	var breaks []models.SchoolBreak
	for rows.Next() {
		var b models.SchoolBreak
		if err := rows.Scan(&b.ID, &b.SchoolYearID, &b.Name, &b.StartDate, &b.EndDate); err != nil {
			return nil, fmt.Errorf("failed to scan break: %w", err)
		}
		b.StartDate = models.CivilDate(b.StartDate)
		b.EndDate = models.CivilDate(b.EndDate)
		breaks = append(breaks, b)
	}
	return breaks, rows.Err()
}

// DeleteBreak removes a break
func (r *CalendarRepository) DeleteBreak(id int64) error {
	if _, err := r.db.Exec("DELETE FROM school_breaks WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete break: %w", err)
	}
	return nil
}
