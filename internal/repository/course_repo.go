package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"village/internal/database"
	"village/internal/models"
	"village/internal/schedule"
)

const courseColumns = `id, child_id, name, subject, total_lessons, current_lesson, grade_level,
	credits, start_date, active_days, last_lesson_date, created_at, updated_at`

// CourseRepository handles database operations for courses
type CourseRepository struct {
	db *database.DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *database.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func encodeActiveDays(days []string) string {
	if len(days) == 0 {
		return ""
	}
	data, err := json.Marshal(days)
	if err != nil {
		return ""
	}
	return string(data)
}

func scanCourse(row interface{ Scan(...interface{}) error }) (*models.Course, error) {
	course := &models.Course{}
	var startDate, lastLesson sql.NullTime
	var activeDays string
	err := row.Scan(
		&course.ID,
		&course.ChildID,
		&course.Name,
		&course.Subject,
		&course.TotalLessons,
		&course.CurrentLesson,
		&course.GradeLevel,
		&course.Credits,
		&startDate,
		&activeDays,
		&lastLesson,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	course.StartDate = datePtr(startDate)
	course.LastLessonDate = datePtr(lastLesson)
	course.ActiveDays = schedule.ParseActiveDays(activeDays).Strings()
	return course, nil
}

// CreateCourse inserts a course
func (r *CourseRepository) CreateCourse(course *models.Course) (*models.Course, error) {
	query := `
		INSERT INTO courses (child_id, name, subject, total_lessons, current_lesson, grade_level,
			credits, start_date, active_days, last_lesson_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		course.ChildID, course.Name, course.Subject, course.TotalLessons, course.CurrentLesson,
		course.GradeLevel, course.Credits, nullableDate(course.StartDate),
		encodeActiveDays(course.ActiveDays), nullableDate(course.LastLessonDate),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	created := *course
	created.ID = id
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	return &created, nil
}

// GetCourseByID retrieves a course by ID
func (r *CourseRepository) GetCourseByID(id int64) (*models.Course, error) {
	course, err := scanCourse(r.db.QueryRow("SELECT "+courseColumns+" FROM courses WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

// GetChildCourses lists a child's courses
func (r *CourseRepository) GetChildCourses(childID int64) ([]models.Course, error) {
	return r.list("SELECT "+courseColumns+" FROM courses WHERE child_id = ? ORDER BY name ASC, id ASC", childID)
}

// GetFamilyCourses lists the courses of every child in a family
func (r *CourseRepository) GetFamilyCourses(familyID int64) ([]models.Course, error) {
	query := `
		SELECT c.id, c.child_id, c.name, c.subject, c.total_lessons, c.current_lesson, c.grade_level,
		       c.credits, c.start_date, c.active_days, c.last_lesson_date, c.created_at, c.updated_at
		FROM courses c
		INNER JOIN children ch ON c.child_id = ch.id
		WHERE ch.family_id = ?
		ORDER BY c.child_id ASC, c.name ASC
	`
	return r.list(query, familyID)
}

func (r *CourseRepository) list(query string, args ...interface{}) ([]models.Course, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, *course)
	}
	return courses, rows.Err()
}

// UpdateCourse writes all editable course fields
func (r *CourseRepository) UpdateCourse(course *models.Course) error {
	query := `
		UPDATE courses
		SET name = ?, subject = ?, total_lessons = ?, current_lesson = ?, grade_level = ?,
			credits = ?, start_date = ?, active_days = ?, last_lesson_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		course.Name, course.Subject, course.TotalLessons, course.CurrentLesson, course.GradeLevel,
		course.Credits, nullableDate(course.StartDate), encodeActiveDays(course.ActiveDays),
		nullableDate(course.LastLessonDate), course.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	return nil
}

// SetLesson moves a course to the given lesson and stamps the lesson date
func (r *CourseRepository) SetLesson(courseID int64, lesson int, day time.Time) error {
	_, err := r.db.Exec("UPDATE courses SET current_lesson = ?, last_lesson_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		lesson, models.CivilDate(day), courseID)
	if err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}
	return nil
}

// DeleteCourse removes a course
func (r *CourseRepository) DeleteCourse(id int64) error {
	if _, err := r.db.Exec("DELETE FROM courses WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}

// CountChildLessons returns the number of lessons a child has finished across courses
func (r *CourseRepository) CountChildLessons(childID int64) (int, error) {
	courses, err := r.GetChildCourses(childID)
	if err != nil {
		return 0, err
	}
	total := 0
	for i := range courses {
		total += courses[i].LessonsCompleted()
	}
	return total, nil
}
