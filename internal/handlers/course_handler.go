package handlers

import (
	"net/http"

	"village/internal/service"
)

// CourseHandler handles course and lesson progress requests
type CourseHandler struct {
	courseService *service.CourseService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courseService *service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

type courseRequest struct {
	Name          string   `json:"name"`
	Subject       string   `json:"subject"`
	TotalLessons  int      `json:"total_lessons"`
	CurrentLesson int      `json:"current_lesson"`
	GradeLevel    string   `json:"grade_level"`
	Credits       *float64 `json:"credits"`
	StartDate     *Date    `json:"start_date"`
	ActiveDays    []string `json:"active_days"`
}

func (c courseRequest) input() service.CourseInput {
	return service.CourseInput{
		Name:          c.Name,
		Subject:       c.Subject,
		TotalLessons:  c.TotalLessons,
		CurrentLesson: c.CurrentLesson,
		GradeLevel:    c.GradeLevel,
		Credits:       c.Credits,
		StartDate:     c.StartDate.Ptr(),
		ActiveDays:    c.ActiveDays,
	}
}

// ListCourses lists a child's courses
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}

	courses, err := h.courseService.ListCourses(user.ID, childID)
	if err != nil {
		respondWithServiceError(w, "Failed to list courses", err)
		return
	}
	respondOK(w, courses)
}

// CreateCourse adds a course for a child
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}
	var in courseRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	course, err := h.courseService.CreateCourse(user.ID, childID, in.input())
	if err != nil {
		respondWithServiceError(w, "Failed to create course", err)
		return
	}
	respondCreated(w, course)
}

// GetCourse returns one course
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	courseID, ok := pathID(w, r, "courseID")
	if !ok {
		return
	}

	course, err := h.courseService.GetCourse(user.ID, courseID)
	if err != nil {
		respondWithServiceError(w, "Failed to get course", err)
		return
	}
	respondOK(w, course)
}

// UpdateCourse edits a course
func (h *CourseHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	courseID, ok := pathID(w, r, "courseID")
	if !ok {
		return
	}
	var in courseRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	course, err := h.courseService.UpdateCourse(user.ID, courseID, in.input())
	if err != nil {
		respondWithServiceError(w, "Failed to update course", err)
		return
	}
	respondOK(w, course)
}

// DeleteCourse removes a course
func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	courseID, ok := pathID(w, r, "courseID")
	if !ok {
		return
	}

	if err := h.courseService.DeleteCourse(user.ID, courseID); err != nil {
		respondWithServiceError(w, "Failed to delete course", err)
		return
	}
	respondMessage(w, "Course deleted")
}

// AdvanceLesson marks one or more lessons done. The body is optional.
func (h *CourseHandler) AdvanceLesson(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	courseID, ok := pathID(w, r, "courseID")
	if !ok {
		return
	}
	in := struct {
		Count int `json:"count"`
	}{Count: 1}
	if r.ContentLength != 0 && !decodeJSON(w, r, &in) {
		return
	}

	course, err := h.courseService.AdvanceLesson(user.ID, courseID, in.Count)
	if err != nil {
		respondWithServiceError(w, "Failed to advance lesson", err)
		return
	}
	respondOK(w, course)
}

// Progress reports a course against the school calendar
func (h *CourseHandler) Progress(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	courseID, ok := pathID(w, r, "courseID")
	if !ok {
		return
	}
	yearID, ok := queryID(w, r, "year_id")
	if !ok {
		return
	}

	progress, err := h.courseService.Progress(user.ID, courseID, yearID)
	if err != nil {
		respondWithServiceError(w, "Failed to compute course progress", err)
		return
	}
	respondOK(w, progress)
}
