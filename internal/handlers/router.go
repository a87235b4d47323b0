package handlers

import (
	"context"
	"net/http"

	"village/internal/security"
	"village/internal/service"
)

// RouterConfig holds what the API router needs beyond the services
type RouterConfig struct {
	Services             *service.Services
	CSRF                 *security.CSRFGenerator
	LoginLimiter         *security.RateLimiter
	OAuthProviders       map[string]OAuthProvider
	OAuthRedirectBaseURL string
	MaxUploadSize        int64

	// ChildLoginLimiter caps PIN attempts per child account
	ChildLoginLimiter *security.RateLimiter
	// TrustProxy reads client addresses from forwarding headers
	TrustProxy bool
	// Files serves /files/ when portfolio uploads are stored locally
	Files http.Handler
	Ping  func(ctx context.Context) error
}

// NewRouter registers every API route and wraps the mux with request logging
func NewRouter(cfg RouterConfig) http.Handler {
	svc := cfg.Services
	m := NewMiddleware(svc.Auth, svc.Families, cfg.CSRF, cfg.LoginLimiter, cfg.ChildLoginLimiter, cfg.TrustProxy)

	health := NewHealthHandler(cfg.Ping)
	auth := NewAuthHandler(svc.Auth, svc.Families, m, cfg.OAuthProviders, cfg.OAuthRedirectBaseURL)
	admin := NewAdminHandler(svc.Auth, svc.Backup)
	families := NewFamilyHandler(svc.Families)
	child := NewChildHandler(svc.Families, svc.Reading, svc.Achievements, m)
	calendar := NewCalendarHandler(svc.Calendar)
	courses := NewCourseHandler(svc.Courses)
	attendance := NewAttendanceHandler(svc.Attendance)
	assignments := NewAssignmentHandler(svc.Assignments)
	reading := NewReadingHandler(svc.Reading, svc.Families)
	goals := NewGoalHandler(svc.Goals)
	portfolio := NewPortfolioHandler(svc.Portfolio, cfg.MaxUploadSize)
	awards := NewAchievementHandler(svc.Achievements, svc.Families)
	reports := NewReportHandler(svc.Reports)

	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz)

	if cfg.Files != nil {
		mux.Handle("GET /files/", http.StripPrefix("/files", cfg.Files))
	}

	// Auth
	mux.HandleFunc("POST /api/auth/register", m.RateLimit(auth.Register))
	mux.HandleFunc("POST /api/auth/login", m.RateLimit(auth.Login))
	mux.HandleFunc("POST /api/auth/logout", m.Parent(auth.Logout))
	mux.HandleFunc("GET /api/auth/me", m.RequireAuth(auth.Me))
	mux.HandleFunc("GET /api/auth/csrf", m.RequireAuth(auth.CSRFToken))
	mux.HandleFunc("POST /api/auth/token", m.RateLimit(auth.Token))
	mux.HandleFunc("POST /api/auth/forgot-password", m.RateLimit(auth.ForgotPassword))
	mux.HandleFunc("GET /api/auth/reset-password", auth.ValidateResetToken)
	mux.HandleFunc("POST /api/auth/reset-password", m.RateLimit(auth.ResetPassword))
	mux.HandleFunc("GET /api/auth/oauth", auth.Providers)
	mux.HandleFunc("GET /api/auth/oauth/{provider}/start", auth.StartOAuth)
	mux.HandleFunc("GET /api/auth/oauth/{provider}/callback", auth.OAuthCallback)
	mux.HandleFunc("GET /api/auth/registration", admin.RegistrationStatus)

	// Admin
	mux.HandleFunc("PUT /api/admin/registration", m.Admin(admin.SetRegistration))
	mux.HandleFunc("GET /api/admin/stats", m.Admin(admin.DatabaseStats))
	mux.HandleFunc("GET /api/admin/backup", m.Admin(admin.ExportDatabase))
	mux.HandleFunc("POST /api/admin/backup", m.Admin(admin.ImportDatabase))

	// Families
	mux.HandleFunc("GET /api/families", m.Parent(families.ListFamilies))
	mux.HandleFunc("POST /api/families", m.Parent(families.CreateFamily))
	mux.HandleFunc("POST /api/families/join", m.Parent(families.JoinFamily))
	mux.HandleFunc("GET /api/families/{familyID}", m.Parent(families.GetFamily))
	mux.HandleFunc("PUT /api/families/{familyID}", m.Parent(families.RenameFamily))
	mux.HandleFunc("DELETE /api/families/{familyID}/membership", m.Parent(families.LeaveFamily))
	mux.HandleFunc("GET /api/families/{familyID}/children", m.Parent(families.ListFamilyChildren))
	mux.HandleFunc("POST /api/families/{familyID}/children", m.Parent(families.CreateChild))
	mux.HandleFunc("GET /api/families/{familyID}/school-years", m.Parent(calendar.ListSchoolYears))
	mux.HandleFunc("POST /api/families/{familyID}/school-years", m.Parent(calendar.CreateSchoolYear))

	// Children
	mux.HandleFunc("GET /api/children", m.Parent(families.ListChildren))
	mux.HandleFunc("GET /api/children/{childID}", m.Parent(families.GetChild))
	mux.HandleFunc("PUT /api/children/{childID}", m.Parent(families.UpdateChild))
	mux.HandleFunc("DELETE /api/children/{childID}", m.Parent(families.DeleteChild))
	mux.HandleFunc("POST /api/children/{childID}/regenerate-pin", m.Parent(families.RegeneratePIN))

	// Calendar
	mux.HandleFunc("GET /api/school-years/{yearID}", m.Parent(calendar.GetSchoolYear))
	mux.HandleFunc("PUT /api/school-years/{yearID}", m.Parent(calendar.UpdateSchoolYear))
	mux.HandleFunc("DELETE /api/school-years/{yearID}", m.Parent(calendar.DeleteSchoolYear))
	mux.HandleFunc("GET /api/school-years/{yearID}/breaks", m.Parent(calendar.ListBreaks))
	mux.HandleFunc("POST /api/school-years/{yearID}/breaks", m.Parent(calendar.AddBreak))
	mux.HandleFunc("DELETE /api/breaks/{breakID}", m.Parent(calendar.DeleteBreak))

	// Courses
	mux.HandleFunc("GET /api/children/{childID}/courses", m.Parent(courses.ListCourses))
	mux.HandleFunc("POST /api/children/{childID}/courses", m.Parent(courses.CreateCourse))
	mux.HandleFunc("GET /api/courses/{courseID}", m.Parent(courses.GetCourse))
	mux.HandleFunc("PUT /api/courses/{courseID}", m.Parent(courses.UpdateCourse))
	mux.HandleFunc("DELETE /api/courses/{courseID}", m.Parent(courses.DeleteCourse))
	mux.HandleFunc("POST /api/courses/{courseID}/advance", m.Parent(courses.AdvanceLesson))
	mux.HandleFunc("GET /api/courses/{courseID}/progress", m.Parent(courses.Progress))

	// Attendance
	mux.HandleFunc("GET /api/children/{childID}/attendance", m.Parent(attendance.List))
	mux.HandleFunc("POST /api/children/{childID}/attendance", m.Parent(attendance.Mark))
	mux.HandleFunc("GET /api/children/{childID}/attendance/summary", m.Parent(attendance.Summary))
	mux.HandleFunc("DELETE /api/attendance/{recordID}", m.Parent(attendance.Delete))

	// Assignments
	mux.HandleFunc("GET /api/children/{childID}/assignments", m.Parent(assignments.List))
	mux.HandleFunc("POST /api/children/{childID}/assignments", m.Parent(assignments.Create))
	mux.HandleFunc("GET /api/children/{childID}/grades", m.Parent(assignments.Grades))
	mux.HandleFunc("GET /api/assignments/{assignmentID}", m.Parent(assignments.Get))
	mux.HandleFunc("PUT /api/assignments/{assignmentID}", m.Parent(assignments.Update))
	mux.HandleFunc("DELETE /api/assignments/{assignmentID}", m.Parent(assignments.Delete))
	mux.HandleFunc("POST /api/assignments/{assignmentID}/complete", m.Parent(assignments.Complete))
	mux.HandleFunc("POST /api/assignments/{assignmentID}/grade", m.Parent(assignments.Grade))

	// Reading
	mux.HandleFunc("GET /api/children/{childID}/reading", m.Parent(reading.List))
	mux.HandleFunc("POST /api/children/{childID}/reading", m.Parent(reading.Log))
	mux.HandleFunc("GET /api/children/{childID}/reading/totals", m.Parent(reading.Totals))
	mux.HandleFunc("DELETE /api/reading/{logID}", m.Parent(reading.Delete))

	// Goals
	mux.HandleFunc("GET /api/children/{childID}/goals", m.Parent(goals.List))
	mux.HandleFunc("POST /api/children/{childID}/goals", m.Parent(goals.Create))
	mux.HandleFunc("PUT /api/goals/{goalID}", m.Parent(goals.Update))
	mux.HandleFunc("DELETE /api/goals/{goalID}", m.Parent(goals.Delete))
	mux.HandleFunc("POST /api/goals/{goalID}/complete", m.Parent(goals.Complete))

	// Portfolio
	mux.HandleFunc("GET /api/children/{childID}/portfolio", m.Parent(portfolio.List))
	mux.HandleFunc("POST /api/children/{childID}/portfolio", m.Parent(portfolio.Upload))
	mux.HandleFunc("DELETE /api/portfolio/{itemID}", m.Parent(portfolio.Delete))

	// Achievements
	mux.HandleFunc("GET /api/achievements", awards.Catalog)
	mux.HandleFunc("GET /api/achievements/{key}", awards.Get)
	mux.HandleFunc("GET /api/children/{childID}/achievements", m.Parent(awards.Overview))
	mux.HandleFunc("POST /api/children/{childID}/achievements/check", m.Parent(awards.Check))

	// Reports
	mux.HandleFunc("GET /api/dashboard", m.Parent(reports.Dashboard))
	mux.HandleFunc("GET /api/children/{childID}/report", m.Parent(reports.ProgressReport))
	mux.HandleFunc("POST /api/children/{childID}/report/email", m.Parent(reports.EmailProgressReport))
	mux.HandleFunc("GET /api/children/{childID}/transcript", m.Parent(reports.Transcript))

	// Student view
	mux.HandleFunc("POST /api/child/login", m.RateLimit(child.Login))
	mux.HandleFunc("POST /api/child/logout", m.Child(child.Logout))
	mux.HandleFunc("GET /api/child/me", m.RequireChildAuth(child.Me))
	mux.HandleFunc("GET /api/child/reading", m.RequireChildAuth(child.ListReading))
	mux.HandleFunc("POST /api/child/reading", m.Child(child.LogReading))
	mux.HandleFunc("GET /api/child/achievements", m.RequireChildAuth(child.Achievements))

	return Logging(mux)
}
