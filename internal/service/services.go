package service

import (
	"time"

	"village/internal/database"
	"village/internal/repository"
	"village/internal/security"
	"village/internal/storage"
)

// Options configures the service graph
type Options struct {
	Tokens          *security.TokenIssuer
	Email           *EmailService
	Store           storage.Store
	Clock           *Clock
	SessionDuration time.Duration
	MaxUploadSize   int64
}

// Services holds every service the HTTP layer and CLI use
type Services struct {
	Auth         *AuthService
	Families     *FamilyService
	Calendar     *CalendarService
	Courses      *CourseService
	Attendance   *AttendanceService
	Assignments  *AssignmentService
	Reading      *ReadingService
	Goals        *GoalService
	Portfolio    *PortfolioService
	Achievements *AchievementService
	Reports      *ReportService
	Backup       *BackupService
}

// New builds the repositories and services on top of db
func New(db *database.DB, opts Options) *Services {
	userRepo := repository.NewUserRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	childRepo := repository.NewChildRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	readingRepo := repository.NewReadingRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)

	if opts.Clock == nil {
		opts.Clock = NewClock(nil)
	}
	if opts.SessionDuration == 0 {
		opts.SessionDuration = 24 * time.Hour
	}

	families := NewFamilyService(familyRepo, childRepo)
	awards := NewAchievementService(childRepo, courseRepo, attendanceRepo, assignmentRepo,
		readingRepo, goalRepo, portfolioRepo, achievementRepo, opts.Clock)
	calendar := NewCalendarService(calendarRepo, families, opts.Clock)
	assignments := NewAssignmentService(assignmentRepo, courseRepo, families, awards, opts.Clock)

	return &Services{
		Auth:         NewAuthService(userRepo, familyRepo, settingsRepo, opts.Tokens, opts.Email, opts.SessionDuration),
		Families:     families,
		Calendar:     calendar,
		Courses:      NewCourseService(courseRepo, families, calendar, awards, opts.Clock),
		Attendance:   NewAttendanceService(attendanceRepo, families, awards, opts.Clock),
		Assignments:  assignments,
		Reading:      NewReadingService(readingRepo, families, awards, opts.Clock),
		Goals:        NewGoalService(goalRepo, families, awards, opts.Clock),
		Portfolio:    NewPortfolioService(portfolioRepo, courseRepo, opts.Store, families, awards, opts.Clock, opts.MaxUploadSize),
		Achievements: awards,
		Reports: NewReportService(families, calendar, assignments, ReportRepositories{
			Courses:      courseRepo,
			Calendar:     calendarRepo,
			Attendance:   attendanceRepo,
			Assignments:  assignmentRepo,
			Reading:      readingRepo,
			Goals:        goalRepo,
			Portfolio:    portfolioRepo,
			Achievements: achievementRepo,
		}, opts.Email, opts.Clock),
		Backup: NewBackupService(db),
	}
}
