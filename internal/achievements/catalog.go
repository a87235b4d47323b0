package achievements

// Points per tier
const (
	bronzePoints   = 10
	silverPoints   = 25
	goldPoints     = 50
	platinumPoints = 100
)

func entry(key, name, desc, icon string, cat Category, tier Tier, metric string, value float64, typ RequirementType) Achievement {
	points := bronzePoints
	switch tier {
	case Silver:
		points = silverPoints
	case Gold:
		points = goldPoints
	case Platinum:
		points = platinumPoints
	}
	return Achievement{
		Key:         key,
		Name:        name,
		Description: desc,
		Icon:        icon,
		Category:    cat,
		Tier:        tier,
		Points:      points,
		Requirement: Requirement{Metric: metric, Value: value, Type: typ},
	}
}

// catalog is never modified after init; accessors hand out copies
var catalog = []Achievement{
	// Learning
	entry("first_lesson", "First Steps", "Complete your first lesson", "🎯", Learning, Bronze, MetricLessonsCompleted, 1, Count),
	entry("lesson_explorer", "Lesson Explorer", "Complete 10 lessons", "🧭", Learning, Bronze, MetricLessonsCompleted, 10, Count),
	entry("dedicated_learner", "Dedicated Learner", "Complete 50 lessons", "📘", Learning, Silver, MetricLessonsCompleted, 50, Count),
	entry("century_scholar", "Century Scholar", "Complete 100 lessons", "🎓", Learning, Gold, MetricLessonsCompleted, 100, Count),
	entry("lesson_legend", "Lesson Legend", "Complete 500 lessons", "🏛️", Learning, Platinum, MetricLessonsCompleted, 500, Count),
	entry("first_book", "First Chapter", "Finish your first book", "📖", Learning, Bronze, MetricBooksRead, 1, Count),
	entry("bookworm", "Bookworm", "Finish 10 books", "🐛", Learning, Silver, MetricBooksRead, 10, Count),
	entry("library_master", "Library Master", "Finish 25 books", "📚", Learning, Gold, MetricBooksRead, 25, Count),

	// Consistency
	entry("streak_3", "Getting Started", "Attend school 3 days in a row", "🔥", Consistency, Bronze, MetricAttendanceStreak, 3, Streak),
	entry("streak_7", "Week Warrior", "Attend school 7 days in a row", "⚡", Consistency, Silver, MetricAttendanceStreak, 7, Streak),
	entry("streak_30", "Monthly Master", "Attend school 30 days in a row", "🌟", Consistency, Gold, MetricAttendanceStreak, 30, Streak),
	entry("streak_100", "Unstoppable", "Attend school 100 days in a row", "💎", Consistency, Platinum, MetricAttendanceStreak, 100, Streak),
	entry("reading_streak_7", "Reading Habit", "Read 7 days in a row", "🔖", Consistency, Silver, MetricReadingStreak, 7, Streak),
	entry("reading_streak_30", "Devoted Reader", "Read 30 days in a row", "🌙", Consistency, Gold, MetricReadingStreak, 30, Streak),
	entry("school_days_180", "Full Year", "Attend 180 school days", "🗓️", Consistency, Gold, MetricAttendanceDays, 180, Count),

	// Mastery
	entry("first_perfect", "Perfect Score", "Get full marks on an assignment", "💯", Mastery, Bronze, MetricPerfectScores, 1, Count),
	entry("perfect_5", "Sharp Mind", "Get full marks on 5 assignments", "🧠", Mastery, Silver, MetricPerfectScores, 5, Count),
	entry("perfect_20", "Flawless", "Get full marks on 20 assignments", "👑", Mastery, Gold, MetricPerfectScores, 20, Count),
	entry("high_achiever", "High Achiever", "Keep an average score of 80% or more", "⭐", Mastery, Silver, MetricAverageScore, 80, Score),
	entry("honor_roll", "Honor Roll", "Keep an average score of 90% or more", "🏅", Mastery, Gold, MetricAverageScore, 90, Score),
	entry("distinction", "Distinction", "Keep an average score of 97% or more", "🏆", Mastery, Platinum, MetricAverageScore, 97, Score),
	entry("assignments_50", "Hard Worker", "Complete 50 assignments", "✏️", Mastery, Silver, MetricAssignmentsCompleted, 50, Count),

	// Milestone
	entry("first_course_complete", "Course Complete", "Finish every lesson in a course", "✅", Milestone, Silver, MetricCoursesCompleted, 1, Completion),
	entry("courses_5", "Well Rounded", "Finish 5 courses", "🎒", Milestone, Gold, MetricCoursesCompleted, 5, Completion),
	entry("portfolio_first", "Show and Tell", "Add your first portfolio item", "🖼️", Milestone, Bronze, MetricPortfolioItems, 1, Count),
	entry("portfolio_25", "Curator", "Add 25 portfolio items", "🎨", Milestone, Silver, MetricPortfolioItems, 25, Count),
	entry("goal_getter", "Goal Getter", "Complete your first goal", "🥅", Milestone, Bronze, MetricGoalsCompleted, 1, Completion),
	entry("goal_crusher", "Goal Crusher", "Complete 10 goals", "🚀", Milestone, Gold, MetricGoalsCompleted, 10, Completion),
}
