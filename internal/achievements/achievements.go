// Package achievements holds the badge catalog and decides which badges a
// child's metrics satisfy.
package achievements

// Category groups achievements on the achievements page
type Category string

const (
	Learning    Category = "learning"
	Consistency Category = "consistency"
	Mastery     Category = "mastery"
	Milestone   Category = "milestone"
)

// Categories lists every category in display order
var Categories = []Category{Learning, Consistency, Mastery, Milestone}

// Tier is the badge rarity
type Tier string

const (
	Bronze   Tier = "bronze"
	Silver   Tier = "silver"
	Gold     Tier = "gold"
	Platinum Tier = "platinum"
)

// RequirementType describes what kind of number a requirement measures.
// It does not change how the requirement is checked.
type RequirementType string

const (
	Count      RequirementType = "count"
	Streak     RequirementType = "streak"
	Score      RequirementType = "score"
	Completion RequirementType = "completion"
)

// Metric names used by the catalog
const (
	MetricLessonsCompleted     = "lessons_completed"
	MetricCoursesCompleted     = "courses_completed"
	MetricBooksRead            = "books_read"
	MetricReadingMinutes       = "reading_minutes"
	MetricReadingStreak        = "reading_streak"
	MetricAttendanceDays       = "attendance_days"
	MetricAttendanceStreak     = "attendance_streak"
	MetricAssignmentsCompleted = "assignments_completed"
	MetricPerfectScores        = "perfect_scores"
	MetricAverageScore         = "average_score"
	MetricPortfolioItems       = "portfolio_items"
	MetricGoalsCompleted       = "goals_completed"
)

// Requirement is the threshold a metric must reach
type Requirement struct {
	Metric string          `json:"metric"`
	Value  float64         `json:"value"`
	Type   RequirementType `json:"type"`
}

// Achievement is one catalog entry. Key is persisted with earned records
// and must never change.
type Achievement struct {
	Key         string      `json:"key"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	Category    Category    `json:"category"`
	Tier        Tier        `json:"tier"`
	Points      int         `json:"points"`
	Requirement Requirement `json:"requirement"`
}

// Metrics maps metric names to their current value
type Metrics map[string]float64

// IsSatisfied reports whether the metric named by the requirement has
// reached its value. A missing metric counts as zero.
func IsSatisfied(a Achievement, metrics Metrics) bool {
	return metrics[a.Requirement.Metric] >= a.Requirement.Value
}

// ProgressOf returns how far the metrics are towards a, from 0 to 1
func ProgressOf(a Achievement, metrics Metrics) float64 {
	if a.Requirement.Value <= 0 {
		return 1
	}
	p := metrics[a.Requirement.Metric] / a.Requirement.Value
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Catalog returns a copy of every achievement in catalog order
func Catalog() []Achievement {
	out := make([]Achievement, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds an achievement by key
func Lookup(key string) (Achievement, bool) {
	for _, a := range catalog {
		if a.Key == key {
			return a, true
		}
	}
	return Achievement{}, false
}

// ByCategory returns the achievements in category, in catalog order
func ByCategory(category Category) []Achievement {
	var out []Achievement
	for _, a := range catalog {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// ValidCategory reports whether c names a catalog category
func ValidCategory(c string) bool {
	for _, cat := range Categories {
		if string(cat) == c {
			return true
		}
	}
	return false
}

// Evaluate returns every achievement the metrics satisfy
func Evaluate(metrics Metrics) []Achievement {
	var out []Achievement
	for _, a := range catalog {
		if IsSatisfied(a, metrics) {
			out = append(out, a)
		}
	}
	return out
}

// Newly returns satisfied achievements whose keys are not in earned
func Newly(metrics Metrics, earned map[string]bool) []Achievement {
	var out []Achievement
	for _, a := range catalog {
		if !earned[a.Key] && IsSatisfied(a, metrics) {
			out = append(out, a)
		}
	}
	return out
}

// TotalPoints sums the points of the given keys, skipping unknown ones
func TotalPoints(keys []string) int {
	total := 0
	for _, k := range keys {
		if a, ok := Lookup(k); ok {
			total += a.Points
		}
	}
	return total
}
