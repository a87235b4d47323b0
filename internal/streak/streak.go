// Package streak counts runs of consecutive calendar days.
package streak

import (
	"sort"
	"time"

	"village/internal/models"
)

// Current returns the length of the run of consecutive days ending today.
// A run may also end yesterday: a day that has not been logged yet does not
// break the streak. Duplicate dates and times of day are ignored.
func Current(dates []time.Time, today time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	seen := daySet(dates)
	day := models.CivilDate(today)
	if !seen[day] {
		day = day.AddDate(0, 0, -1)
	}

	count := 0
	for seen[day] {
		count++
		day = day.AddDate(0, 0, -1)
	}
	return count
}

// Longest returns the longest run of consecutive days anywhere in dates
func Longest(dates []time.Time) int {
	seen := daySet(dates)
	if len(seen) == 0 {
		return 0
	}

	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

func daySet(dates []time.Time) map[time.Time]bool {
	seen := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		seen[models.CivilDate(d)] = true
	}
	return seen
}
