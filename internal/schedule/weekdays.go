package schedule

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// WeekdaySet is a set of weekdays stored as a bitmask indexed by time.Weekday
type WeekdaySet uint8

// DefaultActiveDays is Monday through Friday
const DefaultActiveDays = WeekdaySet(1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday | 1<<time.Thursday | 1<<time.Friday)

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// NewWeekdaySet builds a set from the given days
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		if d >= time.Sunday && d <= time.Saturday {
			s |= 1 << d
		}
	}
	return s
}

// Has reports whether d is in the set
func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<d) != 0
}

// Len returns the number of days in the set
func (s WeekdaySet) Len() int {
	n := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Days returns the members in Sunday-first order
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// Strings returns three-letter names ("Mon", "Wed") in Sunday-first order
func (s WeekdaySet) Strings() []string {
	days := s.Days()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()[:3]
	}
	return names
}

// ParseActiveDays normalises a stored active-days value. It accepts a JSON
// array of names or digits, or a comma or space separated list. Unknown
// tokens are ignored; when nothing valid remains the default Mon-Fri set is
// returned.
func ParseActiveDays(raw string) WeekdaySet {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultActiveDays
	}

	if strings.HasPrefix(raw, "[") {
		var items []any
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return DefaultActiveDays
		}
		tokens := make([]string, 0, len(items))
		for _, item := range items {
			switch v := item.(type) {
			case string:
				tokens = append(tokens, v)
			case float64:
				tokens = append(tokens, strconv.FormatFloat(v, 'f', -1, 64))
			}
		}
		return ResolveActiveDays(tokens)
	}

	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '|' || unicode.IsSpace(r)
	})
	return ResolveActiveDays(tokens)
}

// ResolveActiveDays applies the same policy as ParseActiveDays to an already
// decoded list.
func ResolveActiveDays(days []string) WeekdaySet {
	var s WeekdaySet
	for _, token := range days {
		if d, ok := parseWeekday(token); ok {
			s |= 1 << d
		}
	}
	if s == 0 {
		return DefaultActiveDays
	}
	return s
}

func parseWeekday(token string) (time.Weekday, bool) {
	token = strings.ToLower(strings.Trim(strings.TrimSpace(token), `"'.`))
	if token == "" {
		return 0, false
	}
	if d, ok := weekdayNames[token]; ok {
		return d, true
	}
	if n, err := strconv.Atoi(token); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), true
	}
	return 0, false
}
