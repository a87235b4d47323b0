package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseActiveDays(t *testing.T) {
	mwf := NewWeekdaySet(time.Monday, time.Wednesday, time.Friday)

	tests := []struct {
		name string
		raw  string
		want WeekdaySet
	}{
		{name: "json array", raw: `["Mon","Wed","Fri"]`, want: mwf},
		{name: "json full names", raw: `["monday","WEDNESDAY","Friday"]`, want: mwf},
		{name: "json digits", raw: `[1,3,5]`, want: mwf},
		{name: "comma list", raw: "mon, wed, fri", want: mwf},
		{name: "space list", raw: "Mon Wed Fri", want: mwf},
		{name: "digit list", raw: "1,3,5", want: mwf},
		{name: "weekend", raw: "sat,sun", want: NewWeekdaySet(time.Saturday, time.Sunday)},
		{name: "unknown tokens ignored", raw: "mon,funday,fri,8", want: NewWeekdaySet(time.Monday, time.Friday)},
		{name: "empty string", raw: "", want: DefaultActiveDays},
		{name: "empty array", raw: "[]", want: DefaultActiveDays},
		{name: "broken json", raw: `["Mon",`, want: DefaultActiveDays},
		{name: "all invalid", raw: "nope, never", want: DefaultActiveDays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want.Strings(), ParseActiveDays(tt.raw).Strings())
		})
	}
}

func TestResolveActiveDays(t *testing.T) {
	assert.Equal(t, DefaultActiveDays, ResolveActiveDays(nil))
	assert.Equal(t, DefaultActiveDays, ResolveActiveDays([]string{}))
	assert.Equal(t, NewWeekdaySet(time.Tuesday, time.Thursday), ResolveActiveDays([]string{"Tue", " thurs "}))
}

func TestWeekdaySet(t *testing.T) {
	assert.Equal(t, 5, DefaultActiveDays.Len())
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri"}, DefaultActiveDays.Strings())
	assert.False(t, DefaultActiveDays.Has(time.Saturday))
	assert.True(t, DefaultActiveDays.Has(time.Monday))
	assert.Equal(t, WeekdaySet(0), NewWeekdaySet(time.Weekday(9)))
}
