package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLetter(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{100, "A+"},
		{97, "A+"},
		{96.9, "A"},
		{93, "A"},
		{90, "A-"},
		{88, "B+"},
		{83, "B"},
		{80, "B-"},
		{77, "C+"},
		{73, "C"},
		{70, "C-"},
		{67, "D+"},
		{63, "D"},
		{60, "D-"},
		{59.99, "F"},
		{0, "F"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Letter(tt.percent))
		})
	}
}

func TestPoints(t *testing.T) {
	assert.Equal(t, 4.0, Points("A+"))
	assert.Equal(t, 4.0, Points("A"))
	assert.Equal(t, 3.7, Points("A-"))
	assert.Equal(t, 0.7, Points("D-"))
	assert.Equal(t, 0.0, Points("F"))
	assert.Equal(t, 0.0, Points("Z"))
}

func TestPercent(t *testing.T) {
	p, ok := Percent(45, 50)
	assert.True(t, ok)
	assert.InDelta(t, 90, p, 1e-9)

	_, ok = Percent(5, 0)
	assert.False(t, ok)
}

func TestGPA(t *testing.T) {
	tests := []struct {
		name   string
		grades []CourseGrade
		want   float64
	}{
		{name: "empty", want: 0},
		{name: "single A", grades: []CourseGrade{{Percent: 95, Credits: 1}}, want: 4.0},
		{
			name:   "credit weighted",
			grades: []CourseGrade{{Percent: 95, Credits: 1}, {Percent: 84, Credits: 0.5}},
			want:   3.67,
		},
		{
			name:   "zero credits count as one",
			grades: []CourseGrade{{Percent: 91, Credits: 0}, {Percent: 75, Credits: -2}},
			want:   2.85,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, GPA(tt.grades), 1e-9)
		})
	}
}
