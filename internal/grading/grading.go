// Package grading converts percentages to letter grades and GPAs.
package grading

import "math"

type band struct {
	min    float64
	letter string
	points float64
}

// bands is ordered from highest to lowest threshold
var bands = []band{
	{97, "A+", 4.0},
	{93, "A", 4.0},
	{90, "A-", 3.7},
	{87, "B+", 3.3},
	{83, "B", 3.0},
	{80, "B-", 2.7},
	{77, "C+", 2.3},
	{73, "C", 2.0},
	{70, "C-", 1.7},
	{67, "D+", 1.3},
	{63, "D", 1.0},
	{60, "D-", 0.7},
}

// Letter returns the letter grade for a percentage
func Letter(percent float64) string {
	for _, b := range bands {
		if percent >= b.min {
			return b.letter
		}
	}
	return "F"
}

// Points returns grade points on a 4.0 scale; unknown letters are 0
func Points(letter string) float64 {
	for _, b := range bands {
		if b.letter == letter {
			return b.points
		}
	}
	return 0
}

// Percent converts a score to a percentage. It reports false when max is not positive.
func Percent(score, max float64) (float64, bool) {
	if max <= 0 {
		return 0, false
	}
	return score / max * 100, true
}

// CourseGrade is one course's contribution to a GPA
type CourseGrade struct {
	Percent float64
	Credits float64
}

// GPA returns the credit-weighted grade point average rounded to two
// decimals. Courses without positive credits count as one credit.
func GPA(grades []CourseGrade) float64 {
	if len(grades) == 0 {
		return 0
	}

	var points, credits float64
	for _, g := range grades {
		c := g.Credits
		if c <= 0 {
			c = 1
		}
		points += Points(Letter(g.Percent)) * c
		credits += c
	}
	return Round2(points / credits)
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
