package repository

import (
	"database/sql"
	"time"

	"village/internal/models"
)

// nullableDate stores an optional calendar date
func nullableDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return models.CivilDate(*t)
}

// nullableTime stores an optional timestamp in UTC
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullableInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func datePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := models.CivilDate(nt.Time)
	return &t
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// DateRange filters list queries by an inclusive date range. Zero bounds are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// apply appends the range predicates for column to query and args
func (dr DateRange) apply(column, query string, args []interface{}) (string, []interface{}) {
	if !dr.From.IsZero() {
		query += " AND " + column + " >= ?"
		args = append(args, models.CivilDate(dr.From))
	}
	if !dr.To.IsZero() {
		query += " AND " + column + " <= ?"
		args = append(args, models.CivilDate(dr.To))
	}
	return query, args
}
