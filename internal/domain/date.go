package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DateFormat is the ISO-8601 layout used for persistence and the serving layer
const DateFormat = "2006-01-02"

// SourceDateFormat is the layout used by the external valuation source (DD-MM-YYYY)
const SourceDateFormat = "02-01-2006"

// Date represents a calendar day with no time-of-day or zone component
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date, so NewDate(2024, 1, 32) is 2024-02-01
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{t.Year(), t.Month(), t.Day()}
}

// DateOf returns the calendar day of t in its own location
func DateOf(t time.Time) Date {
	return NewDate(t.Date())
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want format %q: %w", s, DateFormat, err)
	}
	return DateOf(t), nil
}

// ParseSourceDate parses the DD-MM-YYYY form emitted by the valuation source
func ParseSourceDate(s string) (Date, error) {
	t, err := time.Parse(SourceDateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid source date %q, want format %q: %w", s, SourceDateFormat, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the day
func (d Date) Time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// IsZero reports whether d is the zero Date
func (d Date) IsZero() bool { return d == Date{} }

// AddDays returns the date n calendar days after d (n may be negative)
func (d Date) AddDays(n int) Date { return NewDate(d.y, d.m, d.d+n) }

// DaysSince returns the number of calendar days from o to d
func (d Date) DaysSince(o Date) int {
	return int(d.Time().Sub(o.Time()).Hours() / 24)
}

// Before reports whether d is before x
func (d Date) Before(x Date) bool { return d.Time().Before(x.Time()) }

// After reports whether d is after x
func (d Date) After(x Date) bool { return d.Time().After(x.Time()) }

// String formats the date as YYYY-MM-DD
func (d Date) String() string { return d.Time().Format(DateFormat) }

// Value implements driver.Valuer; dates are stored as YYYY-MM-DD text
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner for DATE columns (time.Time) and TEXT columns
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v.Date())
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	// Some drivers render DATE columns with a time suffix
	if len(s) > len(DateFormat) {
		s = s[:len(DateFormat)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
