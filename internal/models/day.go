package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DayLayout is the storage and wire format of a calendar day
const DayLayout = "2006-01-02"

// Day is a calendar date in the server's local time zone, formatted as YYYY-MM-DD.
// The layout sorts lexicographically, so string comparison orders days.
type Day string

// DayOf returns the calendar day containing t
func DayOf(t time.Time) Day {
	return Day(t.Format(DayLayout))
}

// ParseDay parses a YYYY-MM-DD string
func ParseDay(s string) (Day, error) {
	t, err := time.ParseInLocation(DayLayout, s, time.Local)
	if err != nil {
		return "", fmt.Errorf("invalid day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Time returns local midnight of the day
func (d Day) Time() time.Time {
	t, err := time.ParseInLocation(DayLayout, string(d), time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays returns the day n days after d (n may be negative)
func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n))
}

// Weekday returns the day of the week
func (d Day) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// Before reports whether d is strictly earlier than other
func (d Day) Before(other Day) bool {
	return d < other
}

// CompactKey returns the day as YYYYMMDD, the graph service's date key
func (d Day) CompactKey() string {
	return d.Time().Format("20060102")
}

// String implements fmt.Stringer
func (d Day) String() string {
	return string(d)
}

// Value implements driver.Valuer so a Day binds to a DATE column
func (d Day) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}

// Scan implements sql.Scanner; pq returns DATE columns as time.Time
func (d *Day) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = Day(v.Format(DayLayout))
	case string:
		*d = Day(v[:min(len(v), len(DayLayout))])
	case []byte:
		s := string(v)
		*d = Day(s[:min(len(s), len(DayLayout))])
	case nil:
		*d = ""
	default:
		return fmt.Errorf("cannot scan %T into Day", src)
	}
	return nil
}

// ClockTime formats t as HH:MM, the resolution completion and note times are kept at
func ClockTime(t time.Time) string {
	return t.Format("15:04")
}
