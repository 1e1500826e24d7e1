// Package calendar derives day counts, weekdays and holiday classification
// for a single roster month. Weekdays follow the 0=Monday..6=Sunday
// convention used throughout the duty-roster wire contract.
package calendar

import (
	"fmt"

	appErrors "github.com/noah-isme/oncall-roster-api/pkg/errors"
)

// Weekday indices as carried on the wire.
const (
	Monday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var monthLengths = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Month is an immutable view of a single (year, month) pair together with its
// explicit holiday list. Sundays count as holidays by convention; Saturdays
// do not, but are tracked separately for the Saturday-night quota rule.
type Month struct {
	Year     int
	Month    int
	NumDays  int
	holidays map[int]struct{}
}

// New validates the (year, month) pair and builds the month view.
// The explicit holiday list carries day numbers; entries outside the month
// are rejected.
func New(year, month int, holidays []int) (*Month, error) {
	if year < 1 || year > 9999 {
		return nil, appErrors.Clone(appErrors.ErrInvalidCalendar, fmt.Sprintf("year %d is out of range", year))
	}
	if month < 1 || month > 12 {
		return nil, appErrors.Clone(appErrors.ErrInvalidCalendar, fmt.Sprintf("month %d is out of range", month))
	}

	m := &Month{
		Year:     year,
		Month:    month,
		NumDays:  DaysIn(year, month),
		holidays: make(map[int]struct{}, len(holidays)),
	}
	for _, day := range holidays {
		if day < 1 || day > m.NumDays {
			return nil, appErrors.Clone(appErrors.ErrInvalidCalendar, fmt.Sprintf("holiday day %d is outside %d-%02d", day, year, month))
		}
		m.holidays[day] = struct{}{}
	}
	return m, nil
}

// DaysIn returns the proleptic-Gregorian length of the month.
func DaysIn(year, month int) int {
	if month == 2 && isLeap(year) {
		return 29
	}
	return monthLengths[month-1]
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// WeekdayOf computes the weekday of a proleptic-Gregorian date using
// Sakamoto's congruence, remapped to 0=Monday..6=Sunday.
func WeekdayOf(year, month, day int) int {
	offsets := [12]int{0, 3, 2, 5, 0, 3, 5, 1, 4, 6, 2, 4}
	y := year
	if month < 3 {
		y--
	}
	sun0 := (y + y/4 - y/100 + y/400 + offsets[month-1] + day) % 7
	return (sun0 + 6) % 7
}

// Weekday returns the weekday (0=Mon..6=Sun) of a day in this month.
func (m *Month) Weekday(day int) int {
	return WeekdayOf(m.Year, m.Month, day)
}

// IsHoliday reports whether the day is an explicit holiday or a Sunday.
func (m *Month) IsHoliday(day int) bool {
	if _, ok := m.holidays[day]; ok {
		return true
	}
	return m.Weekday(day) == Sunday
}

// IsSaturday reports whether the day falls on a Saturday.
func (m *Month) IsSaturday(day int) bool {
	return m.Weekday(day) == Saturday
}

// Saturdays lists the Saturday day numbers of the month in ascending order.
func (m *Month) Saturdays() []int {
	var days []int
	for day := 1; day <= m.NumDays; day++ {
		if m.IsSaturday(day) {
			days = append(days, day)
		}
	}
	return days
}

// HolidayCount returns the number of Sunday-or-holiday days in the month.
func (m *Month) HolidayCount() int {
	count := 0
	for day := 1; day <= m.NumDays; day++ {
		if m.IsHoliday(day) {
			count++
		}
	}
	return count
}
