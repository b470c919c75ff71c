package calendar

import "time"

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	// USGov follows the U.S. government bond market holiday schedule.
	USGov CalendarID = "USGOV"
	// Weekend skips weekends only, with no holiday schedule.
	Weekend CalendarID = "WEEKEND"
	// None treats every day as a business day (no adjustment).
	None CalendarID = "NONE"
)

func isHoliday(cal CalendarID, t time.Time) bool {
	switch cal {
	case USGov:
		return isUSGovHoliday(t)
	default:
		return false
	}
}

// isUSGovHoliday applies the federal holiday rules observed by the U.S.
// Treasury market. Saturday holidays are observed the preceding Friday,
// Sunday holidays the following Monday.
func isUSGovHoliday(t time.Time) bool {
	y, m, d := t.Year(), t.Month(), t.Day()
	wd := t.Weekday()

	switch {
	// New Year's Day (no Friday observation: Dec 31 stays a business day).
	case m == time.January && d == 1,
		m == time.January && d == 2 && wd == time.Monday:
		return true
	// Martin Luther King Jr. Day: third Monday of January.
	case m == time.January && wd == time.Monday && nthWeekdayOfMonth(d) == 3:
		return true
	// Presidents Day: third Monday of February.
	case m == time.February && wd == time.Monday && nthWeekdayOfMonth(d) == 3:
		return true
	// Memorial Day: last Monday of May.
	case m == time.May && wd == time.Monday && d+7 > 31:
		return true
	// Juneteenth (since 2021).
	case y >= 2021 && m == time.June && observed(d, wd, 19):
		return true
	// Independence Day.
	case m == time.July && observed(d, wd, 4):
		return true
	// Labor Day: first Monday of September.
	case m == time.September && wd == time.Monday && nthWeekdayOfMonth(d) == 1:
		return true
	// Columbus Day: second Monday of October.
	case m == time.October && wd == time.Monday && nthWeekdayOfMonth(d) == 2:
		return true
	// Veterans Day.
	case m == time.November && observed(d, wd, 11):
		return true
	// Thanksgiving: fourth Thursday of November.
	case m == time.November && wd == time.Thursday && nthWeekdayOfMonth(d) == 4:
		return true
	// Christmas Day.
	case m == time.December && observed(d, wd, 25):
		return true
	}
	return false
}

// nthWeekdayOfMonth returns which occurrence of its weekday the given
// day-of-month is (1-based).
func nthWeekdayOfMonth(day int) int {
	return (day-1)/7 + 1
}

// observed reports whether day d (weekday wd) is the observed date of a
// fixed-date holiday on the target day of month.
func observed(d int, wd time.Weekday, target int) bool {
	if d == target && wd != time.Saturday && wd != time.Sunday {
		return true
	}
	if d == target-1 && wd == time.Friday {
		return true
	}
	if d == target+1 && wd == time.Monday {
		return true
	}
	return false
}

// IsBusinessDay checks weekends and the holiday rules.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if cal == None {
		return true
	}
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}
