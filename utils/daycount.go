package utils

import (
	"time"
)

// Supported day count conventions.
const (
	ActAct    = "ACT/ACT"
	Act360    = "ACT/360"
	Act365F   = "ACT/365F"
	Thirty360 = "30/360"
)

// YearFraction computes the year fraction between two dates using the
// specified day count convention.
// Supported conventions: ACT/ACT (ISDA), ACT/360, ACT/365F, 30E/360, 30/360
func YearFraction(start, end time.Time, convention string) float64 {
	switch convention {
	case ActAct:
		return actActISDA(start, end)
	case Act360:
		days := end.Sub(start).Hours() / 24
		return days / 360.0
	case Act365F:
		days := end.Sub(start).Hours() / 24
		return days / 365.0
	case "30E/360", Thirty360:
		// 30E/360 ISDA (Eurobond basis)
		// D1 and D2 are capped at 30
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	default:
		days := end.Sub(start).Hours() / 24
		return days / 365.0
	}
}

// actActISDA splits the accrual period at calendar-year boundaries and
// divides the day count of each piece by that year's actual length
// (366 in leap years).
func actActISDA(start, end time.Time) float64 {
	if !end.After(start) {
		if end.Equal(start) {
			return 0
		}
		return -actActISDA(end, start)
	}

	frac := 0.0
	for y := start.Year(); y <= end.Year(); y++ {
		yearStart := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		yearEnd := yearStart.AddDate(1, 0, 0)

		lo := start
		if yearStart.After(lo) {
			lo = yearStart
		}
		hi := end
		if yearEnd.Before(hi) {
			hi = yearEnd
		}
		if !hi.After(lo) {
			continue
		}

		basis := 365.0
		if isLeapYear(y) {
			basis = 366.0
		}
		frac += hi.Sub(lo).Hours() / 24 / basis
	}
	return frac
}

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
