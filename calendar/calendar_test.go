package calendar

import (
	"testing"
	"time"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestIsBusinessDayUSGov(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		date time.Time
		want bool
	}{
		{"regular wednesday", d(2025, 6, 18), true},
		{"saturday", d(2025, 6, 21), false},
		{"independence day", d(2025, 7, 4), false},
		{"july 4 observed friday", d(2026, 7, 3), false}, // Jul 4 2026 is a Saturday
		{"thanksgiving", d(2025, 11, 27), false},
		{"mlk day", d(2025, 1, 20), false},
		{"memorial day", d(2025, 5, 26), false},
		{"juneteenth", d(2025, 6, 19), false},
		{"christmas", d(2025, 12, 25), false},
		{"new year observed monday", d(2023, 1, 2), false}, // Jan 1 2023 is a Sunday
		{"day after mlk", d(2025, 1, 21), true},
	}
	for _, tc := range cases {
		if got := IsBusinessDay(USGov, tc.date); got != tc.want {
			t.Errorf("%s (%s): IsBusinessDay = %v, want %v", tc.name, tc.date.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestAdjustModifiedFollowing(t *testing.T) {
	t.Parallel()

	// Saturday rolls forward to Monday.
	if got := Adjust(USGov, d(2025, 6, 21)); !got.Equal(d(2025, 6, 23)) {
		t.Fatalf("Adjust = %s", got.Format("2006-01-02"))
	}
	// Month-end Saturday rolls back to preserve the month.
	if got := Adjust(USGov, d(2025, 8, 31)); !got.Equal(d(2025, 8, 29)) {
		t.Fatalf("Adjust month-end = %s", got.Format("2006-01-02"))
	}
	// None calendar never adjusts.
	if got := Adjust(None, d(2025, 6, 21)); !got.Equal(d(2025, 6, 21)) {
		t.Fatalf("Adjust(None) = %s", got.Format("2006-01-02"))
	}
}

func TestAddBusinessDays(t *testing.T) {
	t.Parallel()

	// Thursday Jul 3 2025 + 1 skips the Jul 4 holiday and the weekend.
	if got := AddBusinessDays(USGov, d(2025, 7, 3), 1); !got.Equal(d(2025, 7, 7)) {
		t.Fatalf("AddBusinessDays = %s", got.Format("2006-01-02"))
	}
	if got := AddBusinessDays(USGov, d(2025, 7, 7), -1); !got.Equal(d(2025, 7, 3)) {
		t.Fatalf("AddBusinessDays back = %s", got.Format("2006-01-02"))
	}
}
