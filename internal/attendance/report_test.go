package attendance

import (
	"testing"
	"time"
)

func TestRound1(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{8.75, 8.8},
		{8.74, 8.7},
		{0, 0},
		{99.95, 100},
	}
	for _, tt := range tests {
		if got := Round1(tt.in); got != tt.want {
			t.Errorf("Round1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRate(t *testing.T) {
	tests := []struct {
		present, total int
		want           float64
	}{
		{8, 10, 80},
		{1, 3, 33.3},
		{0, 10, 0},
		{5, 0, 0},
		{10, 10, 100},
	}
	for _, tt := range tests {
		if got := Rate(tt.present, tt.total); got != tt.want {
			t.Errorf("Rate(%d, %d) = %v, want %v", tt.present, tt.total, got, tt.want)
		}
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		day  string
		want string
	}{
		{"2025-03-10", "2025-03-10"}, // Monday stays put
		{"2025-03-12", "2025-03-10"}, // Wednesday
		{"2025-03-16", "2025-03-10"}, // Sunday belongs to the preceding Monday
	}
	for _, tt := range tests {
		day, err := time.Parse("2006-01-02", tt.day)
		if err != nil {
			t.Fatal(err)
		}
		if got := WeekStart(day).Format("2006-01-02"); got != tt.want {
			t.Errorf("WeekStart(%s) = %s, want %s", tt.day, got, tt.want)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year, month, want int
	}{
		{2025, 1, 31},
		{2025, 2, 28},
		{2024, 2, 29},
		{2025, 4, 30},
		{2025, 12, 31},
	}
	for _, tt := range tests {
		if got := DaysInMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysInMonth(%d, %d) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestMonthRange(t *testing.T) {
	first, last := MonthRange(2025, 2)
	if first != "2025-02-01" || last != "2025-02-28" {
		t.Errorf("MonthRange(2025, 2) = %s..%s", first, last)
	}
	first, last = MonthRange(2024, 12)
	if first != "2024-12-01" || last != "2024-12-31" {
		t.Errorf("MonthRange(2024, 12) = %s..%s", first, last)
	}
}
