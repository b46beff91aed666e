package models

import (
	"sort"
	"time"
)

// Period is one of the nine ordinal time slots of a school day.
type Period int

const (
	MinPeriod Period = 1
	MaxPeriod Period = 9
)

func (p Period) Valid() bool {
	return p >= MinPeriod && p <= MaxPeriod
}

// PeriodSet is a set of periods kept sorted ascending without duplicates.
// Build one with NewPeriodSet; the zero value is the empty set.
type PeriodSet []Period

func NewPeriodSet(periods ...Period) PeriodSet {
	seen := make(map[Period]struct{}, len(periods))
	set := make(PeriodSet, 0, len(periods))
	for _, p := range periods {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		set = append(set, p)
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
	return set
}

func (s PeriodSet) IsEmpty() bool {
	return len(s) == 0
}

func (s PeriodSet) Contains(p Period) bool {
	for _, x := range s {
		if x == p {
			return true
		}
	}
	return false
}

// ContainsAll reports whether s is a superset of other.
func (s PeriodSet) ContainsAll(other PeriodSet) bool {
	for _, p := range other {
		if !s.Contains(p) {
			return false
		}
	}
	return true
}

func (s PeriodSet) Union(other PeriodSet) PeriodSet {
	return NewPeriodSet(append(append(PeriodSet{}, s...), other...)...)
}

func (s PeriodSet) Intersect(other PeriodSet) PeriodSet {
	out := PeriodSet{}
	for _, p := range s {
		if other.Contains(p) {
			out = append(out, p)
		}
	}
	return NewPeriodSet(out...)
}

// Valid reports whether the set is non-empty and every period is in 1..9.
func (s PeriodSet) Valid() bool {
	if s.IsEmpty() {
		return false
	}
	for _, p := range s {
		if !p.Valid() {
			return false
		}
	}
	return true
}

func (s PeriodSet) Ints() []int {
	out := make([]int, len(s))
	for i, p := range s {
		out[i] = int(p)
	}
	return out
}

// WeekdayIndex converts a calendar date to the Monday=0..Sunday=6 convention
// used by fixed schedules. Go counts from Sunday=0, so shift by one and wrap
// Sunday around to the end; Saturday(5) and Sunday(6) never match a stored
// weekday 0..4.
func WeekdayIndex(date time.Time) int {
	wd := int(date.Weekday()) - 1
	if wd < 0 {
		wd = 6
	}
	return wd
}

// DateOnly truncates t to its calendar date. All date comparisons in the
// scheduling core go through this so times-of-day never leak in.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDate compares two timestamps as calendar dates, not instants.
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}
