package core

import (
	"slices"
	"strings"
)

// DateTotal is one point of the per-date series.
type DateTotal struct {
	Date  string
	Total Money
}

// AggregateView is the derived state the UI renders: the running total of
// all loaded expenses and the per-date series for the chart. It is always
// a pure function of the current expense list, never stored.
type AggregateView struct {
	Total  Money
	Series []DateTotal
}

// Aggregate derives the total and the date-bucketed series from a list of
// expenses. Invalid amounts contribute zero. Each distinct date produces
// exactly one series entry, summed; dates that are empty or not calendar
// dates share the UnknownDate bucket. The series is sorted ascending by
// date with UnknownDate always last.
//
// The function has no side effects and tolerates an empty or nil input,
// producing a zero total and an empty series.
func Aggregate(expenses []Expense) AggregateView {
	var total int64
	sums := make(map[string]int64, len(expenses))
	for _, e := range expenses {
		var cents int64
		if e.Amount.Valid {
			cents = e.Amount.Cents
		}
		total += cents
		sums[dateBucket(e.Date)] += cents
	}

	dates := make([]string, 0, len(sums))
	for d := range sums {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, compareBuckets)

	series := make([]DateTotal, 0, len(dates))
	for _, d := range dates {
		series = append(series, DateTotal{Date: d, Total: Money{Cents: sums[d]}})
	}
	return AggregateView{Total: Money{Cents: total}, Series: series}
}

// dateBucket returns the grouping key for a date value: the literal
// YYYY-MM-DD string, or UnknownDate when it cannot be read as a date.
func dateBucket(s string) string {
	if !ValidDate(s) {
		return UnknownDate
	}
	return s
}

// compareBuckets orders series keys ascending by calendar date with the
// UnknownDate bucket always last. YYYY-MM-DD strings order the same
// lexicographically as chronologically.
func compareBuckets(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == UnknownDate:
		return 1
	case b == UnknownDate:
		return -1
	}
	return strings.Compare(a, b)
}
