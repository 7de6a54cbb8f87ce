package ui

import (
	"fmt"
	"io"
	"strings"

	"expensetrack/internal/core"
)

const defaultChartWidth = 40

// Chart renders the per-date series as horizontal bars scaled to the
// largest bucket. The series arrives already sorted, Unknown last.
func Chart(w io.Writer, view core.AggregateView, width int) {
	if len(view.Series) == 0 {
		fmt.Fprintln(w, "No data to display on chart.")
		return
	}
	if width <= 0 {
		width = defaultChartWidth
	}

	var max int64
	for _, p := range view.Series {
		if p.Total.Cents > max {
			max = p.Total.Cents
		}
	}

	for _, p := range view.Series {
		fmt.Fprintf(w, "%-10s  %-*s %s\n", p.Date, width, strings.Repeat("#", barLength(p.Total.Cents, max, width)), p.Total)
	}
}

// barLength scales cents into [0,width]; any positive amount gets at
// least one mark so small buckets stay visible.
func barLength(cents, max int64, width int) int {
	if cents <= 0 || max <= 0 {
		return 0
	}
	n := int(cents * int64(width) / max)
	if n < 1 {
		return 1
	}
	if n > width {
		return width
	}
	return n
}
