// Package ui renders controller snapshots as plain text. It holds no
// state of its own; everything shown comes from app.Snapshot.
package ui

import (
	"fmt"
	"io"
	"text/tabwriter"

	"expensetrack/internal/app"
	"expensetrack/internal/core"
)

// ExpenseTable writes the expense list as a table, newest first, with
// the running total underneath. Amounts that did not parse are shown
// verbatim rather than as a number.
func ExpenseTable(w io.Writer, snap app.Snapshot) {
	switch snap.Phase {
	case app.PhaseLoading:
		fmt.Fprintln(w, "Loading...")
		return
	case app.PhaseError:
		fmt.Fprintln(w, "Error:", snap.Err)
		return
	}
	if len(snap.Expenses) == 0 {
		fmt.Fprintln(w, "No expenses yet.")
		return
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tNAME\tAMOUNT")
	for _, e := range snap.Expenses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, displayDate(e.Date), e.Name, displayAmount(e.Amount))
	}
	tw.Flush()
	fmt.Fprintf(w, "Total: %s\n", snap.Aggregate.Total)
}

// Categories writes the category labels, or the category error slot.
func Categories(w io.Writer, snap app.Snapshot) {
	if snap.CategoryErr != "" {
		fmt.Fprintln(w, "Error:", snap.CategoryErr)
		return
	}
	if len(snap.Categories) == 0 {
		fmt.Fprintln(w, "No categories yet.")
		return
	}
	for _, c := range snap.Categories {
		fmt.Fprintf(w, "%s  %s\n", c.ID, c.Name)
	}
}

func displayDate(date string) string {
	if date == "" {
		return core.UnknownDate
	}
	return date
}

func displayAmount(a core.Amount) string {
	if !a.Valid {
		return a.Raw
	}
	return a.Money().String()
}
