package main

import (
	"fmt"
	"io"
	"strings"

	"circulation-desk/library"
)

func printStatus(w io.Writer, s library.Snapshot) {
	fmt.Fprintf(w, "Library date: day %d\n\n", s.Date)

	if len(s.Items) == 0 {
		fmt.Fprintln(w, "No items in library.")
	} else {
		fmt.Fprintf(w, "%-8s %-6s %-30s %-20s %-14s %-10s %-10s %s\n",
			"ID", "Kind", "Title", "Creator", "Location", "Holder", "Requester", "Due")
		fmt.Fprintln(w, strings.Repeat("-", 115))
		for _, it := range s.Items {
			due := ""
			if it.DueDate != nil {
				due = fmt.Sprintf("day %d", *it.DueDate)
				if it.Overdue {
					due += " (overdue)"
				}
			}
			fmt.Fprintf(w, "%-8s %-6s %-30s %-20s %-14s %-10s %-10s %s\n",
				truncateString(it.ID, 8),
				it.Kind,
				truncateString(it.Title, 30),
				truncateString(it.Creator, 20),
				it.Location,
				orNone(it.HolderID),
				orNone(it.RequesterID),
				due)
		}
	}
	fmt.Fprintln(w)

	if len(s.Patrons) == 0 {
		fmt.Fprintln(w, "No patrons registered.")
		return
	}
	fmt.Fprintf(w, "%-8s %-20s %-10s %-5s %s\n", "ID", "Name", "Fine", "PIN", "Items")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, p := range s.Patrons {
		pin := "No"
		if p.HasPIN {
			pin = "Yes"
		}
		items := "None"
		if len(p.Items) > 0 {
			items = strings.Join(p.Items, ", ")
		}
		if len(p.Overdue) > 0 {
			items += fmt.Sprintf(" (overdue: %s)", strings.Join(p.Overdue, ", "))
		}
		fmt.Fprintf(w, "%-8s %-20s %-10s %-5s %s\n",
			truncateString(p.ID, 8), truncateString(p.Name, 20), p.Fine, pin, items)
	}
}

func printHistory(w io.Writer, events []library.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No circulation activity yet.")
		return
	}
	fmt.Fprintf(w, "%-5s %-9s %-8s %-8s %-8s %s\n", "Day", "Op", "Patron", "Item", "Amount", "Outcome")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, ev := range events {
		amount := ""
		if ev.Amount != 0 {
			amount = ev.Amount.String()
		}
		fmt.Fprintf(w, "%-5d %-9s %-8s %-8s %-8s %s\n",
			ev.Day, ev.Operation, truncateString(ev.PatronID, 8), truncateString(ev.ItemID, 8), amount, ev.Outcome)
	}
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return truncateString(s, 10)
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return s[:maxLength]
	}
	return s[:maxLength-3] + "..."
}
