package analysis

import (
	"slices"
	"time"

	"retail-insights/internal/models"
)

// Filter narrows a cleaned table before analysis. Zero values mean "no
// restriction"; From and To compare calendar dates and are inclusive.
type Filter struct {
	From      time.Time
	To        time.Time
	Countries []string
}

func (f Filter) IsZero() bool {
	return f.From.IsZero() && f.To.IsZero() && len(f.Countries) == 0
}

// ApplyFilter returns a new table with the rows that match f. The input is
// never modified.
func ApplyFilter(table []models.Transaction, f Filter) []models.Transaction {
	if f.IsZero() {
		return table
	}

	var allowed map[string]struct{}
	if len(f.Countries) > 0 {
		allowed = make(map[string]struct{}, len(f.Countries))
		for _, c := range f.Countries {
			allowed[c] = struct{}{}
		}
	}
	from := dateOf(f.From)
	to := dateOf(f.To)

	out := make([]models.Transaction, 0, len(table))
	for _, tx := range table {
		if allowed != nil {
			if _, ok := allowed[tx.Country]; !ok {
				continue
			}
		}
		day := dateOf(tx.InvoiceDate)
		if !f.From.IsZero() && day.Before(from) {
			continue
		}
		if !f.To.IsZero() && day.After(to) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// Countries lists the distinct countries of a table in ascending order.
func Countries(table []models.Transaction) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tx := range table {
		if _, ok := seen[tx.Country]; ok {
			continue
		}
		seen[tx.Country] = struct{}{}
		out = append(out, tx.Country)
	}
	slices.Sort(out)
	return out
}

// DateBounds returns the earliest and latest invoice dates, or zero times for
// an empty table.
func DateBounds(table []models.Transaction) (time.Time, time.Time) {
	var lo, hi time.Time
	for i, tx := range table {
		if i == 0 || tx.InvoiceDate.Before(lo) {
			lo = tx.InvoiceDate
		}
		if i == 0 || tx.InvoiceDate.After(hi) {
			hi = tx.InvoiceDate
		}
	}
	return lo, hi
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
