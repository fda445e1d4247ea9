package services

import (
	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/shopspring/decimal"
)

// Summarize totals entries overall and per category. It does not depend on
// the order of entries and never modifies them.
func Summarize(entries []*models.Entry) models.Summary {
	s := models.Summary{
		Total:      decimal.Zero,
		ByCategory: make(map[string]decimal.Decimal),
	}
	for _, e := range entries {
		s.Count++
		s.Total = s.Total.Add(e.Amount)
		s.ByCategory[e.Category] = s.ByCategory[e.Category].Add(e.Amount)
	}
	return s
}

// FilterByYear keeps the entries dated within year, preserving order.
func FilterByYear(entries []*models.Entry, year int) []*models.Entry {
	out := make([]*models.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Date.Year() == year {
			out = append(out, e)
		}
	}
	return out
}
