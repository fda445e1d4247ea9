package models

import "github.com/shopspring/decimal"

func init() {
	// amounts go out as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Summary aggregates a list of entries.
type Summary struct {
	Count      int                        `json:"count"`
	Total      decimal.Decimal            `json:"total"`
	ByCategory map[string]decimal.Decimal `json:"byCategory"`
}

// Dashboard is the per-user overview shown on the dashboard page.
type Dashboard struct {
	Year      *int            `json:"year,omitempty"`
	Income    Summary         `json:"income"`
	Expense   Summary         `json:"expense"`
	Balance   decimal.Decimal `json:"balance"`
	Budget    decimal.Decimal `json:"budget"`
	Remaining decimal.Decimal `json:"remaining"`
}
