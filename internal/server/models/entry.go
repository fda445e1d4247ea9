package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tells income and expense entries apart. Both share one schema.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Plural is the collection name used in routes: "incomes" or "expenses".
func (k Kind) Plural() string {
	return string(k) + "s"
}

// ParseKind accepts the singular or plural name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	if !k.Valid() {
		return "", fmt.Errorf("unknown entry kind %q", s)
	}
	return k, nil
}

// Entry is one income or expense record owned by exactly one user.
type Entry struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"userId"`
	Kind        Kind            `json:"type"`
	Title       string          `json:"title"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        Date            `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
}
