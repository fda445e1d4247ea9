package services

import (
	"fmt"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/shopspring/decimal"
)

// Money values keep at most four fractional digits and stay below 10^15.
const (
	maxMoneyScale    = 4
	maxMoneyExponent = 15
	// Exponents below this are rejected before any rescaling work.
	minMoneyExponent = -18
)

var maxMoney = decimal.New(1, maxMoneyExponent)

// checkMoney adds a problem for field when d is not a plausible amount. The
// exponent is inspected first so oversized values never get expanded.
func checkMoney(v *common.ValidationError, field string, d decimal.Decimal) {
	exp := d.Exponent()
	switch {
	case exp > maxMoneyExponent || !d.Abs().LessThan(maxMoney):
		v.Add(field, fmt.Sprintf("%s must be less than %s", field, maxMoney.String()))
	case exp < minMoneyExponent || !d.Equal(d.Truncate(maxMoneyScale)):
		v.Add(field, fmt.Sprintf("%s must have at most %d decimal places", field, maxMoneyScale))
	}
}
