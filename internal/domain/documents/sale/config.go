package sale

import (
	"github.com/shopspring/decimal"

	"barpos/internal/core/numerator"
)

const (
	// NumberPrefix starts every sale number: S-2026-00001
	NumberPrefix = "S"

	// NumeratorStrategy is Strict: numbers are drawn inside the create transaction.
	NumeratorStrategy = numerator.StrategyStrict
)

// EmployeeDiscountRate is applied to every line of an employee-owned sale.
var EmployeeDiscountRate = decimal.RequireFromString("0.2")
