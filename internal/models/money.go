package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts are stored as NUMERIC(12,2).
const (
	AmountPlaces        = 2
	AmountIntegerDigits = 10
)

var amountLimit = decimal.New(1, AmountIntegerDigits)

// CheckAmount reports an ErrValidation when d does not fit the stored
// precision: more than two decimal places or more than ten integer digits.
func CheckAmount(field string, d decimal.Decimal) error {
	if !d.Equal(d.Truncate(AmountPlaces)) {
		return fmt.Errorf("%w: %s must have at most %d decimal places, got %s", ErrValidation, field, AmountPlaces, d)
	}
	if d.Abs().GreaterThanOrEqual(amountLimit) {
		return fmt.Errorf("%w: %s must have at most %d integer digits, got %s", ErrValidation, field, AmountIntegerDigits, d)
	}
	return nil
}
