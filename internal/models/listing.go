package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Listing struct {
	Id           uuid.UUID       `json:"id"`
	FarmerId     uuid.UUID       `json:"farmerId"`
	Name         string          `json:"name"`
	Location     string          `json:"location"`
	ImageURL     string          `json:"imageUrl,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	MinPrice     decimal.Decimal `json:"minPrice"`
	HarvestDate  *time.Time      `json:"harvestDate,omitempty"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"-"`
}

// Validate checks the price and quantity invariants every stored listing satisfies.
func (l Listing) Validate() error {
	if len(l.Name) == 0 {
		return fmt.Errorf("%w: listing name is empty", ErrValidation)
	}
	if !l.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrValidation, l.Quantity)
	}
	if !l.PricePerUnit.IsPositive() {
		return fmt.Errorf("%w: price per unit must be positive, got %s", ErrValidation, l.PricePerUnit)
	}
	if l.MinPrice.IsNegative() {
		return fmt.Errorf("%w: minimum price must not be negative, got %s", ErrValidation, l.MinPrice)
	}
	if l.MinPrice.GreaterThan(l.PricePerUnit) {
		return fmt.Errorf("%w: minimum price %s is higher than price per unit %s", ErrValidation, l.MinPrice, l.PricePerUnit)
	}
	for _, amount := range []struct {
		field string
		value decimal.Decimal
	}{
		{"quantity", l.Quantity},
		{"price per unit", l.PricePerUnit},
		{"minimum price", l.MinPrice},
	} {
		if err := CheckAmount(amount.field, amount.value); err != nil {
			return err
		}
	}
	return nil
}

// ListingEdit is a partial update of a listing; nil fields stay unchanged.
type ListingEdit struct {
	Name         *string
	Location     *string
	ImageURL     *string
	Quantity     *decimal.Decimal
	PricePerUnit *decimal.Decimal
	MinPrice     *decimal.Decimal
	HarvestDate  *time.Time
	Active       *bool
}

// Apply returns l with the edit applied. Active is not applied, listings are
// only deactivated by closing or accepting a bid.
func (e ListingEdit) Apply(l Listing) Listing {
	if e.Name != nil {
		l.Name = *e.Name
	}
	if e.Location != nil {
		l.Location = *e.Location
	}
	if e.ImageURL != nil {
		l.ImageURL = *e.ImageURL
	}
	if e.Quantity != nil {
		l.Quantity = *e.Quantity
	}
	if e.PricePerUnit != nil {
		l.PricePerUnit = *e.PricePerUnit
	}
	if e.MinPrice != nil {
		l.MinPrice = *e.MinPrice
	}
	if e.HarvestDate != nil {
		l.HarvestDate = e.HarvestDate
	}
	return l
}
