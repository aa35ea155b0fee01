package models

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the service wraps exactly one of them.
var (
	ErrValidation    = errors.New("validation failed")
	ErrAuthorization = errors.New("not authorized")
	ErrState         = errors.New("invalid state")
	ErrNotFound      = errors.New("not found")
)

var (
	ErrUnauthenticated = fmt.Errorf("%w: caller is not authenticated", ErrAuthorization)
	ErrForbidden       = fmt.Errorf("%w: provided user does not have permission for this operation", ErrAuthorization)

	ErrNoListing = fmt.Errorf("%w: requested listing does not exist", ErrNotFound)
	ErrNoBid     = fmt.Errorf("%w: requested bid does not exist", ErrNotFound)
	ErrNoOrder   = fmt.Errorf("%w: requested order does not exist", ErrNotFound)

	ErrListingInactive = fmt.Errorf("%w: listing is not accepting bids", ErrValidation)
	ErrBidBelowMinimum = fmt.Errorf("%w: bid price is below listing minimum", ErrValidation)
	ErrInvalidStatus   = fmt.Errorf("%w: requested status is not allowed", ErrValidation)
	ErrNothingToPayout = fmt.Errorf("%w: no delivered orders to payout", ErrValidation)

	ErrBidFinalized   = fmt.Errorf("%w: bid is already accepted or rejected", ErrState)
	ErrListingClosed  = fmt.Errorf("%w: listing is already closed", ErrState)
	ErrOrderFinalized = fmt.Errorf("%w: order is already delivered or cancelled", ErrState)
)

// Kind returns the stable name of the error kind wrapped by err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrAuthorization):
		return "authorization"
	case errors.Is(err, ErrState):
		return "state"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
