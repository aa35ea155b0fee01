package service

import (
	"agromarket/internal/models"

	"github.com/google/uuid"
)

type Operation string

const (
	OpCreateListing    Operation = "listing.create"
	OpEditListing      Operation = "listing.edit"
	OpDeleteListing    Operation = "listing.delete"
	OpCloseListing     Operation = "listing.close"
	OpListOwnListings  Operation = "listing.list_own"
	OpViewListingBids  Operation = "listing.view_bids"
	OpSubmitBid        Operation = "bid.submit"
	OpAcceptBid        Operation = "bid.accept"
	OpRejectBid        Operation = "bid.reject"
	OpListOwnBids      Operation = "bid.list_own"
	OpViewBid          Operation = "bid.view"
	OpViewOrder        Operation = "order.view"
	OpListOwnOrders    Operation = "order.list_own"
	OpSetOrderStatus   Operation = "order.set_status"
	OpSetDeliveryRoute Operation = "order.set_route"
	OpRequestPayout    Operation = "payout.request"
	OpListOwnPayouts   Operation = "payout.list_own"
)

// Target is the entity an operation acts on. Owner is the farmer owning the
// listing involved, Buyer the buyer of the order involved.
type Target struct {
	Owner uuid.UUID
	Buyer uuid.UUID
}

type rule func(actor models.Actor, target Target) bool

func farmerOnly(actor models.Actor, _ Target) bool { return actor.IsFarmer() }
func buyerOnly(actor models.Actor, _ Target) bool  { return actor.IsBuyer() }
func anyone(models.Actor, Target) bool             { return true }

func listingOwner(actor models.Actor, target Target) bool {
	return actor.IsFarmer() && target.Owner != uuid.Nil && actor.Id == target.Owner
}

// orderParty matches the two sides of a bid or an order.
func orderParty(actor models.Actor, target Target) bool {
	return listingOwner(actor, target) || (target.Buyer != uuid.Nil && actor.Id == target.Buyer)
}

var capabilities = map[Operation]rule{
	OpCreateListing:    farmerOnly,
	OpEditListing:      listingOwner,
	OpDeleteListing:    listingOwner,
	OpCloseListing:     listingOwner,
	OpListOwnListings:  farmerOnly,
	OpViewListingBids:  listingOwner,
	OpSubmitBid:        buyerOnly,
	OpAcceptBid:        listingOwner,
	OpRejectBid:        listingOwner,
	OpListOwnBids:      buyerOnly,
	OpViewBid:          orderParty,
	OpViewOrder:        orderParty,
	OpListOwnOrders:    anyone,
	OpSetOrderStatus:   listingOwner,
	OpSetDeliveryRoute: listingOwner,
	OpRequestPayout:    farmerOnly,
	OpListOwnPayouts:   farmerOnly,
}

// Authorize decides whether actor may perform op on target. Unknown
// operations are denied.
func Authorize(actor models.Actor, op Operation, target Target) error {
	if !actor.Authenticated() {
		return models.ErrUnauthenticated
	}
	allowed, ok := capabilities[op]
	if !ok || !allowed(actor, target) {
		return models.ErrForbidden
	}
	return nil
}
