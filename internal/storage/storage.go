// Package storage declares the persistence contract of the marketplace.
// The Postgres implementation lives in internal/repository, the in-memory one
// in internal/storage/memory.
//
// Lookups return the models.ErrNo* errors when a row is absent. Conditional
// updates report whether a row matched instead of failing, so callers can map
// a miss to the right error kind.
package storage

import (
	"context"

	"agromarket/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Reader interface {
	ListingByUUID(ctx context.Context, id uuid.UUID) (models.Listing, error)
	BidByUUID(ctx context.Context, id uuid.UUID) (models.Bid, error)
	OrderByUUID(ctx context.Context, id uuid.UUID) (models.Order, error)
}

// Tx is a unit of work. Everything done through a Tx is committed together or
// not at all.
type Tx interface {
	Reader

	// LockListing reads the listing and holds an exclusive lock on it until
	// the unit of work ends.
	LockListing(ctx context.Context, id uuid.UUID) (models.Listing, error)
	DeactivateListing(ctx context.Context, id uuid.UUID) (bool, error)
	// UpdateListing writes the editable fields of an active listing and
	// returns it as stored. The bool is false when the listing is inactive.
	UpdateListing(ctx context.Context, listing models.Listing) (models.Listing, bool, error)
	// DeleteListing removes an active listing without an order together
	// with its bids.
	DeleteListing(ctx context.Context, id uuid.UUID) (bool, error)

	AddBid(ctx context.Context, bid models.Bid) (models.Bid, error)
	UpdateBidStatus(ctx context.Context, id uuid.UUID, from, to models.BidStatus) (bool, error)
	// RejectPendingBids moves every pending bid of the listing except one
	// to rejected and returns how many bids changed.
	RejectPendingBids(ctx context.Context, listingId, except uuid.UUID) (int64, error)

	AddOrder(ctx context.Context, order models.Order) (models.Order, error)
}

type ListingFilter struct {
	FarmerId   uuid.UUID
	ActiveOnly bool
	Limit      int
	Offset     int
}

type BidFilter struct {
	ListingId uuid.UUID
	BuyerId   uuid.UUID
	Limit     int
	Offset    int
}

type OrderFilter struct {
	BuyerId  uuid.UUID
	FarmerId uuid.UUID
	Limit    int
	Offset   int
}

type Store interface {
	Reader

	AddListing(ctx context.Context, listing models.Listing) (models.Listing, error)
	GetListings(ctx context.Context, filter ListingFilter) ([]models.Listing, error)

	GetBids(ctx context.Context, filter BidFilter) ([]models.Bid, error)
	UpdateBidStatus(ctx context.Context, id uuid.UUID, from, to models.BidStatus) (bool, error)

	GetOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error)
	UpdateOrderRoute(ctx context.Context, id uuid.UUID, status models.OrderStatus, route string) (bool, error)
	// DeliveredTotal sums the listing price per unit over every delivered
	// order on the farmer's listings.
	DeliveredTotal(ctx context.Context, farmerId uuid.UUID) (decimal.Decimal, error)

	AddPayout(ctx context.Context, payout models.Payout) (models.Payout, error)
	GetPayouts(ctx context.Context, farmerId uuid.UUID, limit, offset int) ([]models.Payout, error)

	Atomic(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
