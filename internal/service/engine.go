package service

import (
	"context"
	"fmt"

	"agromarket/internal/models"
	"agromarket/internal/storage"

	"github.com/google/uuid"
)

// AcceptBid turns a pending bid into an order. In one unit of work holding
// the listing lock it accepts the bid, creates the order, deactivates the
// listing and rejects every other pending bid on it. Nothing is changed when
// any step fails.
func (s *Service) AcceptBid(ctx context.Context, actor models.Actor, bidId uuid.UUID) (models.Order, error) {
	var order models.Order

	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		bid, err := tx.BidByUUID(ctx, bidId)
		if err != nil {
			return err
		}

		listing, err := tx.LockListing(ctx, bid.ListingId)
		if err != nil {
			return err
		}

		if err = Authorize(actor, OpAcceptBid, Target{Owner: listing.FarmerId}); err != nil {
			return err
		}

		// reread under the listing lock, a competing accept may have committed
		bid, err = tx.BidByUUID(ctx, bidId)
		if err != nil {
			return err
		}
		if bid.Status != models.BidPending {
			return models.ErrBidFinalized
		}
		if !listing.Active {
			return models.ErrListingClosed
		}

		ok, err := tx.UpdateBidStatus(ctx, bid.Id, models.BidPending, models.BidAccepted)
		if err != nil {
			return err
		}
		if !ok {
			return models.ErrBidFinalized
		}

		order, err = tx.AddOrder(ctx, models.Order{
			BidId:     bid.Id,
			BuyerId:   bid.BuyerId,
			ListingId: listing.Id,
			Status:    models.OrderAccepted,
		})
		if err != nil {
			return err
		}

		ok, err = tx.DeactivateListing(ctx, listing.Id)
		if err != nil {
			return err
		}
		if !ok {
			return models.ErrListingClosed
		}

		_, err = tx.RejectPendingBids(ctx, listing.Id, bid.Id)
		return err
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("service.Service.AcceptBid: %w", err)
	}

	return order, nil
}
