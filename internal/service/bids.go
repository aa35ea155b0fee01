package service

import (
	"context"
	"fmt"

	"agromarket/internal/models"
	"agromarket/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubmitBid places a pending bid on an active listing. The listing row is
// locked while the bid is written so no bid lands on a listing that is being
// accepted or closed.
func (s *Service) SubmitBid(ctx context.Context, actor models.Actor, listingId uuid.UUID, price decimal.Decimal) (models.Bid, error) {
	if err := Authorize(actor, OpSubmitBid, Target{}); err != nil {
		return models.Bid{}, fmt.Errorf("service.Service.SubmitBid: %w", err)
	}

	if !price.IsPositive() {
		return models.Bid{}, fmt.Errorf("service.Service.SubmitBid: %w: bid price must be positive, got %s", models.ErrValidation, price)
	}
	if err := models.CheckAmount("bid price", price); err != nil {
		return models.Bid{}, fmt.Errorf("service.Service.SubmitBid: %w", err)
	}

	var bid models.Bid
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		listing, err := tx.LockListing(ctx, listingId)
		if err != nil {
			return err
		}

		if !listing.Active {
			return models.ErrListingInactive
		}
		if price.LessThan(listing.MinPrice) {
			return fmt.Errorf("%w: %s < %s", models.ErrBidBelowMinimum, price, listing.MinPrice)
		}

		bid, err = tx.AddBid(ctx, models.Bid{
			ListingId: listing.Id,
			BuyerId:   actor.Id,
			Price:     price,
		})
		return err
	})
	if err != nil {
		return models.Bid{}, fmt.Errorf("service.Service.SubmitBid: %w", err)
	}

	return bid, nil
}

func (s *Service) RejectBid(ctx context.Context, actor models.Actor, bidId uuid.UUID) (models.Bid, error) {
	bid, err := s.store.BidByUUID(ctx, bidId)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service.Service.RejectBid: %w", err)
	}

	listing, err := s.store.ListingByUUID(ctx, bid.ListingId)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service.Service.RejectBid: %w", err)
	}

	if err = Authorize(actor, OpRejectBid, Target{Owner: listing.FarmerId}); err != nil {
		return models.Bid{}, fmt.Errorf("service.Service.RejectBid: %w", err)
	}

	if bid.Status != models.BidPending {
		return models.Bid{}, fmt.Errorf("service.Service.RejectBid: %w", models.ErrBidFinalized)
	}

	// conditional update, a concurrent accept may have won in the meantime
	ok, err := s.store.UpdateBidStatus(ctx, bid.Id, models.BidPending, models.BidRejected)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service.Service.RejectBid: %w", err)
	}
	if !ok {
		return models.Bid{}, fmt.Errorf("service.Service.RejectBid: %w", models.ErrBidFinalized)
	}

	bid.Status = models.BidRejected
	return bid, nil
}

func (s *Service) GetBid(ctx context.Context, actor models.Actor, bidId uuid.UUID) (models.Bid, error) {
	bid, err := s.store.BidByUUID(ctx, bidId)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service.Service.GetBid: %w", err)
	}

	listing, err := s.store.ListingByUUID(ctx, bid.ListingId)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service.Service.GetBid: %w", err)
	}

	if err = Authorize(actor, OpViewBid, Target{Owner: listing.FarmerId, Buyer: bid.BuyerId}); err != nil {
		return models.Bid{}, fmt.Errorf("service.Service.GetBid: %w", err)
	}

	return bid, nil
}

func (s *Service) GetBuyerBids(ctx context.Context, actor models.Actor, page Page) ([]models.Bid, error) {
	if err := Authorize(actor, OpListOwnBids, Target{}); err != nil {
		return nil, fmt.Errorf("service.Service.GetBuyerBids: %w", err)
	}

	bids, err := s.store.GetBids(ctx, storage.BidFilter{
		BuyerId: actor.Id,
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetBuyerBids: %w", err)
	}
	return bids, nil
}
