package service

import (
	"context"
	"fmt"

	"agromarket/internal/models"
	"agromarket/internal/storage"

	"github.com/google/uuid"
)

func (s *Service) CreateListing(ctx context.Context, actor models.Actor, listing models.Listing) (models.Listing, error) {
	if err := Authorize(actor, OpCreateListing, Target{}); err != nil {
		return models.Listing{}, fmt.Errorf("service.Service.CreateListing: %w", err)
	}

	if err := listing.Validate(); err != nil {
		return models.Listing{}, fmt.Errorf("service.Service.CreateListing: %w", err)
	}

	listing.FarmerId = actor.Id
	listing, err := s.store.AddListing(ctx, listing)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service.Service.CreateListing: %w", err)
	}

	return listing, nil
}

// EditListing applies a partial update to an active listing of the actor.
// The edited listing must still satisfy Validate. Active cannot be edited,
// an inactive listing is never reopened.
func (s *Service) EditListing(ctx context.Context, actor models.Actor, listingId uuid.UUID, edit models.ListingEdit) (models.Listing, error) {
	var listing models.Listing

	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		current, err := tx.LockListing(ctx, listingId)
		if err != nil {
			return err
		}

		if err = Authorize(actor, OpEditListing, Target{Owner: current.FarmerId}); err != nil {
			return err
		}

		// inactive covers listings with an order, accepting a bid deactivates its listing
		if !current.Active {
			return models.ErrListingClosed
		}
		if edit.Active != nil && !*edit.Active {
			return fmt.Errorf("%w: listings are deactivated by closing them", models.ErrValidation)
		}

		changed := edit.Apply(current)
		if err = changed.Validate(); err != nil {
			return err
		}

		var ok bool
		listing, ok, err = tx.UpdateListing(ctx, changed)
		if err != nil {
			return err
		}
		if !ok {
			return models.ErrListingClosed
		}
		return nil
	})
	if err != nil {
		return models.Listing{}, fmt.Errorf("service.Service.EditListing: %w", err)
	}

	return listing, nil
}

// DeleteListing removes an active listing of the actor together with its bids.
func (s *Service) DeleteListing(ctx context.Context, actor models.Actor, listingId uuid.UUID) error {
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		listing, err := tx.LockListing(ctx, listingId)
		if err != nil {
			return err
		}

		if err = Authorize(actor, OpDeleteListing, Target{Owner: listing.FarmerId}); err != nil {
			return err
		}

		if !listing.Active {
			return models.ErrListingClosed
		}

		ok, err := tx.DeleteListing(ctx, listing.Id)
		if err != nil {
			return err
		}
		if !ok {
			return models.ErrListingClosed
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("service.Service.DeleteListing: %w", err)
	}
	return nil
}

// CloseListing deactivates an open listing and rejects its pending bids.
func (s *Service) CloseListing(ctx context.Context, actor models.Actor, listingId uuid.UUID) (models.Listing, error) {
	var listing models.Listing

	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		var err error
		listing, err = tx.LockListing(ctx, listingId)
		if err != nil {
			return err
		}

		if err = Authorize(actor, OpCloseListing, Target{Owner: listing.FarmerId}); err != nil {
			return err
		}

		if !listing.Active {
			return models.ErrListingClosed
		}

		ok, err := tx.DeactivateListing(ctx, listing.Id)
		if err != nil {
			return err
		}
		if !ok {
			return models.ErrListingClosed
		}

		_, err = tx.RejectPendingBids(ctx, listing.Id, uuid.Nil)
		return err
	})
	if err != nil {
		return models.Listing{}, fmt.Errorf("service.Service.CloseListing: %w", err)
	}

	listing.Active = false
	return listing, nil
}

func (s *Service) GetListing(ctx context.Context, listingId uuid.UUID) (models.Listing, error) {
	listing, err := s.store.ListingByUUID(ctx, listingId)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service.Service.GetListing: %w", err)
	}
	return listing, nil
}

func (s *Service) GetActiveListings(ctx context.Context, page Page) ([]models.Listing, error) {
	listings, err := s.store.GetListings(ctx, storage.ListingFilter{
		ActiveOnly: true,
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetActiveListings: %w", err)
	}
	return listings, nil
}

func (s *Service) GetFarmerListings(ctx context.Context, actor models.Actor, page Page) ([]models.Listing, error) {
	if err := Authorize(actor, OpListOwnListings, Target{}); err != nil {
		return nil, fmt.Errorf("service.Service.GetFarmerListings: %w", err)
	}

	listings, err := s.store.GetListings(ctx, storage.ListingFilter{
		FarmerId: actor.Id,
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetFarmerListings: %w", err)
	}
	return listings, nil
}

func (s *Service) GetListingBids(ctx context.Context, actor models.Actor, listingId uuid.UUID, page Page) ([]models.Bid, error) {
	listing, err := s.store.ListingByUUID(ctx, listingId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetListingBids: %w", err)
	}

	if err = Authorize(actor, OpViewListingBids, Target{Owner: listing.FarmerId}); err != nil {
		return nil, fmt.Errorf("service.Service.GetListingBids: %w", err)
	}

	bids, err := s.store.GetBids(ctx, storage.BidFilter{
		ListingId: listing.Id,
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetListingBids: %w", err)
	}
	return bids, nil
}
