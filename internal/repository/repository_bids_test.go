package repository

import (
	"context"
	"errors"
	"testing"

	"agromarket/internal/models"
	"agromarket/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestBids(t *testing.T) {
	var err error
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	listings := InsertTestInitData(t, repo, uuid.New(), uuid.New())
	buyers := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	// Insert bids
	bids := AddAllBids(t, repo, listings, buyers)

	for _, bid := range bids {
		if bid.Status != models.BidPending {
			t.Errorf("New bid '%s' has status '%s', expected pending", bid.Id, bid.Status)
		}
		stored, err := repo.BidByUUID(ctx, bid.Id)
		if err != nil {
			t.Fatal(err)
		}
		if !stored.Price.Equal(bid.Price) || stored.BuyerId != bid.BuyerId || stored.ListingId != bid.ListingId {
			t.Errorf("Stored bid differs:\n%v\n%v", bid, stored)
		}
	}

	// Filters
	byBuyer, err := repo.GetBids(ctx, storage.BidFilter{BuyerId: buyers[0]})
	if err != nil {
		t.Fatal(err)
	}
	if len(byBuyer) != len(bids)/len(buyers) {
		t.Errorf("Expected %d bids of buyer, got %d", len(bids)/len(buyers), len(byBuyer))
	}

	byListing, err := repo.GetBids(ctx, storage.BidFilter{ListingId: bids[0].ListingId})
	if err != nil {
		t.Fatal(err)
	}
	if len(byListing) != len(buyers) {
		t.Errorf("Expected %d bids on listing, got %d", len(buyers), len(byListing))
	}

	all, err := repo.GetBids(ctx, storage.BidFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(bids) {
		t.Errorf("Expected to have %d bid entries, got %d", len(bids), len(all))
	}

	// Conditional update
	ok, err := repo.UpdateBidStatus(ctx, bids[0].Id, models.BidPending, models.BidRejected)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Pending bid was not rejected")
	}

	ok, err = repo.UpdateBidStatus(ctx, bids[0].Id, models.BidPending, models.BidAccepted)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("Rejected bid was updated with pending precondition")
	}

	_, err = repo.BidByUUID(ctx, uuid.New())
	if !errors.Is(err, models.ErrNoBid) {
		t.Fatalf("Expected ErrNoBid, got: %v", err)
	}
}

func TestRejectPendingBids(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	listing := AddTestListing(t, repo, uuid.New())
	other := AddTestListing(t, repo, uuid.New())

	keep := AddTestBid(t, repo, listing.Id, uuid.New(), listing.PricePerUnit)
	AddTestBid(t, repo, listing.Id, uuid.New(), listing.PricePerUnit)
	AddTestBid(t, repo, listing.Id, uuid.New(), listing.PricePerUnit)
	foreign := AddTestBid(t, repo, other.Id, uuid.New(), other.PricePerUnit)

	var n int64
	err := repo.Atomic(ctx, func(tx storage.Tx) (err error) {
		n, err = tx.RejectPendingBids(ctx, listing.Id, keep.Id)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("Expected 2 sibling bids to be rejected, got %d", n)
	}

	bids, err := repo.GetBids(ctx, storage.BidFilter{ListingId: listing.Id})
	if err != nil {
		t.Fatal(err)
	}
	for _, bid := range bids {
		expected := models.BidRejected
		if bid.Id == keep.Id {
			expected = models.BidPending
		}
		if bid.Status != expected {
			t.Errorf("Bid '%s' has status '%s', expected '%s'", bid.Id, bid.Status, expected)
		}
	}

	foreign, err = repo.BidByUUID(ctx, foreign.Id)
	if err != nil {
		t.Fatal(err)
	}
	if foreign.Status != models.BidPending {
		t.Error("Bid on other listing have been rejected")
	}
}

func AddAllBids(t *testing.T, repo *Repository, listings map[uuid.UUID][]models.Listing, buyers []uuid.UUID) []models.Bid {
	var bids []models.Bid
	for _, list := range listings {
		for _, listing := range list {
			for i, buyer := range buyers {
				price := listing.MinPrice.Add(decimal.NewFromInt(int64(i)))
				bids = append(bids, AddTestBid(t, repo, listing.Id, buyer, price))
			}
		}
	}
	return bids
}
