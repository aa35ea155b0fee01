package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

type Bid struct {
	Id        uuid.UUID       `json:"id"`
	ListingId uuid.UUID       `json:"listingId"`
	BuyerId   uuid.UUID       `json:"buyerId"`
	Price     decimal.Decimal `json:"price"`
	Status    BidStatus       `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"-"`
}
