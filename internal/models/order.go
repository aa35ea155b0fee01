package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderAccepted  OrderStatus = "accepted"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed out of t.
func (t OrderStatus) Terminal() bool {
	return t == OrderDelivered || t == OrderCancelled
}

type Order struct {
	Id            uuid.UUID   `json:"id"`
	BidId         uuid.UUID   `json:"bidId"`
	BuyerId       uuid.UUID   `json:"buyerId"`
	ListingId     uuid.UUID   `json:"listingId"`
	Status        OrderStatus `json:"status"`
	DeliveryRoute string      `json:"deliveryRoute"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"-"`
}
