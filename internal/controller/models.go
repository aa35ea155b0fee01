package controller

import (
	"encoding/json"
	"fmt"
	"time"

	"agromarket/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxBodySize = 1 << 20

// New listing request

type NewListingReq struct {
	Name         string          `json:"name"`
	Location     string          `json:"location"`
	ImageURL     string          `json:"imageUrl"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	MinPrice     decimal.Decimal `json:"minPrice"`
	HarvestDate  string          `json:"harvestDate"`

	harvestDate *time.Time
}

func ParseNewListingReq(data []byte) (*NewListingReq, error) {
	l := &NewListingReq{}

	err := json.Unmarshal(data, l)
	if err != nil {
		return nil, err
	}

	if err = checkLengthLimit(l.Name, "name", 255); err != nil {
		return nil, err
	}
	if err = checkLengthLimit(l.Location, "location", 255); err != nil {
		return nil, err
	}
	if err = checkLengthLimit(l.ImageURL, "imageUrl", 2048); err != nil {
		return nil, err
	}

	if len(l.HarvestDate) > 0 {
		date, err := time.Parse(time.DateOnly, l.HarvestDate)
		if err != nil {
			return nil, fmt.Errorf("invalid harvest date supplied: %s, expected YYYY-MM-DD", l.HarvestDate)
		}
		l.harvestDate = &date
	}

	return l, nil
}

func (l *NewListingReq) Listing() models.Listing {
	return models.Listing{
		Name:         l.Name,
		Location:     l.Location,
		ImageURL:     l.ImageURL,
		Quantity:     l.Quantity,
		PricePerUnit: l.PricePerUnit,
		MinPrice:     l.MinPrice,
		HarvestDate:  l.harvestDate,
	}
}

// Edit listing request

type EditListingReq struct {
	Name         *string          `json:"name"`
	Location     *string          `json:"location"`
	ImageURL     *string          `json:"imageUrl"`
	Quantity     *decimal.Decimal `json:"quantity"`
	PricePerUnit *decimal.Decimal `json:"pricePerUnit"`
	MinPrice     *decimal.Decimal `json:"minPrice"`
	HarvestDate  *string          `json:"harvestDate"`
	Active       *bool            `json:"active"`

	harvestDate *time.Time
}

func ParseEditListingReq(data []byte) (*EditListingReq, error) {
	e := &EditListingReq{}

	err := json.Unmarshal(data, e)
	if err != nil {
		return nil, err
	}

	for _, field := range []struct {
		value *string
		name  string
		limit int
	}{
		{e.Name, "name", 255},
		{e.Location, "location", 255},
		{e.ImageURL, "imageUrl", 2048},
	} {
		if field.value == nil {
			continue
		}
		if err = checkLengthLimit(*field.value, field.name, field.limit); err != nil {
			return nil, err
		}
	}

	if e.HarvestDate != nil {
		date, err := time.Parse(time.DateOnly, *e.HarvestDate)
		if err != nil {
			return nil, fmt.Errorf("invalid harvest date supplied: %s, expected YYYY-MM-DD", *e.HarvestDate)
		}
		e.harvestDate = &date
	}

	return e, nil
}

func (e *EditListingReq) Edit() models.ListingEdit {
	return models.ListingEdit{
		Name:         e.Name,
		Location:     e.Location,
		ImageURL:     e.ImageURL,
		Quantity:     e.Quantity,
		PricePerUnit: e.PricePerUnit,
		MinPrice:     e.MinPrice,
		HarvestDate:  e.harvestDate,
		Active:       e.Active,
	}
}

// New bid request

type NewBidReq struct {
	ListingId uuid.UUID       `json:"listingId"`
	Price     decimal.Decimal `json:"price"`
}

func ParseNewBidReq(data []byte) (*NewBidReq, error) {
	b := &NewBidReq{}

	err := json.Unmarshal(data, b)
	if err != nil {
		return nil, err
	}

	if b.ListingId == uuid.Nil {
		return nil, fmt.Errorf("empty listingId supplied")
	}

	return b, nil
}

// Order status request. The requested status is checked by the service,
// after the caller is authorized for the order.

type OrderStatusReq struct {
	Status models.OrderStatus `json:"status"`
}

func ParseOrderStatusReq(data []byte) (*OrderStatusReq, error) {
	o := &OrderStatusReq{}

	err := json.Unmarshal(data, o)
	if err != nil {
		return nil, err
	}

	return o, nil
}

// Delivery route request

type DeliveryRouteReq struct {
	Route string `json:"route"`
}

func ParseDeliveryRouteReq(data []byte) (*DeliveryRouteReq, error) {
	d := &DeliveryRouteReq{}

	err := json.Unmarshal(data, d)
	if err != nil {
		return nil, err
	}

	return d, nil
}

// Service

func checkLengthLimit(str, fieldName string, limit int) error {
	if len(str) > limit {
		return fmt.Errorf("field '%s' exceeds length limit: %d / %d", fieldName, len(str), limit)
	}
	return nil
}
