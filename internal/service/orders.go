package service

import (
	"context"
	"fmt"

	"agromarket/internal/models"
	"agromarket/internal/storage"

	"github.com/google/uuid"
)

const maxRouteLength = 1000

// SetOrderStatus moves an accepted order to delivered or cancelled. Both are
// terminal.
func (s *Service) SetOrderStatus(ctx context.Context, actor models.Actor, orderId uuid.UUID, status models.OrderStatus) (models.Order, error) {
	order, listing, err := s.orderWithListing(ctx, orderId)
	if err != nil {
		return models.Order{}, fmt.Errorf("service.Service.SetOrderStatus: %w", err)
	}

	if err = Authorize(actor, OpSetOrderStatus, Target{Owner: listing.FarmerId, Buyer: order.BuyerId}); err != nil {
		return models.Order{}, fmt.Errorf("service.Service.SetOrderStatus: %w", err)
	}

	if status != models.OrderDelivered && status != models.OrderCancelled {
		return models.Order{}, fmt.Errorf("service.Service.SetOrderStatus: %w: %q", models.ErrInvalidStatus, status)
	}

	if order.Status.Terminal() {
		return models.Order{}, fmt.Errorf("service.Service.SetOrderStatus: %w", models.ErrOrderFinalized)
	}

	ok, err := s.store.UpdateOrderStatus(ctx, order.Id, models.OrderAccepted, status)
	if err != nil {
		return models.Order{}, fmt.Errorf("service.Service.SetOrderStatus: %w", err)
	}
	if !ok {
		return models.Order{}, fmt.Errorf("service.Service.SetOrderStatus: %w", models.ErrOrderFinalized)
	}

	order.Status = status
	return order, nil
}

func (s *Service) SetDeliveryRoute(ctx context.Context, actor models.Actor, orderId uuid.UUID, route string) (models.Order, error) {
	order, listing, err := s.orderWithListing(ctx, orderId)
	if err != nil {
		return models.Order{}, fmt.Errorf("service.Service.SetDeliveryRoute: %w", err)
	}

	if err = Authorize(actor, OpSetDeliveryRoute, Target{Owner: listing.FarmerId, Buyer: order.BuyerId}); err != nil {
		return models.Order{}, fmt.Errorf("service.Service.SetDeliveryRoute: %w", err)
	}

	if len(route) > maxRouteLength {
		return models.Order{}, fmt.Errorf("service.Service.SetDeliveryRoute: %w: route exceeds length limit: %d / %d", models.ErrValidation, len(route), maxRouteLength)
	}

	if order.Status.Terminal() {
		return models.Order{}, fmt.Errorf("service.Service.SetDeliveryRoute: %w", models.ErrOrderFinalized)
	}

	ok, err := s.store.UpdateOrderRoute(ctx, order.Id, models.OrderAccepted, route)
	if err != nil {
		return models.Order{}, fmt.Errorf("service.Service.SetDeliveryRoute: %w", err)
	}
	if !ok {
		return models.Order{}, fmt.Errorf("service.Service.SetDeliveryRoute: %w", models.ErrOrderFinalized)
	}

	order.DeliveryRoute = route
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, actor models.Actor, orderId uuid.UUID) (models.Order, error) {
	order, listing, err := s.orderWithListing(ctx, orderId)
	if err != nil {
		return models.Order{}, fmt.Errorf("service.Service.GetOrder: %w", err)
	}

	if err = Authorize(actor, OpViewOrder, Target{Owner: listing.FarmerId, Buyer: order.BuyerId}); err != nil {
		return models.Order{}, fmt.Errorf("service.Service.GetOrder: %w", err)
	}

	return order, nil
}

// GetActorOrders returns the orders a buyer placed, or the orders on a farmer's listings.
func (s *Service) GetActorOrders(ctx context.Context, actor models.Actor, page Page) ([]models.Order, error) {
	if err := Authorize(actor, OpListOwnOrders, Target{}); err != nil {
		return nil, fmt.Errorf("service.Service.GetActorOrders: %w", err)
	}

	filter := storage.OrderFilter{Limit: page.Limit, Offset: page.Offset}
	if actor.IsFarmer() {
		filter.FarmerId = actor.Id
	} else {
		filter.BuyerId = actor.Id
	}

	orders, err := s.store.GetOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetActorOrders: %w", err)
	}
	return orders, nil
}

func (s *Service) orderWithListing(ctx context.Context, orderId uuid.UUID) (models.Order, models.Listing, error) {
	order, err := s.store.OrderByUUID(ctx, orderId)
	if err != nil {
		return models.Order{}, models.Listing{}, err
	}

	listing, err := s.store.ListingByUUID(ctx, order.ListingId)
	if err != nil {
		return models.Order{}, models.Listing{}, err
	}

	return order, listing, nil
}
