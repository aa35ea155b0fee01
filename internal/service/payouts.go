package service

import (
	"context"
	"fmt"

	"agromarket/internal/models"
)

// RequestPayout claims the sum of the listing price per unit over every
// delivered order of the farmer. Orders already covered by an earlier payout
// are counted again.
func (s *Service) RequestPayout(ctx context.Context, actor models.Actor) (models.Payout, error) {
	if err := Authorize(actor, OpRequestPayout, Target{}); err != nil {
		return models.Payout{}, fmt.Errorf("service.Service.RequestPayout: %w", err)
	}

	amount, err := s.store.DeliveredTotal(ctx, actor.Id)
	if err != nil {
		return models.Payout{}, fmt.Errorf("service.Service.RequestPayout: %w", err)
	}

	if !amount.IsPositive() {
		return models.Payout{}, fmt.Errorf("service.Service.RequestPayout: %w", models.ErrNothingToPayout)
	}

	payout, err := s.store.AddPayout(ctx, models.Payout{
		FarmerId: actor.Id,
		Amount:   amount,
		Status:   models.PayoutPending,
	})
	if err != nil {
		return models.Payout{}, fmt.Errorf("service.Service.RequestPayout: %w", err)
	}

	return payout, nil
}

func (s *Service) GetFarmerPayouts(ctx context.Context, actor models.Actor, page Page) ([]models.Payout, error) {
	if err := Authorize(actor, OpListOwnPayouts, Target{}); err != nil {
		return nil, fmt.Errorf("service.Service.GetFarmerPayouts: %w", err)
	}

	payouts, err := s.store.GetPayouts(ctx, actor.Id, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetFarmerPayouts: %w", err)
	}
	return payouts, nil
}
