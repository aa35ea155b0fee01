package repository

import (
	"context"
	"fmt"

	"agromarket/internal/models"

	"github.com/google/uuid"
)

func (repo *Repository) AddPayout(ctx context.Context, payout models.Payout) (models.Payout, error) {
	query := `
	INSERT INTO payouts (farmer_id, amount, status)
	VALUES
		($1, $2, $3)
	RETURNING
		id, requested_at
	`

	row := repo.db.QueryRowContext(ctx, query, payout.FarmerId, payout.Amount, payout.Status)
	err := row.Scan(&payout.Id, &payout.RequestedAt)
	if err != nil {
		return payout, fmt.Errorf("repository.Repository.AddPayout: %w", mapPQError(err))
	}

	return payout, nil
}

func (repo *Repository) GetPayouts(ctx context.Context, farmerId uuid.UUID, limit, offset int) ([]models.Payout, error) {
	query := `
	SELECT
		id, farmer_id, amount, status, requested_at
	FROM payouts
	WHERE farmer_id = $1
	ORDER BY requested_at DESC, id
	LIMIT $2
	OFFSET $3
	`

	rows, err := repo.db.QueryContext(ctx, query, farmerId, limitParam(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetPayouts: %w", err)
	}
	defer rows.Close()

	result := []models.Payout{}
	var p models.Payout
	for rows.Next() {
		err = rows.Scan(&p.Id, &p.FarmerId, &p.Amount, &p.Status, &p.RequestedAt)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.GetPayouts: rows scan error: %w", err)
		}
		result = append(result, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.Repository.GetPayouts: %w", err)
	}

	return result, nil
}
