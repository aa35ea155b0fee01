package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"agromarket/internal/models"
	"agromarket/internal/storage"

	"github.com/google/uuid"
)

func prepBidsQuery(filter storage.BidFilter, id uuid.UUID) (query string, queryParams []interface{}) {
	query = `
	SELECT
		id, listing_id, buyer_id, price, status, created_at, updated_at
	FROM bids
	$conditions$
	ORDER BY created_at DESC, id
	LIMIT $1
	OFFSET $2
	`

	queryParams = make([]interface{}, 0, 5)
	conditions := make([]string, 0, 3)

	queryParams = append(queryParams, limitParam(filter.Limit), filter.Offset)

	if id != uuid.Nil {
		queryParams = append(queryParams, id)
		conditions = append(conditions, "id = $"+strconv.Itoa(len(queryParams)))
	}
	if filter.ListingId != uuid.Nil {
		queryParams = append(queryParams, filter.ListingId)
		conditions = append(conditions, "listing_id = $"+strconv.Itoa(len(queryParams)))
	}
	if filter.BuyerId != uuid.Nil {
		queryParams = append(queryParams, filter.BuyerId)
		conditions = append(conditions, "buyer_id = $"+strconv.Itoa(len(queryParams)))
	}

	condStr := ""
	if len(conditions) > 0 {
		condStr = "WHERE " + strings.Join(conditions, " AND ")
	}
	query = strings.Replace(query, "$conditions$", condStr, -1)

	return query, queryParams
}

func scanBid(row scanner) (models.Bid, error) {
	var bid models.Bid
	err := row.Scan(&bid.Id, &bid.ListingId, &bid.BuyerId, &bid.Price, &bid.Status, &bid.CreatedAt, &bid.UpdatedAt)
	return bid, err
}

func getBid(ctx context.Context, q querier, id uuid.UUID) (models.Bid, error) {
	query, params := prepBidsQuery(storage.BidFilter{Limit: 1}, id)

	bid, err := scanBid(q.QueryRowContext(ctx, query, params...))
	if errors.Is(err, sql.ErrNoRows) {
		return bid, models.ErrNoBid
	} else if err != nil {
		return bid, err
	}
	return bid, nil
}

func updateBidStatus(ctx context.Context, q querier, id uuid.UUID, from, to models.BidStatus) (bool, error) {
	query := `
	UPDATE bids
	SET (status, updated_at) = ($1, CURRENT_TIMESTAMP)
	WHERE id = $2 AND status = $3
	`

	res, err := q.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (repo *Repository) BidByUUID(ctx context.Context, id uuid.UUID) (models.Bid, error) {
	bid, err := getBid(ctx, repo.db, id)
	if err != nil {
		return bid, fmt.Errorf("repository.Repository.BidByUUID: %w", err)
	}
	return bid, nil
}

func (repo *Repository) GetBids(ctx context.Context, filter storage.BidFilter) ([]models.Bid, error) {
	query, params := prepBidsQuery(filter, uuid.Nil)

	rows, err := repo.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetBids: %w", err)
	}
	defer rows.Close()

	result := []models.Bid{}
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.GetBids: rows scan error: %w", err)
		}
		result = append(result, bid)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.Repository.GetBids: %w", err)
	}

	return result, nil
}

func (repo *Repository) UpdateBidStatus(ctx context.Context, id uuid.UUID, from, to models.BidStatus) (bool, error) {
	ok, err := updateBidStatus(ctx, repo.db, id, from, to)
	if err != nil {
		return false, fmt.Errorf("repository.Repository.UpdateBidStatus: %w", err)
	}
	return ok, nil
}

//// Unit of work

func (t *txRepository) BidByUUID(ctx context.Context, id uuid.UUID) (models.Bid, error) {
	bid, err := getBid(ctx, t.tx, id)
	if err != nil {
		return bid, fmt.Errorf("repository.txRepository.BidByUUID: %w", err)
	}
	return bid, nil
}

func (t *txRepository) AddBid(ctx context.Context, bid models.Bid) (models.Bid, error) {
	query := `
	INSERT INTO bids (listing_id, buyer_id, price, status)
	VALUES
		($1, $2, $3, 'pending')
	RETURNING
		id, status, created_at, updated_at
	`

	row := t.tx.QueryRowContext(ctx, query, bid.ListingId, bid.BuyerId, bid.Price)
	err := row.Scan(&bid.Id, &bid.Status, &bid.CreatedAt, &bid.UpdatedAt)
	if err != nil {
		return bid, fmt.Errorf("repository.txRepository.AddBid: scan failed: %w", mapPQError(err))
	}

	return bid, nil
}

func (t *txRepository) UpdateBidStatus(ctx context.Context, id uuid.UUID, from, to models.BidStatus) (bool, error) {
	ok, err := updateBidStatus(ctx, t.tx, id, from, to)
	if err != nil {
		return false, fmt.Errorf("repository.txRepository.UpdateBidStatus: %w", err)
	}
	return ok, nil
}

// RejectPendingBids is a single set-based statement so the siblings of an
// accepted bid are resolved together with it.
func (t *txRepository) RejectPendingBids(ctx context.Context, listingId, except uuid.UUID) (int64, error) {
	query := `
	UPDATE bids
	SET (status, updated_at) = ('rejected', CURRENT_TIMESTAMP)
	WHERE listing_id = $1 AND status = 'pending' AND id <> $2
	`

	res, err := t.tx.ExecContext(ctx, query, listingId, except)
	if err != nil {
		return 0, fmt.Errorf("repository.txRepository.RejectPendingBids: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("repository.txRepository.RejectPendingBids: %w", err)
	}
	return n, nil
}
