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

type scanner interface {
	Scan(dest ...any) error
}

func prepListingsQuery(filter storage.ListingFilter, id uuid.UUID, forUpdate bool) (query string, queryParams []interface{}) {
	query = `
	SELECT
		id,
		farmer_id,
		name,
		location,
		image_url,
		quantity,
		price_per_unit,
		min_price,
		harvest_date,
		is_active,
		created_at,
		updated_at
	FROM listings
	$conditions$
	ORDER BY created_at DESC, id
	LIMIT $1
	OFFSET $2
	$lock$
	`

	queryParams = make([]interface{}, 0, 4)
	conditions := make([]string, 0, 3)

	queryParams = append(queryParams, limitParam(filter.Limit), filter.Offset)

	if id != uuid.Nil {
		queryParams = append(queryParams, id)
		conditions = append(conditions, "id = $"+strconv.Itoa(len(queryParams)))
	}
	if filter.FarmerId != uuid.Nil {
		queryParams = append(queryParams, filter.FarmerId)
		conditions = append(conditions, "farmer_id = $"+strconv.Itoa(len(queryParams)))
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "is_active")
	}

	condStr := ""
	if len(conditions) > 0 {
		condStr = "WHERE " + strings.Join(conditions, " AND ")
	}
	lockStr := ""
	if forUpdate {
		lockStr = "FOR UPDATE"
	}
	query = strings.Replace(query, "$conditions$", condStr, -1)
	query = strings.Replace(query, "$lock$", lockStr, -1)

	return query, queryParams
}

func scanListing(row scanner) (models.Listing, error) {
	var l models.Listing
	err := row.Scan(&l.Id, &l.FarmerId, &l.Name, &l.Location, &l.ImageURL, &l.Quantity, &l.PricePerUnit, &l.MinPrice, &l.HarvestDate, &l.Active, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func getListing(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (models.Listing, error) {
	query, params := prepListingsQuery(storage.ListingFilter{Limit: 1}, id, forUpdate)

	listing, err := scanListing(q.QueryRowContext(ctx, query, params...))
	if errors.Is(err, sql.ErrNoRows) {
		return listing, models.ErrNoListing
	} else if err != nil {
		return listing, err
	}
	return listing, nil
}

func (repo *Repository) ListingByUUID(ctx context.Context, id uuid.UUID) (models.Listing, error) {
	listing, err := getListing(ctx, repo.db, id, false)
	if err != nil {
		return listing, fmt.Errorf("repository.Repository.ListingByUUID: %w", err)
	}
	return listing, nil
}

func (repo *Repository) AddListing(ctx context.Context, l models.Listing) (models.Listing, error) {
	query := `
	INSERT INTO listings
		(farmer_id, name, location, image_url, quantity, price_per_unit, min_price, harvest_date)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING
		id, is_active, created_at, updated_at
	`

	row := repo.db.QueryRowContext(ctx, query, l.FarmerId, l.Name, l.Location, l.ImageURL, l.Quantity, l.PricePerUnit, l.MinPrice, l.HarvestDate)
	err := row.Scan(&l.Id, &l.Active, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return l, fmt.Errorf("repository.Repository.AddListing: %w", mapPQError(err))
	}

	return l, nil
}

func (repo *Repository) GetListings(ctx context.Context, filter storage.ListingFilter) ([]models.Listing, error) {
	query, params := prepListingsQuery(filter, uuid.Nil, false)

	rows, err := repo.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetListings: %w", err)
	}
	defer rows.Close()

	result := []models.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.GetListings: row scan failed: %w", err)
		}
		result = append(result, listing)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.Repository.GetListings: %w", err)
	}

	return result, nil
}

// DeleteListing removes a listing with its bids and orders unconditionally.
func (repo *Repository) DeleteListing(ctx context.Context, id uuid.UUID) error {
	_, err := repo.db.ExecContext(ctx, "DELETE FROM listings WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("repository.Repository.DeleteListing: %w", err)
	}
	return nil
}

//// Unit of work

func (t *txRepository) ListingByUUID(ctx context.Context, id uuid.UUID) (models.Listing, error) {
	listing, err := getListing(ctx, t.tx, id, false)
	if err != nil {
		return listing, fmt.Errorf("repository.txRepository.ListingByUUID: %w", err)
	}
	return listing, nil
}

func (t *txRepository) LockListing(ctx context.Context, id uuid.UUID) (models.Listing, error) {
	listing, err := getListing(ctx, t.tx, id, true)
	if err != nil {
		return listing, fmt.Errorf("repository.txRepository.LockListing: %w", err)
	}
	return listing, nil
}

func (t *txRepository) DeactivateListing(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
	UPDATE listings
	SET (is_active, updated_at) = (FALSE, CURRENT_TIMESTAMP)
	WHERE id = $1 AND is_active
	`

	res, err := t.tx.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("repository.txRepository.DeactivateListing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("repository.txRepository.DeactivateListing: %w", err)
	}
	return n == 1, nil
}

func (t *txRepository) UpdateListing(ctx context.Context, l models.Listing) (models.Listing, bool, error) {
	query := `
	UPDATE listings
	SET (name, location, image_url, quantity, price_per_unit, min_price, harvest_date, updated_at) =
		($2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
	WHERE id = $1 AND is_active
	RETURNING
		farmer_id, is_active, created_at, updated_at
	`

	row := t.tx.QueryRowContext(ctx, query, l.Id, l.Name, l.Location, l.ImageURL, l.Quantity, l.PricePerUnit, l.MinPrice, l.HarvestDate)
	err := row.Scan(&l.FarmerId, &l.Active, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return l, false, nil
	} else if err != nil {
		return l, false, fmt.Errorf("repository.txRepository.UpdateListing: %w", mapPQError(err))
	}
	return l, true, nil
}

// DeleteListing removes the listing and, through the foreign key cascade, its
// bids. Inactive listings and listings with an order are kept.
func (t *txRepository) DeleteListing(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
	DELETE FROM listings
	WHERE id = $1
		AND is_active
		AND NOT EXISTS (SELECT 1 FROM orders WHERE orders.listing_id = listings.id)
	`

	res, err := t.tx.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("repository.txRepository.DeleteListing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("repository.txRepository.DeleteListing: %w", err)
	}
	return n == 1, nil
}
