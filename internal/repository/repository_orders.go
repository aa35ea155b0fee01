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
	"github.com/shopspring/decimal"
)

func prepOrdersQuery(filter storage.OrderFilter, id uuid.UUID) (query string, queryParams []interface{}) {
	query = `
	SELECT
		orders.id,
		orders.bid_id,
		orders.buyer_id,
		orders.listing_id,
		orders.status,
		orders.delivery_route,
		orders.created_at,
		orders.updated_at
	FROM orders
		JOIN listings ON (listings.id = orders.listing_id)
	$conditions$
	ORDER BY orders.created_at DESC, orders.id
	LIMIT $1
	OFFSET $2
	`

	queryParams = make([]interface{}, 0, 5)
	conditions := make([]string, 0, 3)

	queryParams = append(queryParams, limitParam(filter.Limit), filter.Offset)

	if id != uuid.Nil {
		queryParams = append(queryParams, id)
		conditions = append(conditions, "orders.id = $"+strconv.Itoa(len(queryParams)))
	}
	if filter.BuyerId != uuid.Nil {
		queryParams = append(queryParams, filter.BuyerId)
		conditions = append(conditions, "orders.buyer_id = $"+strconv.Itoa(len(queryParams)))
	}
	if filter.FarmerId != uuid.Nil {
		queryParams = append(queryParams, filter.FarmerId)
		conditions = append(conditions, "listings.farmer_id = $"+strconv.Itoa(len(queryParams)))
	}

	condStr := ""
	if len(conditions) > 0 {
		condStr = "WHERE " + strings.Join(conditions, " AND ")
	}
	query = strings.Replace(query, "$conditions$", condStr, -1)

	return query, queryParams
}

func scanOrder(row scanner) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.Id, &o.BidId, &o.BuyerId, &o.ListingId, &o.Status, &o.DeliveryRoute, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func getOrder(ctx context.Context, q querier, id uuid.UUID) (models.Order, error) {
	query, params := prepOrdersQuery(storage.OrderFilter{Limit: 1}, id)

	order, err := scanOrder(q.QueryRowContext(ctx, query, params...))
	if errors.Is(err, sql.ErrNoRows) {
		return order, models.ErrNoOrder
	} else if err != nil {
		return order, err
	}
	return order, nil
}

func (repo *Repository) OrderByUUID(ctx context.Context, id uuid.UUID) (models.Order, error) {
	order, err := getOrder(ctx, repo.db, id)
	if err != nil {
		return order, fmt.Errorf("repository.Repository.OrderByUUID: %w", err)
	}
	return order, nil
}

func (repo *Repository) GetOrders(ctx context.Context, filter storage.OrderFilter) ([]models.Order, error) {
	query, params := prepOrdersQuery(filter, uuid.Nil)

	rows, err := repo.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetOrders: %w", err)
	}
	defer rows.Close()

	result := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.GetOrders: rows scan error: %w", err)
		}
		result = append(result, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.Repository.GetOrders: %w", err)
	}

	return result, nil
}

func (repo *Repository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	query := `
	UPDATE orders
	SET (status, updated_at) = ($1, CURRENT_TIMESTAMP)
	WHERE id = $2 AND status = $3
	`

	res, err := repo.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("repository.Repository.UpdateOrderStatus: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("repository.Repository.UpdateOrderStatus: %w", err)
	}
	return n == 1, nil
}

func (repo *Repository) UpdateOrderRoute(ctx context.Context, id uuid.UUID, status models.OrderStatus, route string) (bool, error) {
	query := `
	UPDATE orders
	SET (delivery_route, updated_at) = ($1, CURRENT_TIMESTAMP)
	WHERE id = $2 AND status = $3
	`

	res, err := repo.db.ExecContext(ctx, query, route, id, status)
	if err != nil {
		return false, fmt.Errorf("repository.Repository.UpdateOrderRoute: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("repository.Repository.UpdateOrderRoute: %w", err)
	}
	return n == 1, nil
}

func (repo *Repository) DeliveredTotal(ctx context.Context, farmerId uuid.UUID) (decimal.Decimal, error) {
	query := `
	SELECT
		COALESCE(SUM(listings.price_per_unit), 0)
	FROM orders
		JOIN listings ON (listings.id = orders.listing_id)
	WHERE listings.farmer_id = $1 AND orders.status = 'delivered'
	`

	var total decimal.Decimal
	err := repo.db.QueryRowContext(ctx, query, farmerId).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("repository.Repository.DeliveredTotal: %w", err)
	}
	return total, nil
}

//// Unit of work

func (t *txRepository) OrderByUUID(ctx context.Context, id uuid.UUID) (models.Order, error) {
	order, err := getOrder(ctx, t.tx, id)
	if err != nil {
		return order, fmt.Errorf("repository.txRepository.OrderByUUID: %w", err)
	}
	return order, nil
}

func (t *txRepository) AddOrder(ctx context.Context, order models.Order) (models.Order, error) {
	query := `
	INSERT INTO orders (bid_id, buyer_id, listing_id, status, delivery_route)
	VALUES
		($1, $2, $3, $4, $5)
	RETURNING
		id, created_at, updated_at
	`

	row := t.tx.QueryRowContext(ctx, query, order.BidId, order.BuyerId, order.ListingId, order.Status, order.DeliveryRoute)
	err := row.Scan(&order.Id, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return order, fmt.Errorf("repository.txRepository.AddOrder: %w", mapPQError(err))
	}

	return order, nil
}
