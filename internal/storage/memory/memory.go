// Package memory provides an in-memory storage.Store for tests and local runs.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"agromarket/internal/models"
	"agromarket/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type row[T any] struct {
	val T
	seq int64
}

type state struct {
	seq      int64
	listings map[uuid.UUID]row[models.Listing]
	bids     map[uuid.UUID]row[models.Bid]
	orders   map[uuid.UUID]row[models.Order]
	payouts  map[uuid.UUID]row[models.Payout]
	// listing id -> order id, mirrors the unique index on orders(listing_id)
	orderByListing map[uuid.UUID]uuid.UUID
}

func (s *state) clone() *state {
	return &state{
		seq:            s.seq,
		listings:       maps.Clone(s.listings),
		bids:           maps.Clone(s.bids),
		orders:         maps.Clone(s.orders),
		payouts:        maps.Clone(s.payouts),
		orderByListing: maps.Clone(s.orderByListing),
	}
}

func (s *state) next() int64 {
	s.seq++
	return s.seq
}

// Memory serializes every unit of work behind a single mutex. A unit of work
// runs against a copy of the state that replaces the live one only on success.
type Memory struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		st: &state{
			listings:       make(map[uuid.UUID]row[models.Listing]),
			bids:           make(map[uuid.UUID]row[models.Bid]),
			orders:         make(map[uuid.UUID]row[models.Order]),
			payouts:        make(map[uuid.UUID]row[models.Payout]),
			orderByListing: make(map[uuid.UUID]uuid.UUID),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

var _ storage.Store = (*Memory)(nil)

func (m *Memory) Atomic(ctx context.Context, fn func(tx storage.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := m.st.clone()
	if err := fn(&memTx{st: work, now: m.now}); err != nil {
		return err
	}
	m.st = work
	return nil
}

func (m *Memory) Close() error { return nil }

//// Reader

func (m *Memory) ListingByUUID(ctx context.Context, id uuid.UUID) (models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return listingByUUID(m.st, id)
}

func (m *Memory) BidByUUID(ctx context.Context, id uuid.UUID) (models.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bidByUUID(m.st, id)
}

func (m *Memory) OrderByUUID(ctx context.Context, id uuid.UUID) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return orderByUUID(m.st, id)
}

//// Listings

func (m *Memory) AddListing(ctx context.Context, listing models.Listing) (models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	listing.Id = uuid.New()
	listing.Active = true
	listing.CreatedAt = m.now()
	listing.UpdatedAt = listing.CreatedAt
	m.st.listings[listing.Id] = row[models.Listing]{val: listing, seq: m.st.next()}
	return listing, nil
}

func (m *Memory) GetListings(ctx context.Context, filter storage.ListingFilter) ([]models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]row[models.Listing], 0, len(m.st.listings))
	for _, r := range m.st.listings {
		if filter.FarmerId != uuid.Nil && r.val.FarmerId != filter.FarmerId {
			continue
		}
		if filter.ActiveOnly && !r.val.Active {
			continue
		}
		rows = append(rows, r)
	}
	return page(rows, filter.Limit, filter.Offset), nil
}

//// Bids

func (m *Memory) GetBids(ctx context.Context, filter storage.BidFilter) ([]models.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]row[models.Bid], 0, len(m.st.bids))
	for _, r := range m.st.bids {
		if filter.ListingId != uuid.Nil && r.val.ListingId != filter.ListingId {
			continue
		}
		if filter.BuyerId != uuid.Nil && r.val.BuyerId != filter.BuyerId {
			continue
		}
		rows = append(rows, r)
	}
	return page(rows, filter.Limit, filter.Offset), nil
}

func (m *Memory) UpdateBidStatus(ctx context.Context, id uuid.UUID, from, to models.BidStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return updateBidStatus(m.st, m.now(), id, from, to), nil
}

//// Orders

func (m *Memory) GetOrders(ctx context.Context, filter storage.OrderFilter) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]row[models.Order], 0, len(m.st.orders))
	for _, r := range m.st.orders {
		if filter.BuyerId != uuid.Nil && r.val.BuyerId != filter.BuyerId {
			continue
		}
		if filter.FarmerId != uuid.Nil && m.st.listings[r.val.ListingId].val.FarmerId != filter.FarmerId {
			continue
		}
		rows = append(rows, r)
	}
	return page(rows, filter.Limit, filter.Offset), nil
}

func (m *Memory) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.st.orders[id]
	if !ok || r.val.Status != from {
		return false, nil
	}
	r.val.Status = to
	r.val.UpdatedAt = m.now()
	m.st.orders[id] = r
	return true, nil
}

func (m *Memory) UpdateOrderRoute(ctx context.Context, id uuid.UUID, status models.OrderStatus, route string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.st.orders[id]
	if !ok || r.val.Status != status {
		return false, nil
	}
	r.val.DeliveryRoute = route
	r.val.UpdatedAt = m.now()
	m.st.orders[id] = r
	return true, nil
}

func (m *Memory) DeliveredTotal(ctx context.Context, farmerId uuid.UUID) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := decimal.Zero
	for _, r := range m.st.orders {
		if r.val.Status != models.OrderDelivered {
			continue
		}
		listing, ok := m.st.listings[r.val.ListingId]
		if !ok || listing.val.FarmerId != farmerId {
			continue
		}
		total = total.Add(listing.val.PricePerUnit)
	}
	return total, nil
}

//// Payouts

func (m *Memory) AddPayout(ctx context.Context, payout models.Payout) (models.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	payout.Id = uuid.New()
	payout.RequestedAt = m.now()
	m.st.payouts[payout.Id] = row[models.Payout]{val: payout, seq: m.st.next()}
	return payout, nil
}

func (m *Memory) GetPayouts(ctx context.Context, farmerId uuid.UUID, limit, offset int) ([]models.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]row[models.Payout], 0, len(m.st.payouts))
	for _, r := range m.st.payouts {
		if r.val.FarmerId == farmerId {
			rows = append(rows, r)
		}
	}
	return page(rows, limit, offset), nil
}

//// Unit of work

type memTx struct {
	st  *state
	now func() time.Time
}

func (tx *memTx) ListingByUUID(ctx context.Context, id uuid.UUID) (models.Listing, error) {
	return listingByUUID(tx.st, id)
}

func (tx *memTx) BidByUUID(ctx context.Context, id uuid.UUID) (models.Bid, error) {
	return bidByUUID(tx.st, id)
}

func (tx *memTx) OrderByUUID(ctx context.Context, id uuid.UUID) (models.Order, error) {
	return orderByUUID(tx.st, id)
}

// LockListing needs no extra locking: the unit of work already owns the store.
func (tx *memTx) LockListing(ctx context.Context, id uuid.UUID) (models.Listing, error) {
	return listingByUUID(tx.st, id)
}

func (tx *memTx) DeactivateListing(ctx context.Context, id uuid.UUID) (bool, error) {
	r, ok := tx.st.listings[id]
	if !ok || !r.val.Active {
		return false, nil
	}
	r.val.Active = false
	r.val.UpdatedAt = tx.now()
	tx.st.listings[id] = r
	return true, nil
}

func (tx *memTx) UpdateListing(ctx context.Context, listing models.Listing) (models.Listing, bool, error) {
	r, ok := tx.st.listings[listing.Id]
	if !ok || !r.val.Active {
		return listing, false, nil
	}
	listing.FarmerId = r.val.FarmerId
	listing.Active = r.val.Active
	listing.CreatedAt = r.val.CreatedAt
	listing.UpdatedAt = tx.now()
	r.val = listing
	tx.st.listings[listing.Id] = r
	return listing, true, nil
}

func (tx *memTx) DeleteListing(ctx context.Context, id uuid.UUID) (bool, error) {
	r, ok := tx.st.listings[id]
	if !ok || !r.val.Active {
		return false, nil
	}
	if _, ordered := tx.st.orderByListing[id]; ordered {
		return false, nil
	}
	delete(tx.st.listings, id)
	for bidId, b := range tx.st.bids {
		if b.val.ListingId == id {
			delete(tx.st.bids, bidId)
		}
	}
	return true, nil
}

func (tx *memTx) AddBid(ctx context.Context, bid models.Bid) (models.Bid, error) {
	bid.Id = uuid.New()
	bid.Status = models.BidPending
	bid.CreatedAt = tx.now()
	bid.UpdatedAt = bid.CreatedAt
	tx.st.bids[bid.Id] = row[models.Bid]{val: bid, seq: tx.st.next()}
	return bid, nil
}

func (tx *memTx) UpdateBidStatus(ctx context.Context, id uuid.UUID, from, to models.BidStatus) (bool, error) {
	return updateBidStatus(tx.st, tx.now(), id, from, to), nil
}

func (tx *memTx) RejectPendingBids(ctx context.Context, listingId, except uuid.UUID) (int64, error) {
	var n int64
	for id, r := range tx.st.bids {
		if r.val.ListingId != listingId || id == except || r.val.Status != models.BidPending {
			continue
		}
		r.val.Status = models.BidRejected
		r.val.UpdatedAt = tx.now()
		tx.st.bids[id] = r
		n++
	}
	return n, nil
}

func (tx *memTx) AddOrder(ctx context.Context, order models.Order) (models.Order, error) {
	if _, exists := tx.st.orderByListing[order.ListingId]; exists {
		return order, models.ErrListingClosed
	}
	order.Id = uuid.New()
	order.CreatedAt = tx.now()
	order.UpdatedAt = order.CreatedAt
	tx.st.orders[order.Id] = row[models.Order]{val: order, seq: tx.st.next()}
	tx.st.orderByListing[order.ListingId] = order.Id
	return order, nil
}

//// Service

func listingByUUID(st *state, id uuid.UUID) (models.Listing, error) {
	r, ok := st.listings[id]
	if !ok {
		return models.Listing{}, models.ErrNoListing
	}
	return r.val, nil
}

func bidByUUID(st *state, id uuid.UUID) (models.Bid, error) {
	r, ok := st.bids[id]
	if !ok {
		return models.Bid{}, models.ErrNoBid
	}
	return r.val, nil
}

func orderByUUID(st *state, id uuid.UUID) (models.Order, error) {
	r, ok := st.orders[id]
	if !ok {
		return models.Order{}, models.ErrNoOrder
	}
	return r.val, nil
}

func updateBidStatus(st *state, now time.Time, id uuid.UUID, from, to models.BidStatus) bool {
	r, ok := st.bids[id]
	if !ok || r.val.Status != from {
		return false
	}
	r.val.Status = to
	r.val.UpdatedAt = now
	st.bids[id] = r
	return true
}

// page orders rows newest first and applies limit/offset; limit <= 0 means no limit.
func page[T any](rows []row[T], limit, offset int) []T {
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	result := make([]T, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.val)
	}
	return result
}
