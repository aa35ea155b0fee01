package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"agromarket/internal/middleware"
	"agromarket/internal/models"
	"agromarket/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Service interface {
	CreateListing(ctx context.Context, actor models.Actor, listing models.Listing) (models.Listing, error)
	EditListing(ctx context.Context, actor models.Actor, listingId uuid.UUID, edit models.ListingEdit) (models.Listing, error)
	DeleteListing(ctx context.Context, actor models.Actor, listingId uuid.UUID) error
	CloseListing(ctx context.Context, actor models.Actor, listingId uuid.UUID) (models.Listing, error)
	GetListing(ctx context.Context, listingId uuid.UUID) (models.Listing, error)
	GetActiveListings(ctx context.Context, page service.Page) ([]models.Listing, error)
	GetFarmerListings(ctx context.Context, actor models.Actor, page service.Page) ([]models.Listing, error)
	GetListingBids(ctx context.Context, actor models.Actor, listingId uuid.UUID, page service.Page) ([]models.Bid, error)

	SubmitBid(ctx context.Context, actor models.Actor, listingId uuid.UUID, price decimal.Decimal) (models.Bid, error)
	AcceptBid(ctx context.Context, actor models.Actor, bidId uuid.UUID) (models.Order, error)
	RejectBid(ctx context.Context, actor models.Actor, bidId uuid.UUID) (models.Bid, error)
	GetBid(ctx context.Context, actor models.Actor, bidId uuid.UUID) (models.Bid, error)
	GetBuyerBids(ctx context.Context, actor models.Actor, page service.Page) ([]models.Bid, error)

	SetOrderStatus(ctx context.Context, actor models.Actor, orderId uuid.UUID, status models.OrderStatus) (models.Order, error)
	SetDeliveryRoute(ctx context.Context, actor models.Actor, orderId uuid.UUID, route string) (models.Order, error)
	GetOrder(ctx context.Context, actor models.Actor, orderId uuid.UUID) (models.Order, error)
	GetActorOrders(ctx context.Context, actor models.Actor, page service.Page) ([]models.Order, error)

	RequestPayout(ctx context.Context, actor models.Actor) (models.Payout, error)
	GetFarmerPayouts(ctx context.Context, actor models.Actor, page service.Page) ([]models.Payout, error)
}

type Controller struct {
	service Service
	log     zerolog.Logger
}

func NewController(service Service, log zerolog.Logger) *Controller {
	return &Controller{
		service: service,
		log:     log.With().Str("component", "controller").Logger(),
	}
}

// GET /api/ping
func (c *Controller) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

//// Listings

// GET /api/listings
func (c *Controller) GetListings(w http.ResponseWriter, r *http.Request) {
	page, ok := c.getPage(w, r.URL.Query())
	if !ok {
		return
	}

	listings, err := c.service.GetActiveListings(r.Context(), page)
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusOK, listings)
}

// POST /api/listings
func (c *Controller) NewListing(w http.ResponseWriter, r *http.Request) {
	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewListingReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := c.service.CreateListing(r.Context(), middleware.ActorFrom(r.Context()), req.Listing())
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusCreated, listing)
}

// GET /api/listings/my
func (c *Controller) MyListings(w http.ResponseWriter, r *http.Request) {
	page, ok := c.getPage(w, r.URL.Query())
	if !ok {
		return
	}

	listings, err := c.service.GetFarmerListings(r.Context(), middleware.ActorFrom(r.Context()), page)
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusOK, listings)
}

// GET /api/listings/{listingId}
func (c *Controller) GetListing(w http.ResponseWriter, r *http.Request) {
	listingId, ok := c.getPathUUID(w, r, "listingId")
	if !ok {
		return
	}

	listing, err := c.service.GetListing(r.Context(), listingId)
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusOK, listing)
}

// PATCH /api/listings/{listingId}
func (c *Controller) EditListing(w http.ResponseWriter, r *http.Request) {
	listingId, ok := c.getPathUUID(w, r, "listingId")
	if !ok {
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseEditListingReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := c.service.EditListing(r.Context(), middleware.ActorFrom(r.Context()), listingId, req.Edit())
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusOK, listing)
}

// DELETE /api/listings/{listingId}
func (c *Controller) DeleteListing(w http.ResponseWriter, r *http.Request) {
	listingId, ok := c.getPathUUID(w, r, "listingId")
	if !ok {
		return
	}

	err := c.service.DeleteListing(r.Context(), middleware.ActorFrom(r.Context()), listingId)
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/listings/{listingId}/close
func (c *Controller) CloseListing(w http.ResponseWriter, r *http.Request) {
	listingId, ok := c.getPathUUID(w, r, "listingId")
	if !ok {
		return
	}

	listing, err := c.service.CloseListing(r.Context(), middleware.ActorFrom(r.Context()), listingId)
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusOK, listing)
}

// GET /api/listings/{listingId}/bids
func (c *Controller) ListingBids(w http.ResponseWriter, r *http.Request) {
	listingId, ok := c.getPathUUID(w, r, "listingId")
	if !ok {
		return
	}

	page, ok := c.getPage(w, r.URL.Query())
	if !ok {
		return
	}

	bids, err := c.service.GetListingBids(r.Context(), middleware.ActorFrom(r.Context()), listingId, page)
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusOK, bids)
}

//// Bids

// POST /api/bids
func (c *Controller) NewBid(w http.ResponseWriter, r *http.Request) {
	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewBidReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	bid, err := c.service.SubmitBid(r.Context(), middleware.ActorFrom(r.Context()), req.ListingId, req.Price)
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusCreated, bid)
}

// GET /api/bids/my
func (c *Controller) MyBids(w http.ResponseWriter, r *http.Request) {
	page, ok := c.getPage(w, r.URL.Query())
	if !ok {
		return
	}

	bids, err := c.service.GetBuyerBids(r.Context(), middleware.ActorFrom(r.Context()), page)
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusOK, bids)
}

// GET /api/bids/{bidId}
func (c *Controller) GetBid(w http.ResponseWriter, r *http.Request) {
	bidId, ok := c.getPathUUID(w, r, "bidId")
	if !ok {
		return
	}

	bid, err := c.service.GetBid(r.Context(), middleware.ActorFrom(r.Context()), bidId)
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusOK, bid)
}

// POST /api/bids/{bidId}/accept
func (c *Controller) AcceptBid(w http.ResponseWriter, r *http.Request) {
	bidId, ok := c.getPathUUID(w, r, "bidId")
	if !ok {
		return
	}

	order, err := c.service.AcceptBid(r.Context(), middleware.ActorFrom(r.Context()), bidId)
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusCreated, order)
}

// POST /api/bids/{bidId}/reject
func (c *Controller) RejectBid(w http.ResponseWriter, r *http.Request) {
	bidId, ok := c.getPathUUID(w, r, "bidId")
	if !ok {
		return
	}

	bid, err := c.service.RejectBid(r.Context(), middleware.ActorFrom(r.Context()), bidId)
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusOK, bid)
}

//// Orders

// GET /api/orders/my
func (c *Controller) MyOrders(w http.ResponseWriter, r *http.Request) {
	page, ok := c.getPage(w, r.URL.Query())
	if !ok {
		return
	}

	orders, err := c.service.GetActorOrders(r.Context(), middleware.ActorFrom(r.Context()), page)
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusOK, orders)
}

// GET /api/orders/{orderId}
func (c *Controller) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderId, ok := c.getPathUUID(w, r, "orderId")
	if !ok {
		return
	}

	order, err := c.service.GetOrder(r.Context(), middleware.ActorFrom(r.Context()), orderId)
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusOK, order)
}

// PATCH /api/orders/{orderId}/status
func (c *Controller) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderId, ok := c.getPathUUID(w, r, "orderId")
	if !ok {
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseOrderStatusReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := c.service.SetOrderStatus(r.Context(), middleware.ActorFrom(r.Context()), orderId, req.Status)
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusOK, order)
}

// PATCH /api/orders/{orderId}/route
func (c *Controller) SetDeliveryRoute(w http.ResponseWriter, r *http.Request) {
	orderId, ok := c.getPathUUID(w, r, "orderId")
	if !ok {
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseDeliveryRouteReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := c.service.SetDeliveryRoute(r.Context(), middleware.ActorFrom(r.Context()), orderId, req.Route)
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusOK, order)
}

//// Payouts

// POST /api/payouts/request
func (c *Controller) RequestPayout(w http.ResponseWriter, r *http.Request) {
	payout, err := c.service.RequestPayout(r.Context(), middleware.ActorFrom(r.Context()))
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusCreated, payout)
}

// GET /api/payouts/my
func (c *Controller) MyPayouts(w http.ResponseWriter, r *http.Request) {
	page, ok := c.getPage(w, r.URL.Query())
	if !ok {
		return
	}

	payouts, err := c.service.GetFarmerPayouts(r.Context(), middleware.ActorFrom(r.Context()), page)
	if err != nil {
		c.serviceErrorResponse(w, r, err)
		return
	}

	c.marshalResponse(w, http.StatusOK, payouts)
}

// Service

type ErrorResponse struct {
	Reason string `json:"reason"`
	Kind   string `json:"kind,omitempty"`
}

func (c *Controller) getQueryInt(query url.Values, key string) (int, error) {
	strs, ok := query[key]
	if ok && len(strs) > 0 {
		n, err := strconv.Atoi(strs[0])
		if err != nil {
			return 0, err
		}
		if n < 0 {
			return 0, fmt.Errorf("negative value %d", n)
		}
		return n, nil
	}
	return 0, nil
}

func (c *Controller) getPage(w http.ResponseWriter, query url.Values) (service.Page, bool) {
	limit, err := c.getQueryInt(query, "limit")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'limit' query parameter: "+query.Get("limit"))
		return service.Page{}, false
	}

	offset, err := c.getQueryInt(query, "offset")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'offset' query parameter: "+query.Get("offset"))
		return service.Page{}, false
	}

	return service.Page{Limit: limit, Offset: offset}, true
}

func (c *Controller) getPathUUID(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	str := chi.URLParam(r, key)
	if len(str) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty "+key+" supplied")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(str)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid "+key+" supplied: "+str)
		return uuid.Nil, false
	}
	return id, true
}

func (c *Controller) errorResponse(w http.ResponseWriter, status int, text string) {
	c.writeError(w, status, ErrorResponse{Reason: text})
}

func (c *Controller) writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	data, err := json.Marshal(resp)
	if err != nil {
		c.log.Error().Err(err).Msg("could not marshal error response")
		return
	}

	_, err = w.Write(data)
	if err != nil {
		c.log.Error().Err(err).Msg("could not write error response")
		return
	}
}

func (c *Controller) serviceErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Reason: err.Error(), Kind: models.Kind(err)}

	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		resp.Reason = "access token required"
		c.writeError(w, http.StatusUnauthorized, resp)
	case errors.Is(err, models.ErrAuthorization):
		resp.Reason = "user have no permission for requested action"
		c.writeError(w, http.StatusForbidden, resp)
	case errors.Is(err, models.ErrNotFound):
		c.writeError(w, http.StatusNotFound, resp)
	case errors.Is(err, models.ErrState):
		c.writeError(w, http.StatusConflict, resp)
	case errors.Is(err, models.ErrValidation):
		c.writeError(w, http.StatusBadRequest, resp)
	default:
		c.log.Error().Err(err).Str("request_id", chimw.GetReqID(r.Context())).Msg("unhandled service error")
		resp.Reason = "internal server error"
		c.writeError(w, http.StatusInternalServerError, resp)
	}
}

func (c *Controller) marshalResponse(w http.ResponseWriter, status int, data any) {
	d, err := json.Marshal(data)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not marshal response data")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(d)
	if err != nil {
		c.log.Error().Err(err).Msg("could not write response data")
	}
}

func (c *Controller) readBody(src io.ReadCloser) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, maxBodySize))
	if err != nil {
		return nil, err
	}
	src.Close()
	return data, nil
}
