package router

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agromarket/internal/auth"
	"agromarket/internal/config"
	"agromarket/internal/controller"
	"agromarket/internal/models"
	"agromarket/internal/service"
	"agromarket/internal/storage/memory"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	tokens *auth.Tokens
}

func newTestServer(t *testing.T) *testServer {
	tokens := auth.NewTokens(config.AuthConfig{JWTSecret: "test-secret", JWTIssuer: "agromarket"})
	c := controller.NewController(service.NewService(memory.NewMemory()), zerolog.Nop())
	srv := httptest.NewServer(NewRouter(c, Options{
		CORSOrigins: []string{"*"},
		Tokens:      tokens,
		Log:         zerolog.Nop(),
	}))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, tokens: tokens}
}

func (s *testServer) token(t *testing.T, actor models.Actor) string {
	token, err := s.tokens.Issue(actor, time.Hour)
	require.NoError(t, err)
	return token
}

// do sends the request and decodes the response body into out when it is not nil.
func (s *testServer) do(t *testing.T, actor models.Actor, method, path, body string, expectedStatus int, out any) {
	t.Helper()

	var reader io.Reader
	if len(body) > 0 {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if actor.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+s.token(t, actor))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, expectedStatus, resp.StatusCode, "%s %s: %s", method, path, data)

	if out != nil {
		require.NoError(t, json.Unmarshal(data, out))
	}
}

func TestPing(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, models.Actor{}, "GET", "/api/ping", "", http.StatusOK, nil)
}

func TestInvalidToken(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest("GET", srv.URL+"/api/listings", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer nonsense")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMarketplaceFlow(t *testing.T) {
	srv := newTestServer(t)
	farmer := models.Actor{Id: uuid.New(), Role: models.RoleFarmer}
	buyer := models.Actor{Id: uuid.New(), Role: models.RoleBuyer}
	rival := models.Actor{Id: uuid.New(), Role: models.RoleBuyer}

	// listing
	srv.do(t, farmer, "POST", "/api/listings", `{"name":"Tomatoes","quantity":"20","pricePerUnit":"5.00","minPrice":"5.50"}`, http.StatusBadRequest, nil)
	srv.do(t, buyer, "POST", "/api/listings", `{"name":"Tomatoes","quantity":"20","pricePerUnit":"5.00","minPrice":"4.50"}`, http.StatusForbidden, nil)
	srv.do(t, models.Actor{}, "POST", "/api/listings", `{"name":"Tomatoes","quantity":"20","pricePerUnit":"5.00","minPrice":"4.50"}`, http.StatusUnauthorized, nil)

	var listing models.Listing
	srv.do(t, farmer, "POST", "/api/listings", `{"name":"Tomatoes","location":"Valley","quantity":"20","pricePerUnit":"5.00","minPrice":"4.50","harvestDate":"2026-09-01"}`, http.StatusCreated, &listing)
	assert.True(t, listing.Active)
	require.NotNil(t, listing.HarvestDate)

	var active []models.Listing
	srv.do(t, models.Actor{}, "GET", "/api/listings", "", http.StatusOK, &active)
	assert.Len(t, active, 1)

	// bids
	bidBody := func(price string) string {
		return fmt.Sprintf(`{"listingId":"%s","price":"%s"}`, listing.Id, price)
	}

	var errResp controller.ErrorResponse
	srv.do(t, buyer, "POST", "/api/bids", bidBody("3.00"), http.StatusBadRequest, &errResp)
	assert.Equal(t, "validation", errResp.Kind)

	var bid, rivalBid models.Bid
	srv.do(t, buyer, "POST", "/api/bids", bidBody("4.75"), http.StatusCreated, &bid)
	srv.do(t, rival, "POST", "/api/bids", bidBody("4.60"), http.StatusCreated, &rivalBid)
	assert.True(t, decimal.RequireFromString("4.75").Equal(bid.Price))

	var listingBids []models.Bid
	srv.do(t, farmer, "GET", "/api/listings/"+listing.Id.String()+"/bids", "", http.StatusOK, &listingBids)
	assert.Len(t, listingBids, 2)
	srv.do(t, buyer, "GET", "/api/listings/"+listing.Id.String()+"/bids", "", http.StatusForbidden, nil)

	// accept
	srv.do(t, buyer, "POST", "/api/bids/"+bid.Id.String()+"/accept", "", http.StatusForbidden, nil)
	srv.do(t, farmer, "POST", "/api/bids/"+uuid.NewString()+"/accept", "", http.StatusNotFound, nil)
	srv.do(t, farmer, "POST", "/api/bids/not-a-uuid/accept", "", http.StatusBadRequest, nil)

	var order models.Order
	srv.do(t, farmer, "POST", "/api/bids/"+bid.Id.String()+"/accept", "", http.StatusCreated, &order)
	assert.Equal(t, models.OrderAccepted, order.Status)
	assert.Equal(t, buyer.Id, order.BuyerId)

	srv.do(t, farmer, "POST", "/api/bids/"+bid.Id.String()+"/accept", "", http.StatusConflict, &errResp)
	assert.Equal(t, "state", errResp.Kind)

	srv.do(t, rival, "GET", "/api/bids/"+rivalBid.Id.String(), "", http.StatusOK, &rivalBid)
	assert.Equal(t, models.BidRejected, rivalBid.Status)
	srv.do(t, farmer, "POST", "/api/bids/"+rivalBid.Id.String()+"/reject", "", http.StatusConflict, nil)

	srv.do(t, models.Actor{}, "GET", "/api/listings", "", http.StatusOK, &active)
	assert.Empty(t, active)

	// order fulfilment
	orderPath := "/api/orders/" + order.Id.String()
	srv.do(t, farmer, "PATCH", orderPath+"/route", `{"route":"North road"}`, http.StatusOK, &order)
	assert.Equal(t, "North road", order.DeliveryRoute)
	srv.do(t, rival, "PATCH", orderPath+"/status", `{"status":"shipped"}`, http.StatusForbidden, nil)
	srv.do(t, farmer, "PATCH", orderPath+"/status", `{"status":"shipped"}`, http.StatusBadRequest, nil)
	srv.do(t, buyer, "PATCH", orderPath+"/status", `{"status":"delivered"}`, http.StatusForbidden, nil)
	srv.do(t, farmer, "PATCH", orderPath+"/status", `{"status":"delivered"}`, http.StatusOK, &order)
	assert.Equal(t, models.OrderDelivered, order.Status)
	srv.do(t, farmer, "PATCH", orderPath+"/status", `{"status":"cancelled"}`, http.StatusConflict, nil)

	var orders []models.Order
	srv.do(t, buyer, "GET", "/api/orders/my", "", http.StatusOK, &orders)
	assert.Len(t, orders, 1)
	srv.do(t, rival, "GET", orderPath, "", http.StatusForbidden, nil)

	// payouts
	srv.do(t, buyer, "POST", "/api/payouts/request", "", http.StatusForbidden, nil)

	var payout models.Payout
	srv.do(t, farmer, "POST", "/api/payouts/request", "", http.StatusCreated, &payout)
	assert.True(t, decimal.RequireFromString("5.00").Equal(payout.Amount))

	var payouts []models.Payout
	srv.do(t, farmer, "GET", "/api/payouts/my", "", http.StatusOK, &payouts)
	assert.Len(t, payouts, 1)
}

func TestCloseListing(t *testing.T) {
	srv := newTestServer(t)
	farmer := models.Actor{Id: uuid.New(), Role: models.RoleFarmer}
	buyer := models.Actor{Id: uuid.New(), Role: models.RoleBuyer}

	var listing models.Listing
	srv.do(t, farmer, "POST", "/api/listings", `{"name":"Apples","quantity":"5","pricePerUnit":"2.00"}`, http.StatusCreated, &listing)

	path := "/api/listings/" + listing.Id.String()
	srv.do(t, buyer, "POST", path+"/close", "", http.StatusForbidden, nil)
	srv.do(t, farmer, "POST", path+"/close", "", http.StatusOK, &listing)
	assert.False(t, listing.Active)
	srv.do(t, farmer, "POST", path+"/close", "", http.StatusConflict, nil)

	srv.do(t, buyer, "POST", "/api/bids", fmt.Sprintf(`{"listingId":"%s","price":"2.00"}`, listing.Id), http.StatusBadRequest, nil)

	var mine []models.Listing
	srv.do(t, farmer, "GET", "/api/listings/my?limit=10", "", http.StatusOK, &mine)
	assert.Len(t, mine, 1)
	srv.do(t, farmer, "GET", "/api/listings/my?limit=ten", "", http.StatusBadRequest, nil)
	srv.do(t, farmer, "GET", "/api/listings/my?offset=-1", "", http.StatusBadRequest, nil)
}

func TestEditAndDeleteListing(t *testing.T) {
	srv := newTestServer(t)
	farmer := models.Actor{Id: uuid.New(), Role: models.RoleFarmer}
	buyer := models.Actor{Id: uuid.New(), Role: models.RoleBuyer}

	var listing models.Listing
	srv.do(t, farmer, "POST", "/api/listings", `{"name":"Pears","quantity":"8","pricePerUnit":"3.00","minPrice":"2.00"}`, http.StatusCreated, &listing)
	path := "/api/listings/" + listing.Id.String()

	var errResp controller.ErrorResponse
	srv.do(t, farmer, "PATCH", path, `{"minPrice":"2.005"}`, http.StatusBadRequest, &errResp)
	assert.Equal(t, "validation", errResp.Kind)
	srv.do(t, buyer, "PATCH", path, `{"name":"Mine"}`, http.StatusForbidden, nil)

	srv.do(t, farmer, "PATCH", path, `{"quantity":"12.5"}`, http.StatusOK, &listing)
	assert.True(t, decimal.RequireFromString("12.5").Equal(listing.Quantity))
	assert.Equal(t, "Pears", listing.Name)

	srv.do(t, buyer, "DELETE", path, "", http.StatusForbidden, nil)
	srv.do(t, farmer, "DELETE", path, "", http.StatusNoContent, nil)
	srv.do(t, farmer, "GET", path, "", http.StatusNotFound, nil)
}
