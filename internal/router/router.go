package router

import (
	"net/http"

	"agromarket/internal/controller"
	"agromarket/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type Options struct {
	CORSOrigins []string
	Tokens      middleware.TokenParser
	Log         zerolog.Logger
}

func NewRouter(c *controller.Controller, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(opts.Log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", c.Ping)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(opts.Tokens, opts.Log))

			r.Route("/listings", func(r chi.Router) {
				r.Get("/", c.GetListings)
				r.Post("/", c.NewListing)
				r.Get("/my", c.MyListings)
				r.Get("/{listingId}", c.GetListing)
				r.Patch("/{listingId}", c.EditListing)
				r.Delete("/{listingId}", c.DeleteListing)
				r.Post("/{listingId}/close", c.CloseListing)
				r.Get("/{listingId}/bids", c.ListingBids)
			})

			r.Route("/bids", func(r chi.Router) {
				r.Post("/", c.NewBid)
				r.Get("/my", c.MyBids)
				r.Get("/{bidId}", c.GetBid)
				r.Post("/{bidId}/accept", c.AcceptBid)
				r.Post("/{bidId}/reject", c.RejectBid)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/my", c.MyOrders)
				r.Get("/{orderId}", c.GetOrder)
				r.Patch("/{orderId}/status", c.SetOrderStatus)
				r.Patch("/{orderId}/route", c.SetDeliveryRoute)
			})

			r.Route("/payouts", func(r chi.Router) {
				r.Post("/request", c.RequestPayout)
				r.Get("/my", c.MyPayouts)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("page not found"))
	})

	return r
}
