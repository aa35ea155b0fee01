// Package service implements the marketplace operations: listings, the bid
// ledger, the bid acceptance transition, the order ledger and payouts.
//
// Every operation takes the calling models.Actor explicitly and reports
// failures wrapping one of the models error kinds. The package never logs.
package service

import (
	"agromarket/internal/storage"
)

// Page bounds a listing query; zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

type Service struct {
	store storage.Store
}

func NewService(store storage.Store) *Service {
	return &Service{store: store}
}
