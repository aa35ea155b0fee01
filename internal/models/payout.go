package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutPaid       PayoutStatus = "paid"
	PayoutFailed     PayoutStatus = "failed"
)

type Payout struct {
	Id          uuid.UUID       `json:"id"`
	FarmerId    uuid.UUID       `json:"farmerId"`
	Amount      decimal.Decimal `json:"amount"`
	Status      PayoutStatus    `json:"status"`
	RequestedAt time.Time       `json:"requestedAt"`
}
