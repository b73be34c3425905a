package domain

import (
	"time"

	"github.com/google/uuid"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderRequest is a simple limit order queued for batch submission.
// Immutable once created. Prices and volumes are exchange-native integers.
type OrderRequest struct {
	ClientID  string    `json:"client_id"`
	Product   string    `json:"product"`
	Side      Side      `json:"side"`
	Price     int64     `json:"price"`
	Volume    int64     `json:"volume"` // strictly positive
	CreatedAt time.Time `json:"created_at"`
}

// NewOrderRequest creates an order request with a fresh client id.
func NewOrderRequest(product string, side Side, price, volume int64, now time.Time) OrderRequest {
	return OrderRequest{
		ClientID:  uuid.NewString(),
		Product:   product,
		Side:      side,
		Price:     price,
		Volume:    volume,
		CreatedAt: now,
	}
}

// IsBuy checks the order direction.
func (o *OrderRequest) IsBuy() bool {
	return o.Side == SideBuy
}
