package exchange

import "github.com/arhambintariq/imc-challenge-robotraders/internal/domain"

// Wire types for the exchange REST and WebSocket APIs.

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// wireLevel is one resting order level, best price first.
type wireLevel struct {
	Price  int64 `json:"price"`
	Volume int64 `json:"volume"`
}

// OrderBook is the exchange's view of a single product's book.
type OrderBook struct {
	Product    string      `json:"product"`
	BuyOrders  []wireLevel `json:"buy_orders"`
	SellOrders []wireLevel `json:"sell_orders"`
}

type positionsResponse struct {
	Positions map[string]int64 `json:"positions"`
}

type orderPayload struct {
	ClientID string `json:"client_id"`
	Product  string `json:"product"`
	Side     string `json:"side"`
	Price    int64  `json:"price"`
	Volume   int64  `json:"volume"`
}

type massOrderRequest struct {
	Orders []orderPayload `json:"orders"`
}

type massOrderResponse struct {
	Accepted int      `json:"accepted"`
	Errors   []string `json:"errors,omitempty"`
}

// feedEnvelope is the outer frame of every WebSocket message.
type feedEnvelope struct {
	Type string `json:"type"` // order_book | trades
}

type feedOrderBook struct {
	Type string    `json:"type"`
	Data OrderBook `json:"data"`
}

type feedTrades struct {
	Type string        `json:"type"`
	Data []domain.Fill `json:"data"`
}

type feedSubscribe struct {
	Op    string `json:"op"` // "auth" then "subscribe"
	Token string `json:"token,omitempty"`
}
