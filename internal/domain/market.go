package domain

import "time"

// MarketSnapshot holds the latest observed top of book for a single product.
// It is overwritten wholesale on every order-book event; no history is kept.
type MarketSnapshot struct {
	Product    string    `json:"product"`
	BestBid    int64     `json:"best_bid"`
	BestAsk    int64     `json:"best_ask"`
	ObservedAt time.Time `json:"observed_at"`
}

// Mid returns the midpoint between best bid and best ask.
func (s *MarketSnapshot) Mid() float64 {
	return float64(s.BestBid+s.BestAsk) / 2.0
}

// Spread returns the bid/ask spread.
func (s *MarketSnapshot) Spread() int64 {
	return s.BestAsk - s.BestBid
}
