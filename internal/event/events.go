package event

import (
	"sync/atomic"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/domain"
)

// Type defines the type of event.
type Type uint16

const (
	EvOrderBook Type = iota + 1
	EvTrades
	EvSettlement
)

// Event is the interface for all dispatcher events.
type Event interface {
	GetSeq() uint64
	GetTs() int64 // Unix Microseconds
	GetType() Type
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	Seq uint64 `json:"seq"`
	Ts  int64  `json:"ts"`
}

func (e BaseEvent) GetSeq() uint64 { return e.Seq }
func (e BaseEvent) GetTs() int64   { return e.Ts }

// PriceLevel is one resting level of an order-book side, best first.
type PriceLevel struct {
	Price  int64 `json:"price"`
	Volume int64 `json:"volume"`
}

// OrderBookEvent carries the current book for a single product.
type OrderBookEvent struct {
	BaseEvent
	Product    string       `json:"product"`
	BuyOrders  []PriceLevel `json:"buy_orders"`
	SellOrders []PriceLevel `json:"sell_orders"`
}

func (e OrderBookEvent) GetType() Type { return EvOrderBook }

// TradeEvent carries a batch of confirmed fills.
type TradeEvent struct {
	BaseEvent
	Fills []domain.Fill `json:"fills"`
}

func (e TradeEvent) GetType() Type { return EvTrades }

// SettlementEvent carries a refreshed settlement estimate for a product.
type SettlementEvent struct {
	BaseEvent
	Product string `json:"product"`
	Value   int64  `json:"value"`
}

func (e SettlementEvent) GetType() Type { return EvSettlement }

// NextSeq generates the next sequence number atomically. All producers
// feeding one dispatcher share a single counter.
func NextSeq(ptr *uint64) uint64 {
	return atomic.AddUint64(ptr, 1)
}
