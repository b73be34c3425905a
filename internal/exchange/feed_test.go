package exchange

import (
	"context"
	"testing"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/event"
)

func newTestFeed() (*Feed, chan event.Event) {
	inbox := make(chan event.Event, 8)
	var seq uint64
	return NewFeed("ws://example/feed", func() string { return "tok" }, inbox, &seq), inbox
}

func TestFeed_OrderBookFrame(t *testing.T) {
	feed, inbox := newTestFeed()

	msg := []byte(`{"type":"order_book","data":{"product":"3_Weather","buy_orders":[{"price":8500,"volume":2}],"sell_orders":[{"price":8600,"volume":1}]}}`)
	feed.OnMessage(context.Background(), msg)

	select {
	case ev := <-inbox:
		book, ok := ev.(*event.OrderBookEvent)
		if !ok {
			t.Fatalf("expected OrderBookEvent, got %T", ev)
		}
		if book.Product != "3_Weather" {
			t.Errorf("product = %q, want 3_Weather", book.Product)
		}
		if book.BuyOrders[0].Price != 8500 || book.SellOrders[0].Price != 8600 {
			t.Errorf("top of book = %d/%d, want 8500/8600", book.BuyOrders[0].Price, book.SellOrders[0].Price)
		}
		if book.GetSeq() != 1 {
			t.Errorf("seq = %d, want 1", book.GetSeq())
		}
	default:
		t.Fatal("no event emitted")
	}
}

func TestFeed_TradesFrame(t *testing.T) {
	feed, inbox := newTestFeed()

	msg := []byte(`{"type":"trades","data":[{"product":"7_ETF","price":2500,"volume":3,"buyer":"us","seller":"them"}]}`)
	feed.OnMessage(context.Background(), msg)

	select {
	case ev := <-inbox:
		trade, ok := ev.(*event.TradeEvent)
		if !ok {
			t.Fatalf("expected TradeEvent, got %T", ev)
		}
		if len(trade.Fills) != 1 || trade.Fills[0].Buyer != "us" {
			t.Errorf("unexpected fills: %+v", trade.Fills)
		}
	default:
		t.Fatal("no event emitted")
	}
}

func TestFeed_DropsBadFrames(t *testing.T) {
	feed, inbox := newTestFeed()

	feed.OnMessage(context.Background(), []byte(`not json`))
	feed.OnMessage(context.Background(), []byte(`{"type":"mystery"}`))
	feed.OnMessage(context.Background(), []byte(`pong`))
	feed.OnMessage(context.Background(), []byte(`{"type":"trades","data":[]}`))

	select {
	case ev := <-inbox:
		t.Fatalf("no events expected, got %T", ev)
	default:
	}
}
