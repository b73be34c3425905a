package exchange

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/event"
)

// Feed translates the exchange WebSocket stream into dispatcher events.
// It plugs into infra.BaseWSWorker, which owns reconnects and timeouts.
type Feed struct {
	url     string
	tokenFn func() string // session token, refreshed by the REST client
	inbox   chan<- event.Event
	seq     *uint64
}

// NewFeed creates the stream handler. seq is the producer-shared sequence
// counter; tokenFn supplies the current session token at connect time.
func NewFeed(url string, tokenFn func() string, inbox chan<- event.Event, seq *uint64) *Feed {
	return &Feed{
		url:     url,
		tokenFn: tokenFn,
		inbox:   inbox,
		seq:     seq,
	}
}

// ID identifies this handler in worker logs.
func (f *Feed) ID() string { return "exchange-feed" }

// GetURL returns the stream endpoint.
func (f *Feed) GetURL() string { return f.url }

// OnConnect authenticates and subscribes to the combined stream.
func (f *Feed) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	auth, err := json.Marshal(feedSubscribe{Op: "auth", Token: f.tokenFn()})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, auth); err != nil {
		return err
	}

	sub, err := json.Marshal(feedSubscribe{Op: "subscribe"})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, sub)
}

// OnPing keeps the session alive.
func (f *Feed) OnPing(ctx context.Context, conn *websocket.Conn) error {
	return conn.WriteMessage(websocket.TextMessage, []byte("ping"))
}

// OnMessage parses one frame and forwards it as an event. Malformed
// frames are logged and dropped; the stream keeps running.
func (f *Feed) OnMessage(ctx context.Context, msg []byte) {
	if string(msg) == "pong" {
		return
	}

	var env feedEnvelope
	if err := json.Unmarshal(msg, &env); err != nil {
		slog.Warn("Unparseable feed frame dropped", slog.Any("error", err))
		return
	}

	switch env.Type {
	case "order_book":
		var frame feedOrderBook
		if err := json.Unmarshal(msg, &frame); err != nil {
			slog.Warn("Bad order_book frame dropped", slog.Any("error", err))
			return
		}
		f.send(ctx, bookToEvent(frame.Data, event.NextSeq(f.seq)))
	case "trades":
		var frame feedTrades
		if err := json.Unmarshal(msg, &frame); err != nil {
			slog.Warn("Bad trades frame dropped", slog.Any("error", err))
			return
		}
		if len(frame.Data) == 0 {
			return
		}
		f.send(ctx, &event.TradeEvent{
			BaseEvent: event.BaseEvent{Seq: event.NextSeq(f.seq), Ts: time.Now().UnixMicro()},
			Fills:     frame.Data,
		})
	default:
		slog.Debug("Unknown feed frame type", slog.String("type", env.Type))
	}
}

func (f *Feed) send(ctx context.Context, ev event.Event) {
	select {
	case f.inbox <- ev:
	case <-ctx.Done():
	}
}

// bookToEvent converts a wire order book into a dispatcher event.
func bookToEvent(book OrderBook, seq uint64) *event.OrderBookEvent {
	ev := &event.OrderBookEvent{
		BaseEvent: event.BaseEvent{Seq: seq, Ts: time.Now().UnixMicro()},
		Product:   book.Product,
	}
	for _, lvl := range book.BuyOrders {
		ev.BuyOrders = append(ev.BuyOrders, event.PriceLevel{Price: lvl.Price, Volume: lvl.Volume})
	}
	for _, lvl := range book.SellOrders {
		ev.SellOrders = append(ev.SellOrders, event.PriceLevel{Price: lvl.Price, Volume: lvl.Volume})
	}
	return ev
}
