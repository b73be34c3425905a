package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/domain"
)

func newTestServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var lr loginRequest
		if err := json.NewDecoder(r.Body).Decode(&lr); err != nil || lr.Username != "trader" || lr.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(loginResponse{Token: "tok-123"})
	})
	mux.HandleFunc("/order_book/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(OrderBook{
			Product:    "EISBACH_CALL",
			BuyOrders:  []wireLevel{{Price: 990, Volume: 5}},
			SellOrders: []wireLevel{{Price: 1010, Volume: 3}},
		})
	})
	mux.HandleFunc("/positions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(positionsResponse{Positions: map[string]int64{"EISBACH_CALL": -7}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, NewClient(srv.URL, Credentials{Username: "trader", Password: "hunter2"})
}

func TestClient_LoginAndFetch(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()

	if err := client.Login(ctx); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if client.Token() != "tok-123" {
		t.Errorf("token = %q, want tok-123", client.Token())
	}

	book, err := client.GetOrderBook(ctx, "EISBACH_CALL")
	if err != nil {
		t.Fatalf("GetOrderBook failed: %v", err)
	}
	if book.BuyOrders[0].Price != 990 || book.SellOrders[0].Price != 1010 {
		t.Errorf("book top = %d/%d, want 990/1010", book.BuyOrders[0].Price, book.SellOrders[0].Price)
	}

	positions, err := client.GetPositions(ctx)
	if err != nil {
		t.Fatalf("GetPositions failed: %v", err)
	}
	if positions["EISBACH_CALL"] != -7 {
		t.Errorf("position = %d, want -7", positions["EISBACH_CALL"])
	}
}

func TestClient_ReloginOn401(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()

	// No explicit Login: the first call gets a 401 and the client must
	// authenticate transparently and retry.
	positions, err := client.GetPositions(ctx)
	if err != nil {
		t.Fatalf("GetPositions failed: %v", err)
	}
	if positions["EISBACH_CALL"] != -7 {
		t.Errorf("position = %d, want -7", positions["EISBACH_CALL"])
	}
}

func TestClient_SubmitBatch(t *testing.T) {
	var received massOrderRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(massOrderResponse{Accepted: len(received.Orders)})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, Credentials{Username: "trader", Password: "hunter2"})
	client.token = "tok-123"

	now := time.Now()
	orders := []domain.OrderRequest{
		domain.NewOrderRequest("P", domain.SideBuy, 950, 1, now),
		domain.NewOrderRequest("P", domain.SideSell, 1050, 1, now),
	}
	if err := client.SubmitBatch(context.Background(), orders); err != nil {
		t.Fatalf("SubmitBatch failed: %v", err)
	}

	if len(received.Orders) != 2 {
		t.Fatalf("server saw %d orders, want 2", len(received.Orders))
	}
	if received.Orders[0].Side != "BUY" || received.Orders[0].Price != 950 {
		t.Errorf("first order = %s@%d, want BUY@950", received.Orders[0].Side, received.Orders[0].Price)
	}
	if received.Orders[1].Side != "SELL" || received.Orders[1].Price != 1050 {
		t.Errorf("second order = %s@%d, want SELL@1050", received.Orders[1].Side, received.Orders[1].Price)
	}
}

func TestClient_SubmitBatchEmpty(t *testing.T) {
	// Must not touch the network at all.
	client := NewClient("http://127.0.0.1:1", Credentials{})
	if err := client.SubmitBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("IMCITY_USERNAME", "trader")
	t.Setenv("IMCITY_PASSWORD", "hunter2")

	creds, err := CredentialsFromEnv()
	if err != nil {
		t.Fatalf("CredentialsFromEnv failed: %v", err)
	}
	if creds.Username != "trader" || creds.Password != "hunter2" {
		t.Errorf("unexpected credentials: %+v", creds)
	}

	t.Setenv("IMCITY_PASSWORD", "")
	if _, err := CredentialsFromEnv(); err == nil {
		t.Error("expected error when password is missing")
	}
}
