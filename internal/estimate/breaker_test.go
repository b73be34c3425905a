package estimate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
)

func TestWeatherEstimatorBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewWeatherSumEstimator(srv.URL, 48.21, 11.62)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := e.Estimate(ctx); err == nil {
			t.Fatalf("call %d: expected error from failing source", i+1)
		}
	}
	if got := hits.Load(); got != 5 {
		t.Fatalf("server hits = %d, want 5", got)
	}

	// Breaker is open now: the next call is refused without touching
	// the source.
	_, err := e.Estimate(ctx)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("err = %v, want ErrSourceUnavailable", err)
	}
	if got := hits.Load(); got != 5 {
		t.Errorf("server hits = %d after open breaker, want still 5", got)
	}
}

func TestEisbachEstimatorBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewEisbachCallEstimator(srv.URL+"/level", srv.URL+"/flow", decimal.NewFromInt(1000))
	ctx := context.Background()

	// The level fetch fails first on every call, so each Estimate costs
	// exactly one request against the shared breaker.
	for i := 0; i < 5; i++ {
		if _, err := e.Estimate(ctx); err == nil {
			t.Fatalf("call %d: expected error from failing source", i+1)
		}
	}
	if got := hits.Load(); got != 5 {
		t.Fatalf("server hits = %d, want 5", got)
	}

	_, err := e.Estimate(ctx)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("err = %v, want ErrSourceUnavailable", err)
	}
	if got := hits.Load(); got != 5 {
		t.Errorf("server hits = %d after open breaker, want still 5", got)
	}
}
