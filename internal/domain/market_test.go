package domain

import "testing"

func TestMarketSnapshot_MidAndSpread(t *testing.T) {
	tests := []struct {
		name       string
		bid, ask   int64
		wantMid    float64
		wantSpread int64
	}{
		{"Even", 100, 110, 105.0, 10},
		{"Odd", 100, 101, 100.5, 1},
		{"Crossed", 110, 100, 105.0, -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &MarketSnapshot{BestBid: tt.bid, BestAsk: tt.ask}
			if got := s.Mid(); got != tt.wantMid {
				t.Errorf("Mid() = %v, want %v", got, tt.wantMid)
			}
			if got := s.Spread(); got != tt.wantSpread {
				t.Errorf("Spread() = %v, want %v", got, tt.wantSpread)
			}
		})
	}
}
