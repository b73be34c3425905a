package strategy

import "testing"

func TestRiskGate_PerSide(t *testing.T) {
	gate := RiskGate{PositionLimit: 100}

	tests := []struct {
		name     string
		position int64
		volume   int64
		canBuy   bool
		canSell  bool
	}{
		{"Flat", 0, 1, true, true},
		{"NearLongLimit", 99, 1, true, true},
		{"AtLongLimit", 100, 1, false, true},
		{"NearShortLimit", -99, 1, true, true},
		{"AtShortLimit", -100, 1, true, false},
		{"BigVolumeBothBlocked", 0, 101, false, false},
		{"BigVolumeOneSide", 50, 60, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gate.CanBuy(tt.position, tt.volume); got != tt.canBuy {
				t.Errorf("CanBuy(%d, %d) = %v, want %v", tt.position, tt.volume, got, tt.canBuy)
			}
			if got := gate.CanSell(tt.position, tt.volume); got != tt.canSell {
				t.Errorf("CanSell(%d, %d) = %v, want %v", tt.position, tt.volume, got, tt.canSell)
			}
		})
	}
}

// A permitted one-unit trade can never push |position| past the limit.
func TestRiskGate_NeverBreaches(t *testing.T) {
	gate := RiskGate{PositionLimit: 5}
	for pos := int64(-5); pos <= 5; pos++ {
		if gate.CanBuy(pos, 1) && pos+1 > 5 {
			t.Errorf("CanBuy allowed breach from %d", pos)
		}
		if gate.CanSell(pos, 1) && pos-1 < -5 {
			t.Errorf("CanSell allowed breach from %d", pos)
		}
	}
}
