package strategy

import (
	"github.com/shopspring/decimal"
)

// InventorySkewQuoter quotes symmetrically around the estimated settlement
// value and optionally shifts the theoretical mid against the current
// inventory: as the position grows long the quote drifts down to encourage
// selling, and symmetrically when short.
//
// Prices are truncated toward zero, matching the settlement's sign
// convention.
type InventorySkewQuoter struct {
	spreadPct     decimal.Decimal // 0..100
	skewIntensity decimal.Decimal // >= 0, 0 disables skew
	positionLimit int64
}

// NewInventorySkewQuoter creates a quoter. skewIntensity 0 yields plain
// symmetric quotes.
func NewInventorySkewQuoter(spreadPct, skewIntensity float64, positionLimit int64) *InventorySkewQuoter {
	if positionLimit <= 0 {
		panic("InventorySkewQuoter: positionLimit must be positive")
	}
	return &InventorySkewQuoter{
		spreadPct:     decimal.NewFromFloat(spreadPct),
		skewIntensity: decimal.NewFromFloat(skewIntensity),
		positionLimit: positionLimit,
	}
}

// Quote implements Quoter.
//
//	half = settlement * spreadPct / 200
//	mid  = settlement - (position / limit) * skewIntensity
//	bid  = trunc(mid - half), ask = trunc(mid + half)
func (q *InventorySkewQuoter) Quote(settlement int64, position int64) (int64, int64) {
	s := decimal.NewFromInt(settlement)
	half := s.Mul(q.spreadPct).Div(decimal.NewFromInt(200))

	mid := s
	if q.skewIntensity.IsPositive() && position != 0 {
		skew := decimal.NewFromInt(position).
			Div(decimal.NewFromInt(q.positionLimit)).
			Mul(q.skewIntensity).
			Neg()
		mid = mid.Add(skew)
	}

	bid := mid.Sub(half).IntPart()
	ask := mid.Add(half).IntPart()
	return bid, ask
}
