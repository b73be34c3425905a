package strategy

import (
	"github.com/arhambintariq/imc-challenge-robotraders/pkg/safe"
)

// RiskGate decides, per side, whether a hypothetical fill of one more order
// would keep |position| within the limit. Each side is evaluated
// independently; a rejected side is simply omitted, never an error.
type RiskGate struct {
	PositionLimit int64
}

// CanBuy reports whether a buy of volume keeps the position within +limit.
func (g RiskGate) CanBuy(position, volume int64) bool {
	return safe.SafeAdd(position, volume) <= g.PositionLimit
}

// CanSell reports whether a sell of volume keeps the position within -limit.
func (g RiskGate) CanSell(position, volume int64) bool {
	return safe.SafeSub(position, volume) >= -g.PositionLimit
}
