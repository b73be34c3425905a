package main

import (
	"flag"
	"fmt"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/strategy"
)

// quotetest prints the quote ladder for a settlement estimate across the
// whole position range. Handy for eyeballing spread and skew parameters
// before pointing the agent at a live exchange.
func main() {
	settlement := flag.Int64("settlement", 1000, "settlement estimate")
	spreadPct := flag.Float64("spread", 10, "spread as percent of settlement")
	skew := flag.Float64("skew", 0, "inventory skew intensity in price units")
	limit := flag.Int64("limit", 100, "position limit")
	step := flag.Int64("step", 25, "position step between rows")
	volume := flag.Int64("volume", 1, "per-order volume")
	flag.Parse()

	quoter := strategy.NewInventorySkewQuoter(*spreadPct, *skew, *limit)
	gate := strategy.RiskGate{PositionLimit: *limit}

	fmt.Printf("settlement=%d spread=%.1f%% skew=%.1f limit=%d\n\n", *settlement, *spreadPct, *skew, *limit)
	fmt.Println("position      bid      ask   sides")

	for pos := -*limit; pos <= *limit; pos += *step {
		bid, ask := quoter.Quote(*settlement, pos)

		sides := ""
		if gate.CanBuy(pos, *volume) {
			sides += "B"
		}
		if gate.CanSell(pos, *volume) {
			sides += "S"
		}

		fmt.Printf("%8d %8d %8d   %s\n", pos, bid, ask, sides)
	}
}
