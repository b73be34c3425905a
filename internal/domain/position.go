package domain

// Position is the signed net position for a single product.
// Positive volume is long, negative is short.
type Position struct {
	Product string `json:"product"`
	Volume  int64  `json:"volume"`
}

// IsLong checks if the position is long.
func (p *Position) IsLong() bool {
	return p.Volume > 0
}

// IsShort checks if the position is short.
func (p *Position) IsShort() bool {
	return p.Volume < 0
}

// Fill is a confirmed trade reported by the exchange. Buyer and Seller are
// account names; the agent matches them against its own username to decide
// which way its position moved.
type Fill struct {
	Product string `json:"product"`
	Price   int64  `json:"price"`
	Volume  int64  `json:"volume"`
	Buyer   string `json:"buyer"`
	Seller  string `json:"seller"`
}
