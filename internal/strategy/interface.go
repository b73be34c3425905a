package strategy

// Quoter defines the pricing logic that turns a settlement estimate and the
// current position into a two-sided quote. Implementations must be pure:
// same inputs, same quote.
type Quoter interface {
	// Quote returns the candidate bid and ask prices for one product.
	// bid <= ask holds for any non-negative spread configuration.
	Quote(settlement int64, position int64) (bid int64, ask int64)
}
