package estimate

import (
	"context"
	"math"

	"github.com/shopspring/decimal"
)

// ETFInputs are the five component fundamentals of the composite index.
type ETFInputs struct {
	FlowRate      decimal.Decimal
	WaterLevel    decimal.Decimal
	Temperature   decimal.Decimal
	Humidity      decimal.Decimal
	AirportMetric decimal.Decimal
}

// ETFEstimator settles to the absolute value of a fixed-weight composite:
// 0.3*flow + 0.1*level + 0.2*temp + 0.1*humidity + 0.3*airport.
// The component values come from configuration; they change rarely and
// the markets behind them are not always open.
type ETFEstimator struct {
	inputs ETFInputs
}

// NewETFEstimator creates a composite estimator over fixed inputs.
func NewETFEstimator(inputs ETFInputs) *ETFEstimator {
	return &ETFEstimator{inputs: inputs}
}

func (e *ETFEstimator) Name() string { return "etf" }

func (e *ETFEstimator) Estimate(_ context.Context) (decimal.Decimal, error) {
	return etfComposite(e.inputs), nil
}

func etfComposite(in ETFInputs) decimal.Decimal {
	w3 := decimal.NewFromFloat(0.3)
	w2 := decimal.NewFromFloat(0.2)
	w1 := decimal.NewFromFloat(0.1)

	etf := in.FlowRate.Mul(w3).
		Add(in.WaterLevel.Mul(w1)).
		Add(in.Temperature.Mul(w2)).
		Add(in.Humidity.Mul(w1)).
		Add(in.AirportMetric.Mul(w3))
	return etf.Abs()
}

// AirportMetric is the per-interval congestion metric feeding the ETF:
// 300 * (arrivals - departures) / (arrivals + departures)^1.5.
// Returns 0 for an empty interval.
func AirportMetric(arrivals, departures int64) float64 {
	denom := arrivals + departures
	if denom == 0 {
		return 0
	}
	return 300 * float64(arrivals-departures) / math.Pow(float64(denom), 1.5)
}
