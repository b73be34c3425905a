package estimate

import (
	"context"

	"github.com/shopspring/decimal"
)

// StaticEstimator returns a fixed configured value. Used for markets
// where no live data source exists and the estimate is set by hand.
type StaticEstimator struct {
	value decimal.Decimal
}

// NewStaticEstimator creates a fixed-value estimator.
func NewStaticEstimator(value decimal.Decimal) *StaticEstimator {
	return &StaticEstimator{value: value}
}

func (e *StaticEstimator) Name() string { return "static" }

func (e *StaticEstimator) Estimate(_ context.Context) (decimal.Decimal, error) {
	return e.value, nil
}
