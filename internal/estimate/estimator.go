package estimate

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/infra"
)

// ErrEstimatorPanic is returned when an estimator panics mid-run.
var ErrEstimatorPanic = errors.New("estimator panicked")

// ErrSourceUnavailable is returned when an estimator's data source
// breaker refuses the call.
var ErrSourceUnavailable = errors.New("estimate source circuit breaker open")

// Estimator computes the expected settlement value for one product.
// Implementations fetch whatever external data they need on each call.
type Estimator interface {
	Name() string
	Estimate(ctx context.Context) (decimal.Decimal, error)
}

// Registry maps product names to their estimators. Iteration order
// follows the configured product list.
type Registry struct {
	products   []string
	estimators map[string]Estimator
}

// BuildRegistry wires one estimator per configured product.
func BuildRegistry(cfg *infra.Config) (*Registry, error) {
	reg := &Registry{
		estimators: make(map[string]Estimator, len(cfg.Products)),
	}

	for _, pc := range cfg.Products {
		var est Estimator
		switch pc.Estimator {
		case "weather_sum":
			est = NewWeatherSumEstimator(cfg.Estimate.OpenMeteoURL, cfg.Estimate.Latitude, cfg.Estimate.Longitude)
		case "eisbach_call":
			est = NewEisbachCallEstimator(cfg.Estimate.GaugeLevelURL, cfg.Estimate.GaugeFlowURL, decimal.NewFromFloat(pc.Strike))
		case "etf":
			f := cfg.Estimate.Fundamentals
			est = NewETFEstimator(ETFInputs{
				FlowRate:      decimal.NewFromFloat(f.EisbachFlow),
				WaterLevel:    decimal.NewFromFloat(f.EisbachLevel),
				Temperature:   decimal.NewFromFloat(f.MunichTemp),
				Humidity:      decimal.NewFromFloat(f.MunichHumidity),
				AirportMetric: decimal.NewFromFloat(f.AirportMetric),
			})
		case "static":
			est = NewStaticEstimator(decimal.NewFromFloat(pc.Value))
		default:
			return nil, fmt.Errorf("unknown estimator %q for product %s", pc.Estimator, pc.Name)
		}

		reg.products = append(reg.products, pc.Name)
		reg.estimators[pc.Name] = est
	}

	return reg, nil
}

// Products returns the configured product names in order.
func (r *Registry) Products() []string {
	out := make([]string, len(r.products))
	copy(out, r.products)
	return out
}

// Get returns the estimator for a product.
func (r *Registry) Get(product string) (Estimator, bool) {
	est, ok := r.estimators[product]
	return est, ok
}
