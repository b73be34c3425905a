package estimate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/infra"
)

const weatherBins = 48

// openMeteoResponse mirrors the minutely_15 block of the forecast API.
type openMeteoResponse struct {
	Minutely15 struct {
		Time        []string  `json:"time"`
		Temperature []float64 `json:"temperature_2m"`
		Humidity    []float64 `json:"relative_humidity_2m"`
	} `json:"minutely_15"`
}

// WeatherSumEstimator settles to |sum(2*T + H)| over 48 half-hour bins.
// The API delivers 15-minute samples; adjacent pairs are averaged into
// 30-minute bins before summing.
type WeatherSumEstimator struct {
	apiURL     string
	latitude   float64
	longitude  float64
	httpClient *http.Client
	breaker    *infra.CircuitBreaker
}

// NewWeatherSumEstimator creates the estimator against the given
// open-meteo endpoint.
func NewWeatherSumEstimator(apiURL string, lat, lon float64) *WeatherSumEstimator {
	return &WeatherSumEstimator{
		apiURL:    apiURL,
		latitude:  lat,
		longitude: lon,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig("weather_sum")),
	}
}

func (e *WeatherSumEstimator) Name() string { return "weather_sum" }

// Estimate fetches the forecast and evaluates the settlement formula.
func (e *WeatherSumEstimator) Estimate(ctx context.Context) (decimal.Decimal, error) {
	temps, hums, err := e.fetch(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	temps30 := resampleToHalfHour(temps)
	hums30 := resampleToHalfHour(hums)

	// The settlement window is the last 48 half-hour bins.
	if len(temps30) > weatherBins {
		temps30 = temps30[len(temps30)-weatherBins:]
	}
	if len(hums30) > weatherBins {
		hums30 = hums30[len(hums30)-weatherBins:]
	}
	if len(temps30) != len(hums30) {
		return decimal.Zero, fmt.Errorf("temperature and humidity series length mismatch: %d vs %d", len(temps30), len(hums30))
	}

	return weatherSum(temps30, hums30), nil
}

func (e *WeatherSumEstimator) fetch(ctx context.Context) ([]float64, []float64, error) {
	if !e.breaker.Allow() {
		return nil, nil, ErrSourceUnavailable
	}

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.2f", e.latitude))
	q.Set("longitude", fmt.Sprintf("%.2f", e.longitude))
	q.Set("minutely_15", "temperature_2m,relative_humidity_2m")
	q.Set("temperature_unit", "fahrenheit")
	q.Set("timezone", "Europe/Berlin")
	q.Set("forecast_days", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.apiURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build forecast request: %w", err)
	}
	req.Header.Set("User-Agent", infra.UserAgent())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.breaker.RecordFailure()
		return nil, nil, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.breaker.RecordFailure()
		return nil, nil, fmt.Errorf("forecast request returned status %d", resp.StatusCode)
	}
	e.breaker.RecordSuccess()

	var om openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&om); err != nil {
		return nil, nil, fmt.Errorf("failed to decode forecast: %w", err)
	}

	if len(om.Minutely15.Temperature) == 0 {
		return nil, nil, fmt.Errorf("forecast carried no temperature samples")
	}
	if len(om.Minutely15.Temperature) != len(om.Minutely15.Humidity) {
		return nil, nil, fmt.Errorf("forecast series length mismatch")
	}

	return om.Minutely15.Temperature, om.Minutely15.Humidity, nil
}

// resampleToHalfHour averages adjacent 15-minute samples into 30-minute
// bins. A trailing odd sample forms its own bin.
func resampleToHalfHour(samples []float64) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, (len(samples)+1)/2)
	for i := 0; i < len(samples); i += 2 {
		if i+1 < len(samples) {
			avg := decimal.NewFromFloat(samples[i]).
				Add(decimal.NewFromFloat(samples[i+1])).
				Div(decimal.NewFromInt(2))
			out = append(out, avg)
		} else {
			out = append(out, decimal.NewFromFloat(samples[i]))
		}
	}
	return out
}

// weatherSum is |sum(2*T + H)| over paired bins.
func weatherSum(temps, hums []decimal.Decimal) decimal.Decimal {
	two := decimal.NewFromInt(2)
	total := decimal.Zero
	for i := range temps {
		total = total.Add(temps[i].Mul(two).Add(hums[i]))
	}
	return total.Abs()
}
