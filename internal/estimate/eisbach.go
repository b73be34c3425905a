package estimate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/infra"
)

const gaugeWindow = 24

// EisbachCallEstimator settles a call option on the Isar gauge markets.
// The underlying settlement is (max(level) - max(flow)) * (min(level) -
// min(flow)) over the last 24 gauge readings, rounded; the call is worth
// max(0, settlement - strike).
type EisbachCallEstimator struct {
	levelURL   string
	flowURL    string
	strike     decimal.Decimal
	httpClient *http.Client
	breaker    *infra.CircuitBreaker
}

// NewEisbachCallEstimator creates the estimator against the two gauge
// table pages.
func NewEisbachCallEstimator(levelURL, flowURL string, strike decimal.Decimal) *EisbachCallEstimator {
	return &EisbachCallEstimator{
		levelURL: levelURL,
		flowURL:  flowURL,
		strike:   strike,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		// Both gauge pages sit on the same host, so they share one breaker.
		breaker: infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig("eisbach_gauge")),
	}
}

func (e *EisbachCallEstimator) Name() string { return "eisbach_call" }

// Estimate scrapes both gauge tables and evaluates the call value.
func (e *EisbachCallEstimator) Estimate(ctx context.Context) (decimal.Decimal, error) {
	levels, err := e.fetchSeries(ctx, e.levelURL)
	if err != nil {
		return decimal.Zero, fmt.Errorf("water level scrape failed: %w", err)
	}
	flows, err := e.fetchSeries(ctx, e.flowURL)
	if err != nil {
		return decimal.Zero, fmt.Errorf("flow rate scrape failed: %w", err)
	}

	if len(levels) > gaugeWindow {
		levels = levels[len(levels)-gaugeWindow:]
	}
	if len(flows) > gaugeWindow {
		flows = flows[len(flows)-gaugeWindow:]
	}

	settlement, err := eisbachSettlement(flows, levels)
	if err != nil {
		return decimal.Zero, err
	}
	return callValue(settlement, e.strike), nil
}

func (e *EisbachCallEstimator) fetchSeries(ctx context.Context, pageURL string) ([]decimal.Decimal, error) {
	if !e.breaker.Allow() {
		return nil, ErrSourceUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build gauge request: %w", err)
	}
	req.Header.Set("User-Agent", infra.UserAgent())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.breaker.RecordFailure()
		return nil, fmt.Errorf("gauge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.breaker.RecordFailure()
		return nil, fmt.Errorf("gauge page returned status %d", resp.StatusCode)
	}
	e.breaker.RecordSuccess()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gauge page: %w", err)
	}

	series := parseGaugeTable(string(body))
	if len(series) == 0 {
		return nil, fmt.Errorf("no readings found in gauge table")
	}
	return series, nil
}

var gaugeRowRe = regexp.MustCompile(
	`(?s)<td[^>]*>\s*\d{2}\.\d{2}\.\d{4}[^<]*</td>\s*<td[^>]*>\s*([\d.]+,\d+|\d+)\s*</td>`)

// parseGaugeTable pulls the value column out of a gauge table page.
// Rows are "dd.mm.yyyy hh:mm | value" with German number formatting.
// The page lists newest readings first; the result is reversed into
// chronological order.
func parseGaugeTable(html string) []decimal.Decimal {
	matches := gaugeRowRe.FindAllStringSubmatch(html, -1)

	out := make([]decimal.Decimal, 0, len(matches))
	for i := len(matches) - 1; i >= 0; i-- {
		raw := matches[i][1]
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
		val, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		out = append(out, val)
	}
	return out
}

// eisbachSettlement is (max(wl) - max(fr)) * (min(wl) - min(fr)), rounded.
func eisbachSettlement(flows, levels []decimal.Decimal) (decimal.Decimal, error) {
	if len(flows) == 0 || len(levels) == 0 {
		return decimal.Zero, fmt.Errorf("gauge series cannot be empty")
	}

	maxWL, minWL := minMax(levels)
	maxFR, minFR := minMax(flows)

	result := maxWL.Sub(maxFR).Mul(minWL.Sub(minFR))
	return result.Round(0), nil
}

func minMax(series []decimal.Decimal) (max, min decimal.Decimal) {
	max, min = series[0], series[0]
	for _, v := range series[1:] {
		if v.GreaterThan(max) {
			max = v
		}
		if v.LessThan(min) {
			min = v
		}
	}
	return max, min
}

// callValue is max(0, settlement - strike).
func callValue(settlement, strike decimal.Decimal) decimal.Decimal {
	v := settlement.Sub(strike)
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
