package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/arhambintariq/imc-challenge-robotraders/internal/domain"
	"github.com/arhambintariq/imc-challenge-robotraders/internal/infra"
)

// ErrCircuitOpen is returned when the breaker refuses a call.
var ErrCircuitOpen = fmt.Errorf("exchange circuit breaker open")

// Client is the authenticated REST client for the exchange. All calls
// pass a token-bucket rate limiter and a circuit breaker; a 401 triggers
// one transparent re-login.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client

	limiter *infra.RateLimiter
	breaker *infra.CircuitBreaker

	mu    sync.RWMutex
	token string
}

// NewClient creates a REST client for the given base URL.
func NewClient(baseURL string, creds Credentials) *Client {
	return &Client{
		baseURL: baseURL,
		creds:   creds,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: infra.NewRateLimiter(10, 10), // 10 req/s burst 10
		breaker: infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig("exchange")),
	}
}

// Login authenticates and stores the session token.
func (c *Client) Login(ctx context.Context) error {
	body, err := json.Marshal(loginRequest{
		Username: c.creds.Username,
		Password: c.creds.Password,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", infra.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login rejected: status %d", resp.StatusCode)
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	if lr.Token == "" {
		return fmt.Errorf("login response carried no token")
	}

	c.mu.Lock()
	c.token = lr.Token
	c.mu.Unlock()

	slog.Info("Exchange login successful", slog.String("user", c.creds.Username))
	return nil
}

// Token returns the current session token (for the WebSocket feed).
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// GetOrderBook fetches the current book for one product.
func (c *Client) GetOrderBook(ctx context.Context, product string) (*OrderBook, error) {
	var book OrderBook
	err := c.doJSON(ctx, http.MethodGet, "/order_book/"+product, nil, &book)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order book for %s: %w", product, err)
	}
	return &book, nil
}

// GetPositions fetches the exchange's authoritative position report.
func (c *Client) GetPositions(ctx context.Context) (map[string]int64, error) {
	var pr positionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/positions", nil, &pr); err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}
	if pr.Positions == nil {
		return map[string]int64{}, nil
	}
	return pr.Positions, nil
}

// SubmitBatch submits all orders in a single mass-order call.
func (c *Client) SubmitBatch(ctx context.Context, orders []domain.OrderRequest) error {
	if len(orders) == 0 {
		return nil
	}

	payload := massOrderRequest{Orders: make([]orderPayload, 0, len(orders))}
	for _, ord := range orders {
		payload.Orders = append(payload.Orders, orderPayload{
			ClientID: ord.ClientID,
			Product:  ord.Product,
			Side:     string(ord.Side),
			Price:    ord.Price,
			Volume:   ord.Volume,
		})
	}

	var mr massOrderResponse
	if err := c.doJSON(ctx, http.MethodPost, "/orders", payload, &mr); err != nil {
		return fmt.Errorf("mass order submission failed: %w", err)
	}

	if len(mr.Errors) > 0 {
		slog.Warn("Exchange rejected some orders",
			slog.Int("accepted", mr.Accepted),
			slog.Int("rejected", len(mr.Errors)))
	}
	return nil
}

// doJSON performs one authenticated call with rate limiting, breaker
// accounting, and a single re-login retry on 401.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	if !c.breaker.Allow() {
		return ErrCircuitOpen
	}
	c.limiter.Wait()

	status, err := c.doOnce(ctx, method, path, body, out)
	if status == http.StatusUnauthorized {
		slog.Warn("Session token expired, re-authenticating")
		if err := c.Login(ctx); err != nil {
			c.breaker.RecordFailure()
			return err
		}
		status, err = c.doOnce(ctx, method, path, body, out)
	}

	if err != nil {
		c.breaker.RecordFailure()
		return err
	}
	c.breaker.RecordSuccess()
	return nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", infra.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, fmt.Errorf("unauthorized")
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("unexpected status %d for %s %s", resp.StatusCode, method, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
