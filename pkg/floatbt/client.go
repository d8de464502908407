package floatbt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"floatbt/internal/httpapi"
)

// Client provides a Go SDK for interacting with the floatbt-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new floatbt API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Query selects the inputs of a backtest. Zero fields use the server's
// configured defaults.
type Query struct {
	Days      int
	Spend     float64
	Regime    string
	Seed      *uint64
	Drift     string
	StartDate string   // YYYY-MM-DD
	Regimes   []string // compare only
	Sort      string   // compare only
	NoRecords bool     // backtest only
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Days != 0 {
		v.Set("days", strconv.Itoa(q.Days))
	}
	if q.Spend != 0 {
		v.Set("spend", strconv.FormatFloat(q.Spend, 'f', -1, 64))
	}
	if q.Regime != "" {
		v.Set("regime", q.Regime)
	}
	if q.Seed != nil {
		v.Set("seed", strconv.FormatUint(*q.Seed, 10))
	}
	if q.Drift != "" {
		v.Set("drift", q.Drift)
	}
	if q.StartDate != "" {
		v.Set("start", q.StartDate)
	}
	if len(q.Regimes) > 0 {
		v.Set("regimes", strings.Join(q.Regimes, ","))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.NoRecords {
		v.Set("records", "false")
	}
	return v
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("floatbt api: %d %s", e.StatusCode, e.Message)
}

// GetRegimes lists the regimes, year aliases and drift strategies the server
// knows.
func (c *Client) GetRegimes(ctx context.Context) (*httpapi.RegimesResponse, error) {
	var out httpapi.RegimesResponse
	if err := c.get(ctx, "/api/regimes", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunBacktest runs a single backtest on the server.
func (c *Client) RunBacktest(ctx context.Context, q Query) (*httpapi.RunJSON, error) {
	var out httpapi.RunJSON
	if err := c.get(ctx, "/api/backtest", q.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Compare runs the same backtest under several regimes.
func (c *Client) Compare(ctx context.Context, q Query) (*httpapi.CompareResponse, error) {
	var out httpapi.CompareResponse
	if err := c.get(ctx, "/api/compare", q.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRuns returns the most recent exported runs.
func (c *Client) ListRuns(ctx context.Context, limit int) ([]httpapi.StoredRunJSON, error) {
	v := url.Values{}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	var out []httpapi.StoredRunJSON
	if err := c.get(ctx, "/api/runs", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
