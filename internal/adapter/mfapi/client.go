// Package mfapi is a client for the mfapi.in mutual fund NAV API
package mfapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/simaogato/navflow-backend/internal/domain"
)

const (
	DefaultBaseURL   = "https://api.mfapi.in"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements domain.NAVSource and domain.CatalogSource
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the per-request HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets the maximum requests per second
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new mfapi client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is a non-success HTTP answer. It matches domain.ErrTransport.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mfapi error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

func (e *APIError) Unwrap() error { return domain.ErrTransport }

// flexString holds a JSON scalar that may arrive as a string or a number
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("cannot unmarshal %s as string or number", string(data))
	}
	*f = flexString(n.String())
	return nil
}

type historyResponse struct {
	Meta struct {
		SchemeCode flexString `json:"scheme_code"`
		SchemeName string     `json:"scheme_name"`
	} `json:"meta"`
	Data   []historyEntry `json:"data"`
	Status string         `json:"status"`
}

type historyEntry struct {
	Date string     `json:"date"`
	NAV  flexString `json:"nav"`
}

type schemeEntry struct {
	SchemeCode flexString `json:"schemeCode"`
	SchemeName string     `json:"schemeName"`
}

// get performs a rate-limited GET and decodes the JSON body into result
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", reqURL).Msg("mfapi request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w: %w", domain.ErrMalformedResponse, err)
	}

	return nil
}

// History returns the full NAV history of a scheme in source order (newest first).
// The whole response is rejected if any entry has an unparsable date or value.
func (c *Client) History(ctx context.Context, code string) ([]domain.ValuationPoint, error) {
	var resp historyResponse
	if err := c.get(ctx, "/mf/"+url.PathEscape(code), &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no data for scheme %s", domain.ErrMalformedResponse, code)
	}

	points := make([]domain.ValuationPoint, 0, len(resp.Data))
	for i, entry := range resp.Data {
		point, err := entry.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: scheme %s entry %d: %v", domain.ErrMalformedResponse, code, i, err)
		}
		points = append(points, point)
	}

	return points, nil
}

func (e historyEntry) toDomain() (domain.ValuationPoint, error) {
	on, err := domain.ParseSourceDate(strings.TrimSpace(e.Date))
	if err != nil {
		return domain.ValuationPoint{}, err
	}
	nav, err := decimal.NewFromString(string(e.NAV))
	if err != nil {
		return domain.ValuationPoint{}, fmt.Errorf("invalid nav %q: %w", e.NAV, err)
	}
	if nav.IsNegative() {
		return domain.ValuationPoint{}, fmt.Errorf("negative nav %s", nav)
	}
	return domain.ValuationPoint{Date: on, NAV: nav}, nil
}

// Schemes returns the full universe of scheme codes and names
func (c *Client) Schemes(ctx context.Context) ([]domain.SchemeSummary, error) {
	var entries []schemeEntry
	if err := c.get(ctx, "/mf", &entries); err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty scheme list", domain.ErrMalformedResponse)
	}

	schemes := make([]domain.SchemeSummary, 0, len(entries))
	for i, entry := range entries {
		if entry.SchemeCode == "" || entry.SchemeName == "" {
			return nil, fmt.Errorf("%w: scheme list entry %d lacks code or name", domain.ErrMalformedResponse, i)
		}
		schemes = append(schemes, domain.SchemeSummary{
			Code: string(entry.SchemeCode),
			Name: entry.SchemeName,
		})
	}

	return schemes, nil
}
