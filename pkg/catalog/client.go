package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	pricePath           = "api/price/doors"
	availableParamsPath = "api/available-params"
	defaultHTTPTimeout  = 15 * time.Second

	responseBodyReadLimit int64 = 1024
)

var errBaseURLRequired = errors.New("catalog base url is required")

// Client talks to the remote door catalog.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAPIKey sets the key forwarded in the X-Api-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithTimeout bounds every request independently of the caller's context.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a catalog client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Selection is the door configuration sent for pricing.
type Selection struct {
	Style       string `json:"style,omitempty"`
	Model       string `json:"model,omitempty"`
	Finish      string `json:"finish,omitempty"`
	Color       string `json:"color,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	HardwareKit *Ref   `json:"hardware_kit,omitempty"`
	Handle      *Ref   `json:"handle,omitempty"`
}

// Ref points at a catalog entity by ID.
type Ref struct {
	ID string `json:"id"`
}

// BreakdownLine is one component of a quoted price.
type BreakdownLine struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Quote is the catalog's answer for a selection.
type Quote struct {
	Total     decimal.Decimal
	SKU       string
	Breakdown []BreakdownLine
}

// AvailableParams lists the values the catalog accepts for a style/model/color.
type AvailableParams struct {
	Finishes []string `json:"finishes"`
	Colors   []string `json:"colors"`
	Widths   []int    `json:"widths"`
	Heights  []int    `json:"heights"`
}

// AvailableParamsRequest narrows the lookup.
type AvailableParamsRequest struct {
	Style string `json:"style,omitempty"`
	Model string `json:"model,omitempty"`
	Color string `json:"color,omitempty"`
}

// PriceDoor asks the catalog for the authoritative price of a selection.
// A 404 means the catalog has no product for these parameters.
func (c *Client) PriceDoor(ctx context.Context, selection Selection) (*Quote, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "catalog client not configured")
	}

	var apiResp struct {
		Total     *decimal.Decimal `json:"total"`
		SKU       string           `json:"sku_1c"`
		Breakdown []BreakdownLine  `json:"breakdown"`
	}
	payload := map[string]any{"selection": selection}
	if err := c.post(ctx, pricePath, payload, &apiResp); err != nil {
		return nil, err
	}
	if apiResp.Total == nil || !apiResp.Total.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "catalog returned no price")
	}

	return &Quote{
		Total:     *apiResp.Total,
		SKU:       apiResp.SKU,
		Breakdown: apiResp.Breakdown,
	}, nil
}

// AvailableParams returns the combinations the catalog can price.
func (c *Client) AvailableParams(ctx context.Context, req AvailableParamsRequest) (*AvailableParams, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "catalog client not configured")
	}

	var apiResp struct {
		Params *AvailableParams `json:"params"`
	}
	if err := c.post(ctx, availableParamsPath, req, &apiResp); err != nil {
		return nil, err
	}
	if apiResp.Params == nil {
		return nil, pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "catalog returned no parameters")
	}
	return apiResp.Params, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal catalog request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build catalog request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return pkgerrors.Wrap(pkgerrors.CodeRecalculationTimeout, err, "catalog request timed out")
		}
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "execute catalog request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeInvalidCombination, "no product for the selected parameters")
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "catalog request failed").
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(ctx, err) {
			return pkgerrors.Wrap(pkgerrors.CodeRecalculationTimeout, err, "catalog response timed out")
		}
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "decode catalog response")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
