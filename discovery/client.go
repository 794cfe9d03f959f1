package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	x402 "github.com/protagolabs/x402-mcp"
	"github.com/protagolabs/x402-mcp/retry"
)

// DefaultLimit is the page size used when ListOptions.Limit is zero.
const DefaultLimit = 100

// Client queries a facilitator's Bazaar discovery endpoint.
type Client struct {
	// BaseURL is the facilitator base URL, without a trailing slash.
	BaseURL string

	// HTTPClient is used for requests. Defaults to a client with the
	// standard request timeout.
	HTTPClient *http.Client

	// MaxRetries is the number of additional attempts after a transport
	// failure. Zero by default: a timed-out call fails immediately with
	// a TRANSPORT_ERROR. Server rejections (non-200) are never retried.
	MaxRetries int

	// RetryDelay is the initial backoff between attempts.
	RetryDelay time.Duration

	// Authorization, when set, is sent as the Authorization header.
	Authorization string
}

// NewClient creates a discovery client for the given facilitator URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: x402.DefaultRequestTimeout},
		MaxRetries: 0,
		RetryDelay: 500 * time.Millisecond,
	}
}

// ListResources fetches one page of the discovery catalog. A transport
// failure surfaces as a TRANSPORT_ERROR; it is retried with backoff only
// when MaxRetries is set. A non-200 response becomes a FACILITATOR_ERROR
// carrying the status and body, and a body that does not match the
// catalog schema becomes a SCHEMA_ERROR.
func (c *Client) ListResources(ctx context.Context, opts ListOptions) (*ListResponse, error) {
	if c.BaseURL == "" {
		return nil, x402.NewPaymentError(x402.ErrCodeValidation, "facilitator URL is not configured", x402.ErrValidation)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(opts.Offset))
	if opts.Type != "" {
		query.Set("type", opts.Type)
	}

	endpoint := c.BaseURL + "/discovery/resources?" + query.Encode()

	cfg := retry.Config{
		MaxAttempts:  c.MaxRetries + 1,
		InitialDelay: c.RetryDelay,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
	}

	return retry.WithRetry(ctx, cfg, transportOnly, func() (*ListResponse, error) {
		return c.listOnce(ctx, endpoint)
	})
}

func (c *Client) listOnce(ctx context.Context, endpoint string) (*ListResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeValidation, "invalid facilitator URL", err).
			WithDetails("url", endpoint)
	}
	req.Header.Set("Accept", "application/json")
	if c.Authorization != "" {
		req.Header.Set("Authorization", c.Authorization)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: x402.DefaultRequestTimeout}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeTransport, "discovery request failed", err).
			WithDetails("url", endpoint)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeTransport, "failed to read discovery response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, x402.NewPaymentError(x402.ErrCodeFacilitator,
			fmt.Sprintf("discovery returned status %d", resp.StatusCode), x402.ErrFacilitator).
			WithDetails("status", resp.StatusCode).
			WithDetails("body", string(body))
	}

	var list ListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeSchema, "failed to decode discovery response", err)
	}

	return &list, nil
}

// transportOnly reports whether an error is worth retrying. Facilitator
// rejections and schema failures are final.
func transportOnly(err error) bool {
	var paymentErr *x402.PaymentError
	if errors.As(err, &paymentErr) {
		return paymentErr.Code == x402.ErrCodeTransport
	}
	return false
}
