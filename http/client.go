// Package http provides the payment-aware HTTP client for the x402
// protocol: a 402-negotiating transport, a configurable client wrapper,
// and the CallService orchestration used by the tool host.
package http

import (
	"fmt"
	"net/http"
	"time"

	x402 "github.com/protagolabs/x402-mcp"
	"github.com/protagolabs/x402-mcp/http/internal/helpers"
)

// Client is an HTTP client that automatically handles x402 payment flows.
// It wraps a standard http.Client and adds payment handling via a custom
// RoundTripper. Each Client is safe for concurrent use if its Signer is.
type Client struct {
	*http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client) error

// NewClient creates a new x402-enabled HTTP client. The default request
// timeout is x402.DefaultRequestTimeout.
func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		Client: &http.Client{Timeout: x402.DefaultRequestTimeout},
	}

	if client.Transport == nil {
		client.Transport = http.DefaultTransport
	}

	for _, opt := range opts {
		if err := opt(client); err != nil {
			return nil, err
		}
	}

	return client, nil
}

// WithHTTPClient sets a custom underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) error {
		c.Client = httpClient
		if c.Transport == nil {
			c.Transport = http.DefaultTransport
		}
		return nil
	}
}

// WithSigner sets the payment signer bound to this client's account.
func WithSigner(signer x402.Signer) ClientOption {
	return func(c *Client) error {
		getOrCreateTransport(c).Signer = signer
		return nil
	}
}

// WithFilter constrains which server-offered payment requirements are
// acceptable (network, scheme, maximum amount).
func WithFilter(filter x402.RequirementFilter) ClientOption {
	return func(c *Client) error {
		getOrCreateTransport(c).Filter = filter
		return nil
	}
}

// WithTimeout bounds every request made by the client, including the paid
// retry. On expiry the request fails with a transport error.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", d)
		}
		c.Client.Timeout = d
		return nil
	}
}

// WithPaymentCallback sets a callback for a specific payment event type.
func WithPaymentCallback(eventType x402.PaymentEventType, callback x402.PaymentCallback) ClientOption {
	return func(c *Client) error {
		transport := getOrCreateTransport(c)
		switch eventType {
		case x402.PaymentEventAttempt:
			transport.OnPaymentAttempt = callback
		case x402.PaymentEventSuccess:
			transport.OnPaymentSuccess = callback
		case x402.PaymentEventFailure:
			transport.OnPaymentFailure = callback
		default:
			return fmt.Errorf("unknown payment event type: %s", eventType)
		}
		return nil
	}
}

// WithPaymentCallbacks sets all payment callbacks at once.
// Pass nil for any callback you don't want to set.
func WithPaymentCallbacks(onAttempt, onSuccess, onFailure x402.PaymentCallback) ClientOption {
	return func(c *Client) error {
		transport := getOrCreateTransport(c)
		if onAttempt != nil {
			transport.OnPaymentAttempt = onAttempt
		}
		if onSuccess != nil {
			transport.OnPaymentSuccess = onSuccess
		}
		if onFailure != nil {
			transport.OnPaymentFailure = onFailure
		}
		return nil
	}
}

// getOrCreateTransport gets the PayingTransport or wraps the current one.
func getOrCreateTransport(c *Client) *PayingTransport {
	transport, ok := c.Transport.(*PayingTransport)
	if !ok {
		transport = &PayingTransport{Base: c.Transport}
		c.Transport = transport
	}
	return transport
}

// GetSettlement extracts the settlement receipt from an HTTP response.
// Returns (nil, nil) when no settlement header is present, and a non-nil
// error when the header is present but malformed.
func GetSettlement(resp *http.Response) (*x402.SettlementResponse, error) {
	return helpers.ParseSettlement(resp.Header.Get(SettlementHeader))
}
