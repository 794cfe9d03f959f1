package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	x402 "github.com/protagolabs/x402-mcp"
	"github.com/protagolabs/x402-mcp/validation"
)

// ServiceRequest describes one logical call to a paid x402 resource.
type ServiceRequest struct {
	// Resource is the full URL of the resource to call.
	Resource string

	// Method is the HTTP method, "get" or "post" (case-insensitive).
	Method string

	// Input carries the request payload: query parameters for GET,
	// a JSON body for POST.
	Input map[string]interface{}
}

// ServiceResult is the outcome of a successful service call.
type ServiceResult struct {
	// StatusCode is the status of the final response (paid or unpaid).
	StatusCode int

	// Body is the full response body.
	Body string

	// Settlement is the decoded settlement receipt, or nil when the
	// resource did not require payment or omitted the header.
	Settlement *x402.SettlementResponse

	// SettlementWarning is set when a settlement header was present but
	// could not be decoded. The body is still returned.
	SettlementWarning error
}

// SettlementHash returns the settled transaction hash, or "" when no
// receipt was returned.
func (r *ServiceResult) SettlementHash() string {
	if r.Settlement == nil {
		return ""
	}
	return r.Settlement.Transaction
}

// CallService performs one payment-aware call to an x402 resource.
//
// Input validation (URL shape, method) happens before any network call.
// The unpaid attempt, 402 negotiation, and single paid retry are handled
// by the client's PayingTransport; CallService reads the full response
// body and soft-decodes the settlement receipt. A malformed receipt is
// reported through ServiceResult.SettlementWarning, never as a failure.
func (c *Client) CallService(ctx context.Context, req ServiceRequest) (*ServiceResult, error) {
	if err := validation.ValidateResource(req.Resource); err != nil {
		return nil, err
	}
	if err := validation.ValidateMethod(req.Method); err != nil {
		return nil, err
	}

	httpReq, err := buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(httpReq)
	if err != nil {
		return nil, asCallError(err, httpReq.URL.Path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeTransport, "failed to read response body", err).
			WithDetails("path", httpReq.URL.Path)
	}

	result := &ServiceResult{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}

	settlement, err := GetSettlement(resp)
	if err != nil {
		result.SettlementWarning = err
	} else {
		result.Settlement = settlement
	}

	return result, nil
}

// buildRequest constructs the outgoing HTTP request: GET calls carry the
// input as query parameters, POST calls as a JSON body.
func buildRequest(ctx context.Context, req ServiceRequest) (*http.Request, error) {
	method := strings.ToUpper(req.Method)

	if method == http.MethodGet {
		target := req.Resource
		if len(req.Input) > 0 {
			values := url.Values{}
			for key, value := range req.Input {
				values.Set(key, fmt.Sprintf("%v", value))
			}
			separator := "?"
			if strings.Contains(target, "?") {
				separator = "&"
			}
			target = target + separator + values.Encode()
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, x402.NewPaymentError(x402.ErrCodeValidation, "invalid resource URL", err).
				WithDetails("resource", req.Resource)
		}
		return httpReq, nil
	}

	payload := req.Input
	if payload == nil {
		payload = map[string]interface{}{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeValidation, "failed to encode input data", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Resource, bytes.NewReader(data))
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeValidation, "invalid resource URL", err).
			WithDetails("resource", req.Resource)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

// asCallError classifies a failure from http.Client.Do. Payment errors
// raised inside the transport (selection, signing, schema) pass through
// with their codes intact; everything else, including timeouts, becomes a
// TRANSPORT_ERROR with the target path for context.
func asCallError(err error, path string) error {
	var paymentErr *x402.PaymentError
	if errors.As(err, &paymentErr) {
		return paymentErr
	}
	return x402.NewPaymentError(x402.ErrCodeTransport, "request failed", err).
		WithDetails("path", path)
}
