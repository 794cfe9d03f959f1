// Package helpers provides internal HTTP utilities for x402 protocol handling.
package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	x402 "github.com/protagolabs/x402-mcp"
	"github.com/protagolabs/x402-mcp/encoding"
)

// ErrNilPayment is returned when payment is nil in BuildPaymentHeader.
var ErrNilPayment = errors.New("payment is nil")

// ParsePaymentRequired extracts the PaymentRequired body from a 402
// response and validates each offered requirement against the protocol
// schema. Returns a SCHEMA_ERROR PaymentError if the body is not valid
// JSON, contains no requirements, or any requirement is malformed.
func ParsePaymentRequired(resp *http.Response) (*x402.PaymentRequired, error) {
	if resp == nil || resp.Body == nil {
		return nil, x402.NewPaymentError(x402.ErrCodeSchema, "missing response or body", x402.ErrSchema)
	}

	var paymentReq x402.PaymentRequired
	if err := json.NewDecoder(resp.Body).Decode(&paymentReq); err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeSchema, "failed to decode payment requirements", err)
	}

	if len(paymentReq.Accepts) == 0 {
		return nil, x402.NewPaymentError(x402.ErrCodeSchema, "no payment requirements in response", x402.ErrSchema)
	}

	for i := range paymentReq.Accepts {
		if err := paymentReq.Accepts[i].Validate(); err != nil {
			return nil, err
		}
	}

	return &paymentReq, nil
}

// BuildPaymentHeader creates the X-PAYMENT header value from a PaymentPayload.
// Returns an error if payment is nil or encoding fails.
func BuildPaymentHeader(payment *x402.PaymentPayload) (string, error) {
	if payment == nil {
		return "", fmt.Errorf("BuildPaymentHeader: %w", ErrNilPayment)
	}
	encoded, err := encoding.EncodePayment(*payment)
	if err != nil {
		return "", fmt.Errorf("BuildPaymentHeader: encode payment: %w", err)
	}
	return encoded, nil
}

// ParseSettlement extracts settlement information from an
// X-PAYMENT-RESPONSE header value. An empty header returns (nil, nil); a
// present-but-malformed header returns ErrMalformedSettlement so callers
// can surface a decode warning without failing the call.
func ParseSettlement(headerValue string) (*x402.SettlementResponse, error) {
	if headerValue == "" {
		return nil, nil
	}

	settlement, err := encoding.DecodeSettlement(headerValue)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", x402.ErrMalformedSettlement, err)
	}

	return &settlement, nil
}
