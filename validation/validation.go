// Package validation provides caller-input validation for x402 service
// calls. All checks here run before any network traffic is issued.
package validation

import (
	"strings"

	x402 "github.com/protagolabs/x402-mcp"
)

// ValidateResource checks that a resource URL is callable: it must begin
// with http or https and must contain a path component beyond
// scheme://host (at least four slash-delimited segments, e.g.
// "https://api.example.com/weather").
//
// Returns a VALIDATION_FAILED PaymentError on any violation.
func ValidateResource(resource string) error {
	if !strings.HasPrefix(resource, "http") {
		return x402.NewPaymentError(x402.ErrCodeValidation,
			"resource must be a URL starting with http or https", x402.ErrValidation).
			WithDetails("resource", resource)
	}

	if len(strings.Split(resource, "/")) < 4 {
		return x402.NewPaymentError(x402.ErrCodeValidation,
			"resource URL must include a path beyond the host", x402.ErrValidation).
			WithDetails("resource", resource)
	}

	return nil
}

// SplitResource splits a validated resource URL into its base URL
// (scheme://host) and endpoint path ("/rest/of/path").
func SplitResource(resource string) (baseURL, endpointPath string) {
	parts := strings.Split(resource, "/")
	baseURL = strings.Join(parts[:3], "/")
	endpointPath = "/" + strings.Join(parts[3:], "/")
	return baseURL, endpointPath
}

// ValidateMethod checks that an HTTP method is one this client supports.
// Only GET and POST are allowed; matching is case-insensitive.
//
// Returns a VALIDATION_FAILED PaymentError for anything else.
func ValidateMethod(method string) error {
	switch strings.ToLower(method) {
	case "get", "post":
		return nil
	default:
		return x402.NewPaymentError(x402.ErrCodeValidation,
			"unsupported HTTP method", x402.ErrValidation).
			WithDetails("method", method)
	}
}

// ValidateAmount checks that an amount string is a valid non-negative
// integer (the empty string counts as zero).
func ValidateAmount(amount string) error {
	_, err := x402.ParseAmount(amount)
	return err
}
