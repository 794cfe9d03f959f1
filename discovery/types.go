// Package discovery queries the facilitator's Bazaar catalog of
// x402-protected resources and filters the results client-side.
package discovery

import (
	x402 "github.com/protagolabs/x402-mcp"
)

// Resource is one entry in the Bazaar discovery catalog.
type Resource struct {
	// Resource is the URL of the x402-protected endpoint.
	Resource string `json:"resource"`

	// Type is the resource type (currently only "http").
	Type string `json:"type"`

	// X402Version is the protocol version the resource speaks.
	X402Version int `json:"x402Version"`

	// Accepts lists the payment requirements for this resource.
	Accepts []x402.PaymentRequirement `json:"accepts"`

	// LastUpdated is when the resource was last registered or updated.
	LastUpdated string `json:"lastUpdated,omitempty"`

	// Metadata carries optional catalog metadata, passed through untouched.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Pagination describes the server-side window of a catalog listing. After
// client-side filtering the counts are advisory: they reflect the
// unfiltered catalog, not the items actually returned.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// ListResponse is the facilitator's answer to a catalog listing.
type ListResponse struct {
	X402Version int        `json:"x402Version"`
	Items       []Resource `json:"items"`
	Pagination  Pagination `json:"pagination"`
}

// ListOptions controls a catalog listing request.
type ListOptions struct {
	// Type filters by resource type, e.g. "http". Empty means all types.
	Type string

	// Limit is the maximum number of items to return. Zero means the
	// default of 100.
	Limit int

	// Offset is the number of items to skip.
	Offset int
}
