package discovery

import (
	"math/big"
	"strings"

	x402 "github.com/protagolabs/x402-mcp"
)

// Filter narrows a catalog listing client-side. Zero-value fields are
// inactive; an empty Filter keeps every item.
type Filter struct {
	// Asset keeps only resources that accept payment in this asset
	// (contract address, case-insensitive).
	Asset string

	// MaxPrice keeps only resources with at least one requirement whose
	// amount does not exceed this value, in the asset's base units.
	MaxPrice *big.Int
}

// Apply narrows resp.Items in place to resources matching the filter. A
// resource matches when any one of its payment requirements satisfies
// every active criterion. Pagination is left untouched and keeps
// describing the unfiltered catalog window.
func (f Filter) Apply(resp *ListResponse) {
	if resp == nil {
		return
	}
	if f.Asset == "" && f.MaxPrice == nil {
		return
	}

	filtered := resp.Items[:0]
	for _, item := range resp.Items {
		if f.matchesAny(item.Accepts) {
			filtered = append(filtered, item)
		}
	}
	resp.Items = filtered
}

func (f Filter) matchesAny(accepts []x402.PaymentRequirement) bool {
	for i := range accepts {
		if f.matches(&accepts[i]) {
			return true
		}
	}
	return false
}

func (f Filter) matches(req *x402.PaymentRequirement) bool {
	if f.Asset != "" && !strings.EqualFold(f.Asset, req.Asset) {
		return false
	}
	if f.MaxPrice != nil {
		amount, err := req.MaxAmount()
		if err != nil {
			return false
		}
		if amount.Cmp(f.MaxPrice) > 0 {
			return false
		}
	}
	return true
}
