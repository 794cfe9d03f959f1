package x402

import "math/big"

// RequirementFilter constrains which payment requirements are acceptable.
// Zero-value fields are unset and match everything.
type RequirementFilter struct {
	// Network, when set, requires an exact network match.
	Network string

	// Scheme, when set, requires an exact scheme match.
	Scheme string

	// MaxValue, when set, requires MaxAmountRequired <= MaxValue.
	MaxValue *big.Int
}

// SelectRequirement chooses one payment requirement from a server-offered
// list. It iterates in server order and returns the first entry satisfying
// every set filter; the server's ordering is the only tie-break, there is
// no scoring or best-price logic.
//
// Returns a NO_ACCEPTABLE_REQUIREMENT PaymentError when the list is empty
// or no entry matches.
func SelectRequirement(accepts []PaymentRequirement, filter RequirementFilter) (*PaymentRequirement, error) {
	for i := range accepts {
		req := &accepts[i]

		if filter.Network != "" && req.Network != filter.Network {
			continue
		}
		if filter.Scheme != "" && req.Scheme != filter.Scheme {
			continue
		}
		if filter.MaxValue != nil {
			amount, err := req.MaxAmount()
			if err != nil {
				continue
			}
			if amount.Cmp(filter.MaxValue) > 0 {
				continue
			}
		}

		return req, nil
	}

	return nil, NewPaymentError(ErrCodeNotFound, "no acceptable payment requirement", ErrNoAcceptableRequirement).
		WithDetails("candidates", len(accepts))
}

// BuildPayment creates a signed payment authorization for a selected
// requirement. It delegates the signature to the signer and wraps any
// refusal (unsupported network, key problems, amount limits) in a
// SIGNING_FAILED PaymentError. BuildPayment does not transmit anything.
func BuildPayment(req *PaymentRequirement, signer Signer) (*PaymentPayload, error) {
	if signer == nil {
		return nil, NewPaymentError(ErrCodeSigning, "no signer configured", ErrSigning)
	}

	if !signer.CanSign(req) {
		return nil, NewPaymentError(ErrCodeSigning, "signer cannot satisfy requirement", ErrSigning).
			WithDetails("network", req.Network).
			WithDetails("asset", req.Asset)
	}

	payment, err := signer.Sign(req)
	if err != nil {
		return nil, NewPaymentError(ErrCodeSigning, "failed to sign payment", err)
	}

	return payment, nil
}
