package http

import (
	"net/http"
	"time"

	x402 "github.com/protagolabs/x402-mcp"
	"github.com/protagolabs/x402-mcp/http/internal/helpers"
)

// PaymentHeader is the request header carrying the payment authorization.
const PaymentHeader = "X-PAYMENT"

// SettlementHeader is the response header carrying the settlement receipt.
const SettlementHeader = "X-PAYMENT-RESPONSE"

// PayingTransport is an http.RoundTripper that negotiates x402 payments.
// It wraps an existing RoundTripper: the request is sent unpaid first, and
// if the server answers 402 Payment Required, the transport selects one of
// the offered requirements, signs a payment authorization, and reissues
// the identical request once with the X-PAYMENT header attached. There is
// never more than one paid retry per call, and the signer is invoked at
// most once.
type PayingTransport struct {
	// Base is the underlying RoundTripper (typically http.DefaultTransport).
	Base http.RoundTripper

	// Signer produces payment authorizations for the configured account.
	Signer x402.Signer

	// Filter constrains which offered requirements are acceptable.
	Filter x402.RequirementFilter

	// OnPaymentAttempt is called when a payment attempt is made.
	OnPaymentAttempt x402.PaymentCallback

	// OnPaymentSuccess is called when a payment settles successfully.
	OnPaymentSuccess x402.PaymentCallback

	// OnPaymentFailure is called when a payment fails.
	OnPaymentFailure x402.PaymentCallback
}

// RoundTrip implements http.RoundTripper.
func (t *PayingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Base == nil {
		t.Base = http.DefaultTransport
	}

	// First attempt, unpaid. Clone so the original request stays reusable.
	firstReq, err := cloneRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := t.Base.RoundTrip(firstReq)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusPaymentRequired {
		return resp, nil
	}

	paymentReq, err := helpers.ParsePaymentRequired(resp)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	selected, err := x402.SelectRequirement(paymentReq.Accepts, t.Filter)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()

	payment, err := x402.BuildPayment(selected, t.Signer)
	if err != nil {
		t.emitFailure(req, selected, err, time.Since(startTime))
		return nil, err
	}

	if t.OnPaymentAttempt != nil {
		t.OnPaymentAttempt(x402.PaymentEvent{
			Type:      x402.PaymentEventAttempt,
			Timestamp: startTime,
			URL:       req.URL.String(),
			Network:   selected.Network,
			Scheme:    selected.Scheme,
			Amount:    selected.MaxAmountRequired,
			Asset:     selected.Asset,
			Recipient: selected.PayTo,
		})
	}

	paymentHeader, err := helpers.BuildPaymentHeader(payment)
	if err != nil {
		err = x402.NewPaymentError(x402.ErrCodeSigning, "failed to build payment header", err)
		t.emitFailure(req, selected, err, time.Since(startTime))
		return nil, err
	}

	// Reissue the identical request once with the authorization attached.
	retryReq, err := cloneRequest(req)
	if err != nil {
		return nil, err
	}
	retryReq.Header.Set(PaymentHeader, paymentHeader)

	retryResp, err := t.Base.RoundTrip(retryReq)
	duration := time.Since(startTime)
	if err != nil {
		t.emitFailure(req, selected, err, duration)
		return nil, err
	}

	if t.OnPaymentSuccess != nil {
		settlement, _ := helpers.ParseSettlement(retryResp.Header.Get(SettlementHeader))
		if settlement != nil && settlement.Success {
			t.OnPaymentSuccess(x402.PaymentEvent{
				Type:        x402.PaymentEventSuccess,
				Timestamp:   time.Now(),
				URL:         req.URL.String(),
				Network:     selected.Network,
				Scheme:      selected.Scheme,
				Amount:      selected.MaxAmountRequired,
				Asset:       selected.Asset,
				Recipient:   selected.PayTo,
				Transaction: settlement.Transaction,
				Duration:    duration,
			})
		}
	}

	return retryResp, nil
}

func (t *PayingTransport) emitFailure(req *http.Request, selected *x402.PaymentRequirement, err error, duration time.Duration) {
	if t.OnPaymentFailure == nil {
		return
	}
	event := x402.PaymentEvent{
		Type:      x402.PaymentEventFailure,
		Timestamp: time.Now(),
		URL:       req.URL.String(),
		Error:     err,
		Duration:  duration,
	}
	if selected != nil {
		event.Network = selected.Network
		event.Scheme = selected.Scheme
		event.Amount = selected.MaxAmountRequired
		event.Asset = selected.Asset
		event.Recipient = selected.PayTo
	}
	t.OnPaymentFailure(event)
}

// cloneRequest copies a request including a fresh body reader, so the same
// logical request can be sent twice. Requests with a body must carry
// GetBody (true for requests built by http.NewRequest with common reader
// types).
func cloneRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		// Single-shot body: the first send consumes it.
		return clone, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}
