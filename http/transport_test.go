package http

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	x402 "github.com/protagolabs/x402-mcp"
	"github.com/protagolabs/x402-mcp/encoding"
)

// mockSigner implements x402.Signer for testing
type mockSigner struct {
	network   string
	scheme    string
	tokens    []x402.TokenConfig
	maxAmount *big.Int
	signErr   error
	signCalls int32
}

func (m *mockSigner) Network() string                { return m.network }
func (m *mockSigner) Scheme() string                 { return m.scheme }
func (m *mockSigner) GetTokens() []x402.TokenConfig  { return m.tokens }
func (m *mockSigner) GetMaxAmount() *big.Int         { return m.maxAmount }
func (m *mockSigner) CanSign(req *x402.PaymentRequirement) bool {
	return req.Network == m.network && req.Scheme == m.scheme
}
func (m *mockSigner) Sign(req *x402.PaymentRequirement) (*x402.PaymentPayload, error) {
	atomic.AddInt32(&m.signCalls, 1)
	if m.signErr != nil {
		return nil, m.signErr
	}
	return &x402.PaymentPayload{
		X402Version: x402.X402Version,
		Scheme:      req.Scheme,
		Network:     req.Network,
		Payload: x402.ExactEVMPayload{
			Signature: "0xmocksig",
			Authorization: x402.EVMAuthorization{
				From:  "0xpayer",
				To:    req.PayTo,
				Value: req.MaxAmountRequired,
			},
		},
	}, nil
}

func newBaseSigner() *mockSigner {
	return &mockSigner{network: "base-sepolia", scheme: "exact"}
}

func paymentRequiredBody() x402.PaymentRequired {
	return x402.PaymentRequired{
		X402Version: 1,
		Error:       "Payment required",
		Accepts: []x402.PaymentRequirement{
			{
				Scheme:            "exact",
				Network:           "base-sepolia",
				MaxAmountRequired: "10000",
				Asset:             "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
				PayTo:             "0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
				MaxTimeoutSeconds: 60,
			},
		},
	}
}

func TestTransport_NonPaymentRequired(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))
	defer server.Close()

	signer := newBaseSigner()
	transport := &PayingTransport{Base: http.DefaultTransport, Signer: signer}

	req, _ := http.NewRequest("GET", server.URL+"/api/data", nil)
	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	// Exactly one HTTP request and no signing for an unpaid resource.
	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Errorf("expected 1 request, got %d", got)
	}
	if signer.signCalls != 0 {
		t.Errorf("signer should not be invoked, got %d calls", signer.signCalls)
	}
}

func TestTransport_PaymentRequired_AutoPay(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(&requests, 1)

		if count == 1 {
			if r.Header.Get(PaymentHeader) != "" {
				t.Error("first attempt must be unpaid")
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusPaymentRequired)
			_ = json.NewEncoder(w).Encode(paymentRequiredBody())
			return
		}

		paymentHeader := r.Header.Get(PaymentHeader)
		if paymentHeader == "" {
			t.Error("expected X-PAYMENT header on retry")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		payment, err := encoding.DecodePayment(paymentHeader)
		if err != nil {
			t.Errorf("failed to decode payment: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if payment.X402Version != 1 {
			t.Errorf("expected x402Version 1, got %d", payment.X402Version)
		}
		if payment.Network != "base-sepolia" {
			t.Errorf("payment bound to wrong network: %s", payment.Network)
		}

		settlement := x402.SettlementResponse{
			Success:     true,
			Transaction: "0x1234567890abcdef",
			Network:     "base-sepolia",
			Payer:       "0xpayer",
		}
		encoded, _ := encoding.EncodeSettlement(settlement)
		w.Header().Set(SettlementHeader, encoded)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Protected content"))
	}))
	defer server.Close()

	signer := newBaseSigner()
	transport := &PayingTransport{Base: http.DefaultTransport, Signer: signer}

	req, _ := http.NewRequest("GET", server.URL+"/api/data", nil)
	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	// Exactly two HTTP requests and one signature for a paid call.
	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
	if signer.signCalls != 1 {
		t.Errorf("expected 1 sign call, got %d", signer.signCalls)
	}

	settlement, err := GetSettlement(resp)
	if err != nil {
		t.Fatalf("GetSettlement failed: %v", err)
	}
	if settlement == nil || !settlement.Success || settlement.Transaction != "0x1234567890abcdef" {
		t.Errorf("unexpected settlement: %+v", settlement)
	}
}

func TestTransport_NoAcceptableRequirement(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(paymentRequiredBody())
	}))
	defer server.Close()

	signer := newBaseSigner()
	transport := &PayingTransport{
		Base:   http.DefaultTransport,
		Signer: signer,
		Filter: x402.RequirementFilter{Network: "polygon"},
	}

	req, _ := http.NewRequest("GET", server.URL+"/api/data", nil)
	_, err := transport.RoundTrip(req)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, x402.ErrNoAcceptableRequirement) {
		t.Errorf("expected ErrNoAcceptableRequirement, got %v", err)
	}
	// No paid retry when nothing is acceptable.
	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Errorf("expected 1 request, got %d", got)
	}
	if signer.signCalls != 0 {
		t.Errorf("signer should not be invoked, got %d calls", signer.signCalls)
	}
}

func TestTransport_SigningFailure(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(paymentRequiredBody())
	}))
	defer server.Close()

	signer := newBaseSigner()
	signer.signErr = errors.New("key unavailable")

	var failureEvent *x402.PaymentEvent
	transport := &PayingTransport{
		Base:   http.DefaultTransport,
		Signer: signer,
		OnPaymentFailure: func(event x402.PaymentEvent) {
			failureEvent = &event
		},
	}

	req, _ := http.NewRequest("GET", server.URL+"/api/data", nil)
	_, err := transport.RoundTrip(req)
	if err == nil {
		t.Fatal("expected error")
	}
	var paymentErr *x402.PaymentError
	if !errors.As(err, &paymentErr) || paymentErr.Code != x402.ErrCodeSigning {
		t.Errorf("expected SIGNING_FAILED, got %v", err)
	}
	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Errorf("expected 1 request, got %d", got)
	}
	if failureEvent == nil || failureEvent.Type != x402.PaymentEventFailure {
		t.Error("expected a failure event")
	}
}

func TestTransport_MalformedPaymentRequired(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not JSON", body: "oops"},
		{name: "empty accepts", body: `{"x402Version":1,"accepts":[]}`},
		{name: "requirement missing fields", body: `{"x402Version":1,"accepts":[{"scheme":"exact"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusPaymentRequired)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			transport := &PayingTransport{Base: http.DefaultTransport, Signer: newBaseSigner()}

			req, _ := http.NewRequest("GET", server.URL+"/api/data", nil)
			_, err := transport.RoundTrip(req)
			if err == nil {
				t.Fatal("expected error")
			}
			var paymentErr *x402.PaymentError
			if !errors.As(err, &paymentErr) || paymentErr.Code != x402.ErrCodeSchema {
				t.Errorf("expected SCHEMA_ERROR, got %v", err)
			}
		})
	}
}

func TestTransport_PaymentCallbacks(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusPaymentRequired)
			_ = json.NewEncoder(w).Encode(paymentRequiredBody())
			return
		}
		settlement := x402.SettlementResponse{Success: true, Transaction: "0xdeadbeef"}
		encoded, _ := encoding.EncodeSettlement(settlement)
		w.Header().Set(SettlementHeader, encoded)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var attempt, success *x402.PaymentEvent
	transport := &PayingTransport{
		Base:   http.DefaultTransport,
		Signer: newBaseSigner(),
		OnPaymentAttempt: func(event x402.PaymentEvent) {
			attempt = &event
		},
		OnPaymentSuccess: func(event x402.PaymentEvent) {
			success = &event
		},
	}

	req, _ := http.NewRequest("GET", server.URL+"/api/data", nil)
	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	resp.Body.Close()

	if attempt == nil {
		t.Fatal("expected attempt event")
	}
	if attempt.Amount != "10000" || attempt.Network != "base-sepolia" {
		t.Errorf("unexpected attempt event: %+v", attempt)
	}
	if success == nil {
		t.Fatal("expected success event")
	}
	if success.Transaction != "0xdeadbeef" {
		t.Errorf("unexpected success event: %+v", success)
	}
}
