package validation

import (
	"errors"
	"testing"

	x402 "github.com/protagolabs/x402-mcp"
)

func TestValidateResource(t *testing.T) {
	tests := []struct {
		name     string
		resource string
		wantErr  bool
	}{
		{name: "valid https URL", resource: "https://api.example.com/weather"},
		{name: "valid http URL", resource: "http://localhost:8080/data"},
		{name: "deep path", resource: "https://api.example.com/v1/reports/daily"},
		{name: "missing scheme", resource: "api.example.com/weather", wantErr: true},
		{name: "ftp scheme", resource: "ftp://example.com/file", wantErr: true},
		{name: "no path", resource: "https://api.example.com", wantErr: true},
		{name: "empty", resource: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResource(tt.resource)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.resource)
				}
				var paymentErr *x402.PaymentError
				if !errors.As(err, &paymentErr) || paymentErr.Code != x402.ErrCodeValidation {
					t.Errorf("expected VALIDATION_FAILED, got %v", err)
				}
				if !errors.Is(err, x402.ErrValidation) {
					t.Error("expected error to wrap ErrValidation")
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateResource(%q) failed: %v", tt.resource, err)
			}
		})
	}
}

func TestSplitResource(t *testing.T) {
	tests := []struct {
		resource string
		baseURL  string
		path     string
	}{
		{"https://api.example.com/weather", "https://api.example.com", "/weather"},
		{"https://api.example.com/v1/reports/daily", "https://api.example.com", "/v1/reports/daily"},
		{"http://localhost:8080/data", "http://localhost:8080", "/data"},
	}

	for _, tt := range tests {
		baseURL, path := SplitResource(tt.resource)
		if baseURL != tt.baseURL || path != tt.path {
			t.Errorf("SplitResource(%q) = (%q, %q), want (%q, %q)",
				tt.resource, baseURL, path, tt.baseURL, tt.path)
		}
	}
}

func TestValidateMethod(t *testing.T) {
	for _, method := range []string{"get", "GET", "Get", "post", "POST"} {
		if err := ValidateMethod(method); err != nil {
			t.Errorf("ValidateMethod(%q) failed: %v", method, err)
		}
	}

	for _, method := range []string{"put", "DELETE", "PATCH", "head", ""} {
		err := ValidateMethod(method)
		if err == nil {
			t.Errorf("ValidateMethod(%q) should fail", method)
			continue
		}
		var paymentErr *x402.PaymentError
		if !errors.As(err, &paymentErr) || paymentErr.Code != x402.ErrCodeValidation {
			t.Errorf("expected VALIDATION_FAILED for %q, got %v", method, err)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount("10000"); err != nil {
		t.Errorf("ValidateAmount(10000) failed: %v", err)
	}
	if err := ValidateAmount(""); err != nil {
		t.Errorf("ValidateAmount of empty string failed: %v", err)
	}
	if err := ValidateAmount("1.5"); err == nil {
		t.Error("expected error for decimal amount")
	}
}
