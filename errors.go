package x402

import "errors"

// Sentinel errors for x402 payment operations.
var (
	// ErrValidation indicates caller input (resource URL or method) is invalid.
	ErrValidation = errors.New("x402: invalid resource or method")

	// ErrNoAcceptableRequirement indicates no payment requirement matched the
	// caller's filters.
	ErrNoAcceptableRequirement = errors.New("x402: no acceptable payment requirement")

	// ErrSigning indicates the signer rejected the key or the requirement's
	// network is unsupported.
	ErrSigning = errors.New("x402: payment signing failed")

	// ErrTransport indicates a network failure while talking to a resource server.
	ErrTransport = errors.New("x402: transport error")

	// ErrFacilitator indicates the facilitator service returned a non-success
	// status or was unreachable.
	ErrFacilitator = errors.New("x402: facilitator error")

	// ErrSchema indicates a malformed server payload.
	ErrSchema = errors.New("x402: malformed payment schema")

	// ErrInvalidKey indicates an invalid private key.
	ErrInvalidKey = errors.New("x402: invalid private key")

	// ErrInvalidNetwork indicates an unsupported network.
	ErrInvalidNetwork = errors.New("x402: invalid or unsupported network")

	// ErrAmountExceeded indicates the payment amount exceeds the per-call limit.
	ErrAmountExceeded = errors.New("x402: payment amount exceeds per-call limit")

	// ErrMalformedSettlement indicates the X-PAYMENT-RESPONSE header could not
	// be decoded. Callers treat this as a warning, not a failure.
	ErrMalformedSettlement = errors.New("x402: malformed settlement header")
)

// ErrorCode represents payment error codes for programmatic handling.
type ErrorCode string

const (
	// ErrCodeValidation indicates bad caller input before any network call.
	ErrCodeValidation ErrorCode = "VALIDATION_FAILED"

	// ErrCodeNotFound indicates no requirement satisfied the filters.
	ErrCodeNotFound ErrorCode = "NO_ACCEPTABLE_REQUIREMENT"

	// ErrCodeSigning indicates the signing operation failed.
	ErrCodeSigning ErrorCode = "SIGNING_FAILED"

	// ErrCodeTransport indicates network communication failed.
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"

	// ErrCodeFacilitator indicates the facilitator rejected or failed a request.
	ErrCodeFacilitator ErrorCode = "FACILITATOR_ERROR"

	// ErrCodeSchema indicates a malformed server payload.
	ErrCodeSchema ErrorCode = "SCHEMA_ERROR"
)

// PaymentError provides structured error information.
type PaymentError struct {
	// Code is the error code for programmatic handling.
	Code ErrorCode

	// Message is the human-readable error message.
	Message string

	// Details contains additional error context.
	Details map[string]interface{}

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PaymentError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new PaymentError with the given code and message.
func NewPaymentError(code ErrorCode, message string, err error) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// WithDetails adds additional context to the error.
// Lazily initializes the Details map if nil.
func (e *PaymentError) WithDetails(key string, value interface{}) *PaymentError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}
