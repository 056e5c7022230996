package provision

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// ErrorType represents the category of a provisioning failure
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing listens on the portal port
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a hostname resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates an unexpected status code from the portal
	ErrTypeHTTP
	// ErrTypeRejected indicates the portal refused the form (400)
	ErrTypeRejected
	// ErrTypeSaveFailed indicates the device could not store the credentials (500)
	ErrTypeSaveFailed
	// ErrTypeValidation indicates the request was not sent because the input is invalid
	ErrTypeValidation
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeRejected:
		return "Rejected"
	case ErrTypeSaveFailed:
		return "Save Failed"
	case ErrTypeValidation:
		return "Validation Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is a classified provisioning failure.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Body       string
	Err        error
	Retryable  bool
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError maps a transport error to an Error.
func ClassifyNetworkError(message string, err error) *Error {
	if os.IsTimeout(err) {
		return &Error{Type: ErrTypeTimeout, Message: message, Err: err, Retryable: true}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Type: ErrTypeDNS, Message: message, Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return &Error{Type: ErrTypeConnectionRefused, Message: message, Err: err, Retryable: true}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return ClassifyNetworkError(message, urlErr.Err)
	}

	return &Error{Type: ErrTypeNetwork, Message: message, Err: err, Retryable: true}
}

// NewStatusError classifies a non-200 portal response.
func NewStatusError(statusCode int, body string) *Error {
	e := &Error{StatusCode: statusCode, Body: body}
	switch {
	case statusCode == 400:
		e.Type = ErrTypeRejected
		e.Message = "portal rejected the form"
	case statusCode == 500:
		e.Type = ErrTypeSaveFailed
		e.Message = "device could not store the credentials"
	default:
		e.Type = ErrTypeHTTP
		e.Message = fmt.Sprintf("unexpected status code: %d", statusCode)
		e.Retryable = statusCode == 503 || statusCode == 502 || statusCode == 504
	}
	return e
}

// NewValidationError creates a validation error
func NewValidationError(message string) *Error {
	return &Error{Type: ErrTypeValidation, Message: message}
}

func typeOf(err error) (ErrorType, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Type, true
	}
	return 0, false
}

// IsNetworkError reports a transport level failure.
func IsNetworkError(err error) bool {
	t, ok := typeOf(err)
	return ok && (t == ErrTypeNetwork || t == ErrTypeTimeout || t == ErrTypeConnectionRefused || t == ErrTypeDNS)
}

// IsSaveFailed reports that the device answered 500.
func IsSaveFailed(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeSaveFailed
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// Troubleshooting returns hints for the CLI failure box.
func Troubleshooting(err error) []string {
	t, ok := typeOf(err)
	if !ok {
		return nil
	}
	switch t {
	case ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeNetwork:
		return []string{
			"Join the device's setup network (default wifistat-setup)",
			"The portal only runs while the device shows \"Setup mode\"",
			"Check the address; the device default is 192.168.4.1",
		}
	case ErrTypeDNS:
		return []string{
			"Use the IP address instead of the hostname",
			"Run 'wifistat discover' to find the portal",
		}
	case ErrTypeSaveFailed:
		return []string{
			"The device restarts after a failed save; wait and retry",
			"A storage error on the device display means the flash needs attention",
		}
	case ErrTypeRejected:
		return []string{"Both networkName and secret must be sent"}
	}
	return nil
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Type {
	case ErrTypeTimeout:
		return "Device not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Device refused connection - is it in setup mode?"
	case ErrTypeDNS:
		return "Cannot resolve device hostname"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeRejected:
		return "Portal rejected the form"
	case ErrTypeSaveFailed:
		return "Device failed to save the credentials"
	case ErrTypeHTTP:
		return fmt.Sprintf("Device error (HTTP %d)", e.StatusCode)
	default:
		return e.Message
	}
}
