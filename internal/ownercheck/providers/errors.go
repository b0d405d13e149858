package providers

import (
	"errors"
	"fmt"
)

// ErrorCategory defines the normalized failure taxonomy
type ErrorCategory string

const (
	// ErrorCredentialRejected means the bank refused the username/password.
	// The adapter stops trying until it is reconfigured.
	ErrorCredentialRejected ErrorCategory = "credential_rejected"

	// ErrorSessionExpired means the bank no longer accepts the current token
	ErrorSessionExpired ErrorCategory = "session_expired"

	// ErrorTransient covers timeouts, connection errors and malformed responses
	ErrorTransient ErrorCategory = "transient"

	// ErrorNotFound indicates the bank returned no owner for the account
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorUnknownBank indicates the bank hint is not in the directory
	ErrorUnknownBank ErrorCategory = "unknown_bank"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps adapter failures with normalized categorization
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.ProviderID, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError creates a new normalized provider error
func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	retryable := category == ErrorSessionExpired || category == ErrorTransient

	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

var (
	// ErrRetriesExhausted is returned once the retry cap is exceeded.
	ErrRetriesExhausted = errors.New("connect false")
	// ErrAdapterRejected is returned by an adapter whose credentials were refused earlier.
	ErrAdapterRejected = errors.New("adapter credentials rejected")
)

// Reason renders an error as the short text carried by an Unavailable result.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRetriesExhausted):
		return ErrRetriesExhausted.Error()
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}
