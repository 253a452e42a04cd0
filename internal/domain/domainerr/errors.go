// Package domainerr holds the error taxonomy shared by the valuation engine,
// the workflow state machine and the usecases.
//
// Every structured error unwraps to one sentinel so callers can branch with
// errors.Is and still recover details with errors.As.
package domainerr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad or missing declared data. Recoverable by the user.
	ErrValidation = errors.New("validation error")

	// ErrRuleResolution marks a missing active rule version or an exhausted
	// price fallback chain. Operational fault.
	ErrRuleResolution = errors.New("rule resolution error")

	// ErrPayment marks a provider-reported payment failure. Retriable.
	ErrPayment = errors.New("payment error")

	// ErrStateTransition marks an attempt to move the workflow along an edge
	// that does not exist.
	ErrStateTransition = errors.New("state transition error")

	// ErrProviderUnavailable marks an external provider that stayed unreachable
	// after retries. Operational fault, the call is expected to be replayed.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrPersistence marks a failed write to the audit ledger, rule store or
	// estimation store.
	ErrPersistence = errors.New("persistence error")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

type RuleResolutionError struct {
	Reason string
}

func (e *RuleResolutionError) Error() string { return "rule resolution error: " + e.Reason }

func (e *RuleResolutionError) Unwrap() error { return ErrRuleResolution }

type PaymentError struct {
	Reason         string
	ProviderStatus string
}

func (e *PaymentError) Error() string {
	if e.ProviderStatus == "" {
		return "payment error: " + e.Reason
	}
	return fmt.Sprintf("payment error: %s (provider_status=%s)", e.Reason, e.ProviderStatus)
}

func (e *PaymentError) Unwrap() error { return ErrPayment }

type ProviderUnavailableError struct {
	Op  string
	Err error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("provider unavailable: %s: %v", e.Op, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() []error { return []error{ErrProviderUnavailable, e.Err} }

func NewProviderUnavailableError(op string, err error) *ProviderUnavailableError {
	return &ProviderUnavailableError{Op: op, Err: err}
}

type StateTransitionError struct {
	From   string
	Action string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("state transition error: %s not allowed from %s", e.Action, e.From)
}

func (e *StateTransitionError) Unwrap() error { return ErrStateTransition }

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %s: %v", e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the storage cause.
func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// IsSystemFault reports whether err must abort the operation and alert operators
// rather than be surfaced to the user as actionable.
func IsSystemFault(err error) bool {
	return errors.Is(err, ErrRuleResolution) || errors.Is(err, ErrPersistence) || errors.Is(err, ErrProviderUnavailable)
}
