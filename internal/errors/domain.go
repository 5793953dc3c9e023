// Package errors defines the domain error taxonomy shared by the ledger,
// payment, escrow and review services.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// DomainError is a typed business failure. Sentinels are compared by Code, so
// copies carrying extra detail still satisfy errors.Is.
type DomainError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"-"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy of e carrying the given details.
func (e *DomainError) WithDetails(details map[string]interface{}) *DomainError {
	cp := *e
	cp.Details = make(map[string]interface{}, len(details))
	for k, v := range details {
		cp.Details[k] = v
	}
	return &cp
}

// WithMessage returns a copy of e with a more specific message.
func (e *DomainError) WithMessage(format string, args ...interface{}) *DomainError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

func newError(status int, code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Status: status}
}

// AsDomainError unwraps err into a DomainError if it carries one.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Input errors
var (
	ErrMissingFields     = newError(http.StatusBadRequest, "MISSING_FIELDS", "missing required fields")
	ErrInvalidAmount     = newError(http.StatusBadRequest, "INVALID_AMOUNT", "invalid amount format")
	ErrNonPositiveAmount = newError(http.StatusBadRequest, "NON_POSITIVE_AMOUNT", "amount must be positive")
	ErrAmountMismatch    = newError(http.StatusBadRequest, "AMOUNT_MISMATCH", "amount does not match transaction value")
	ErrValidationFailed  = newError(http.StatusBadRequest, "VALIDATION_FAILED", "validation failed")
)

// Lookup errors
var (
	ErrWalletNotFound       = newError(http.StatusNotFound, "WALLET_NOT_FOUND", "wallet not found")
	ErrTransactionNotFound  = newError(http.StatusNotFound, "TRANSACTION_NOT_FOUND", "transaction not found")
	ErrMilestoneNotFound    = newError(http.StatusNotFound, "MILESTONE_NOT_FOUND", "milestone not found")
	ErrUserNotFound         = newError(http.StatusNotFound, "USER_NOT_FOUND", "user not found")
	ErrNotificationNotFound = newError(http.StatusNotFound, "NOTIFICATION_NOT_FOUND", "notification not found")
)

// Business rule errors
var (
	ErrInsufficientBalance = newError(http.StatusBadRequest, "INSUFFICIENT_BALANCE", "insufficient wallet balance")
	ErrInsufficientFunds   = newError(http.StatusBadRequest, "INSUFFICIENT_FUNDS", "insufficient funds")
	ErrBalanceLimit        = newError(http.StatusBadRequest, "BALANCE_LIMIT_EXCEEDED", "resulting balance exceeds the supported maximum")
	ErrForbidden           = newError(http.StatusForbidden, "FORBIDDEN", "action not permitted for this user")
	ErrInvalidTransition   = newError(http.StatusBadRequest, "INVALID_TRANSITION", "action not allowed in current status")
	ErrDuplicateReview     = newError(http.StatusBadRequest, "DUPLICATE_REVIEW", "you have already reviewed this transaction")
	ErrInvalidRating       = newError(http.StatusBadRequest, "INVALID_RATING", "rating must be between 1 and 5")
	ErrNotCompletedYet     = newError(http.StatusBadRequest, "NOT_COMPLETED_YET", "transaction is not completed yet")
)

// Access and infrastructure errors
var (
	ErrUnauthorized     = newError(http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	ErrInvalidSignature = newError(http.StatusUnauthorized, "INVALID_SIGNATURE", "invalid webhook signature")
	ErrRateLimited      = newError(http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, please try again later")
	ErrInternal         = newError(http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
)

// InvalidTransition builds an ErrInvalidTransition copy naming the current status.
func InvalidTransition(action string, current interface{}) *DomainError {
	return ErrInvalidTransition.
		WithMessage("cannot %s: current status is %v", action, current).
		WithDetails(map[string]interface{}{"action": action, "current_status": current})
}
