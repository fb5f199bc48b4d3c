package workflow

import (
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/sav_backend/models"
)

type ErrorCode string

const (
	ErrCodeInvalidTransition      ErrorCode = "InvalidTransition"
	ErrCodeForbidden              ErrorCode = "Forbidden"
	ErrCodeIncompleteReport       ErrorCode = "IncompleteReport"
	ErrCodeTicketLocked           ErrorCode = "TicketLocked"
	ErrCodePaymentPending         ErrorCode = "PaymentPending"
	ErrCodeUnknownPart            ErrorCode = "UnknownPart"
	ErrCodeDuplicateConsumption   ErrorCode = "DuplicateConsumption"
	ErrCodeInsufficientStock      ErrorCode = "InsufficientStock"
	ErrCodeInvalidFinancialInput  ErrorCode = "InvalidFinancialInput"
	ErrCodeConcurrentModification ErrorCode = "ConcurrentModification"
)

// WorkflowError is a typed failure carrying enough context (ticket, part,
// required role) for the caller to render an actionable message. Business-rule
// codes must not be retried; ConcurrentModification is safe to retry against
// the refreshed ticket because ledger consumption is idempotency-keyed.
type WorkflowError struct {
	Code         ErrorCode
	TicketId     int
	PartId       int
	RequiredRole string
	Message      string
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// code lookup without exposing struct internals everywhere
func ErrorCodeOf(err error) (ErrorCode, bool) {
	var wErr *WorkflowError
	if errors.As(err, &wErr) {
		return wErr.Code, true
	}
	return "", false
}

func IsErrorCode(err error, code ErrorCode) bool {
	c, ok := ErrorCodeOf(err)
	return ok && c == code
}

// Retryable reports whether the failure is infrastructure-shaped: the caller
// may retry because the idempotency key makes a repeat application a no-op.
func Retryable(err error) bool {
	return IsErrorCode(err, ErrCodeConcurrentModification)
}

func errInvalidTransition(ticketId int, from models.TicketStatus, to models.TicketStatus) error {
	return &WorkflowError{
		Code:     ErrCodeInvalidTransition,
		TicketId: ticketId,
		Message:  fmt.Sprintf("ticket %d cannot move from %s to %s", ticketId, from, to),
	}
}

func errForbidden(ticketId int, role models.UserRole, required string) error {
	return &WorkflowError{
		Code:         ErrCodeForbidden,
		TicketId:     ticketId,
		RequiredRole: required,
		Message:      fmt.Sprintf("role %s may not perform this action on ticket %d (requires %s)", role, ticketId, required),
	}
}

func errIncompleteReport(ticketId int, reason string) error {
	return &WorkflowError{
		Code:     ErrCodeIncompleteReport,
		TicketId: ticketId,
		Message:  fmt.Sprintf("report for ticket %d is incomplete: %s", ticketId, reason),
	}
}

func errTicketLocked(ticketId int) error {
	return &WorkflowError{
		Code:     ErrCodeTicketLocked,
		TicketId: ticketId,
		Message:  fmt.Sprintf("ticket %d is closed and can only be edited by an admin", ticketId),
	}
}

func errPaymentPending(ticketId int) error {
	return &WorkflowError{
		Code:     ErrCodePaymentPending,
		TicketId: ticketId,
		Message:  fmt.Sprintf("ticket %d cannot be closed until payment is settled", ticketId),
	}
}

func errUnknownPart(ticketId int, partId int) error {
	return &WorkflowError{
		Code:     ErrCodeUnknownPart,
		TicketId: ticketId,
		PartId:   partId,
		Message:  fmt.Sprintf("part %d does not exist", partId),
	}
}

func errDuplicateConsumption(ticketId int, key string) error {
	return &WorkflowError{
		Code:     ErrCodeDuplicateConsumption,
		TicketId: ticketId,
		Message:  fmt.Sprintf("stock for ticket %d was already consumed under key %s", ticketId, key),
	}
}

func errInsufficientStock(ticketId int, partId int, requested int, available int) error {
	return &WorkflowError{
		Code:     ErrCodeInsufficientStock,
		TicketId: ticketId,
		PartId:   partId,
		Message:  fmt.Sprintf("part %d has %d in stock, %d requested", partId, available, requested),
	}
}

func errInvalidFinancialInput(field string) error {
	return &WorkflowError{
		Code:    ErrCodeInvalidFinancialInput,
		Message: fmt.Sprintf("financial input %s must be a non-negative finite number", field),
	}
}

func errConcurrentModification(ticketId int) error {
	return &WorkflowError{
		Code:     ErrCodeConcurrentModification,
		TicketId: ticketId,
		Message:  fmt.Sprintf("ticket %d was modified concurrently; reload and retry", ticketId),
	}
}
