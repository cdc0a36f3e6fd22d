// Package errors defines the raffle engine failure taxonomy.
//
// Every guard violation surfaces as an *Error carrying a Code. Two errors are
// equal under errors.Is when their codes match, so callers compare against the
// sentinel values below regardless of the attached message or cause.
package errors

import (
	stderrors "errors"
)

type Code string

const (
	CodeValidation               Code = "ValidationError"
	CodeNotAuthorized            Code = "NotAuthorized"
	CodeNotActive                Code = "NotActive"
	CodeAlreadyClaimed           Code = "AlreadyClaimed"
	CodeNotSoldOut               Code = "NotSoldOut"
	CodeSalesPeriodOver          Code = "SalesPeriodOver"
	CodeSoldOut                  Code = "SoldOut"
	CodeMissingFunds             Code = "MissingFunds"
	CodeInsufficientTicketSupply Code = "InsufficientTicketSupply"
	CodeNotFound                 Code = "NotFound"
	CodeInternal                 Code = "Internal"
)

var (
	ErrValidation               = New(CodeValidation, "validation error")
	ErrNotAuthorized            = New(CodeNotAuthorized, "not authorized")
	ErrNotActive                = New(CodeNotActive, "raffle is not active")
	ErrAlreadyClaimed           = New(CodeAlreadyClaimed, "already claimed")
	ErrNotSoldOut               = New(CodeNotSoldOut, "ticket sales are still open")
	ErrSalesPeriodOver          = New(CodeSalesPeriodOver, "ticket sales period is over")
	ErrSoldOut                  = New(CodeSoldOut, "not enough tickets left")
	ErrMissingFunds             = New(CodeMissingFunds, "missing funds")
	ErrInsufficientTicketSupply = New(CodeInsufficientTicketSupply, "ticket sales target not reached")
	ErrNotFound                 = New(CodeNotFound, "not found")
)

type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Cause.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Validation(reason string) *Error {
	return New(CodeValidation, reason)
}

// CodeOf returns the code of the first *Error in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
