// Package rpcerr defines the closed error taxonomy shared by the RPC
// client and the request dispatcher. Every failure that reaches a caller
// is one of these kinds, each pinned to a fixed JSON-RPC error code.
package rpcerr

import (
	"errors"
	"fmt"
)

// Kind identifies a member of the taxonomy.
type Kind string

const (
	KindParse          Kind = "parse_error"
	KindInvalidRequest Kind = "invalid_request"
	KindMethodNotFound Kind = "method_not_found"
	KindInvalidParams  Kind = "invalid_params"
	KindInternal       Kind = "internal_error"
	KindGeneric        Kind = "bitcoin_mcp_error"
	KindBitcoinRPC     Kind = "bitcoin_rpc_error"
	KindValidation     Kind = "validation_error"
	KindNetwork        Kind = "network_error"
	KindRateLimit      Kind = "rate_limit_error"
)

// JSON-RPC codes, fixed per kind.
const (
	CodeParse          = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	CodeGeneric        = -32000
	CodeBitcoinRPC     = -32001
	CodeValidation     = -32002
	CodeNetwork        = -32003
	CodeRateLimit      = -32004
)

var kindCodes = map[Kind]int{
	KindParse:          CodeParse,
	KindInvalidRequest: CodeInvalidRequest,
	KindMethodNotFound: CodeMethodNotFound,
	KindInvalidParams:  CodeInvalidParams,
	KindInternal:       CodeInternal,
	KindGeneric:        CodeGeneric,
	KindBitcoinRPC:     CodeBitcoinRPC,
	KindValidation:     CodeValidation,
	KindNetwork:        CodeNetwork,
	KindRateLimit:      CodeRateLimit,
}

// Error is a typed gateway error. Code is determined solely by Kind;
// Data carries optional structured context (e.g. the offending field).
type Error struct {
	Kind    Kind
	Message string
	Data    map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Code returns the JSON-RPC error code for the error's kind.
func (e *Error) Code() int {
	if e == nil {
		return CodeInternal
	}
	if code, ok := kindCodes[e.Kind]; ok {
		return code
	}
	return CodeInternal
}

// Unwrap exposes the original cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// WithData attaches structured context and returns the error.
func (e *Error) WithData(data map[string]any) *Error {
	if e == nil || len(data) == 0 {
		return e
	}
	if e.Data == nil {
		e.Data = make(map[string]any, len(data))
	}
	for k, v := range data {
		e.Data[k] = v
	}
	return e
}

// WithField records the offending parameter name, matching the shape the
// dispatcher serializes into the error's data payload.
func (e *Error) WithField(field string) *Error {
	if field == "" {
		return e
	}
	return e.WithData(map[string]any{"field": field})
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func NewParseError(message string) *Error          { return newError(KindParse, message) }
func NewInvalidRequestError(message string) *Error { return newError(KindInvalidRequest, message) }
func NewMethodNotFoundError(method string) *Error {
	return newError(KindMethodNotFound, fmt.Sprintf("method %q not found", method))
}
func NewInvalidParamsError(message string) *Error { return newError(KindInvalidParams, message) }
func NewInternalError(message string) *Error      { return newError(KindInternal, message) }
func NewGenericError(message string) *Error       { return newError(KindGeneric, message) }
func NewBitcoinRPCError(message string) *Error    { return newError(KindBitcoinRPC, message) }
func NewValidationError(message string) *Error    { return newError(KindValidation, message) }
func NewNetworkError(message string) *Error       { return newError(KindNetwork, message) }
func NewRateLimitError(message string) *Error {
	if message == "" {
		message = "rate limit exceeded"
	}
	return newError(KindRateLimit, message)
}

// Wrap builds a taxonomy error that retains err as its cause.
func Wrap(kind Kind, err error, message string) *Error {
	e := newError(kind, message)
	e.cause = err
	return e
}

// From normalizes any error into a taxonomy member. Typed errors pass
// through untouched; anything else becomes an InternalError whose cause
// is preserved for logging but never serialized to callers.
func From(err error) *Error {
	if err == nil {
		return NewInternalError("unexpected nil error")
	}
	var typed *Error
	if errors.As(err, &typed) && typed != nil {
		return typed
	}
	return Wrap(KindInternal, err, "internal error")
}

// IsKind reports whether err is a taxonomy error of the given kind.
func IsKind(err error, kind Kind) bool {
	var typed *Error
	if errors.As(err, &typed) && typed != nil {
		return typed.Kind == kind
	}
	return false
}
