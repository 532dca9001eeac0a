// Package jsonrpc implements the inbound JSON-RPC 2.0 surface: envelope
// parsing, method routing against a static registry, and the uniform
// error-response contract.
package jsonrpc

import (
	"encoding/json"

	"github.com/btclens/btclens/internal/rpcerr"
)

// Version is the protocol tag every envelope must carry.
const Version = "2.0"

// nullID is the identifier used when none could be recovered.
var nullID = json.RawMessage("null")

// Request is the inbound envelope. The identifier is kept raw and echoed
// verbatim; it is never inspected or validated for type. Params stays
// raw too, so a non-object shape is a params error rather than a parse
// error.
type Request struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

// ErrorObject is the wire form of a taxonomy error.
type ErrorObject struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Response is the outbound envelope. Exactly one of Result and Error is
// set; the zero-value invariant is enforced by the constructors.
type Response struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// NewResult wraps a handler result, echoing the request identifier.
func NewResult(id json.RawMessage, result any) Response {
	return Response{Jsonrpc: Version, Result: result, ID: echoID(id)}
}

// NewError wraps a taxonomy error, echoing the request identifier.
func NewError(id json.RawMessage, err *rpcerr.Error) Response {
	if err == nil {
		err = rpcerr.NewInternalError("internal error")
	}
	return Response{
		Jsonrpc: Version,
		Error: &ErrorObject{
			Code:    err.Code(),
			Message: err.Message,
			Data:    err.Data,
		},
		ID: echoID(id),
	}
}

// echoID normalizes an absent identifier to an explicit null so the
// serialized envelope always carries the id member.
func echoID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return nullID
	}
	return id
}
