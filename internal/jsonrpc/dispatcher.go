package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/btclens/btclens/internal/rpcerr"
)

// Handler executes one method. It returns a result value or a taxonomy
// error; anything else is normalized to InternalError by the dispatcher.
type Handler func(ctx context.Context, params Params) (any, error)

// Registry is the static method table. It is built once at startup and
// treated as immutable afterwards.
type Registry map[string]Handler

// Dispatcher drives a request through Parse, Validate, Route, Execute
// and Respond. Every path produces exactly one response envelope.
type Dispatcher struct {
	registry Registry
	logger   *zap.Logger
}

// NewDispatcher builds a dispatcher over a fixed registry.
func NewDispatcher(registry Registry, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Methods returns the sorted registry keys for the status surface.
func (d *Dispatcher) Methods() []string {
	methods := make([]string, 0, len(d.registry))
	for name := range d.registry {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}

// Handle processes one raw request body and always returns a response
// envelope. Identifiers are echoed verbatim, except for parse and
// envelope-validation failures where none could be recovered.
func (d *Dispatcher) Handle(ctx context.Context, rawBody []byte) Response {
	var req Request
	if err := json.Unmarshal(rawBody, &req); err != nil {
		// Re-check whether an id survives a looser decode so invalid
		// envelopes with readable ids can still echo them.
		return NewError(recoverID(rawBody), rpcerr.NewParseError("invalid JSON payload"))
	}

	if req.Jsonrpc != Version {
		return NewError(req.ID, rpcerr.NewInvalidRequestError(
			fmt.Sprintf("jsonrpc version must be %q", Version)))
	}
	if strings.TrimSpace(req.Method) == "" {
		return NewError(req.ID, rpcerr.NewInvalidRequestError("method is required"))
	}

	handler, ok := d.registry[req.Method]
	if !ok {
		return NewError(req.ID, rpcerr.NewMethodNotFoundError(req.Method))
	}

	params, paramsErr := decodeParams(req.Params)
	if paramsErr != nil {
		return NewError(req.ID, paramsErr)
	}

	result, err := d.invoke(ctx, req.Method, params, handler)
	if err != nil {
		typed := rpcerr.From(err)
		if typed.Kind == rpcerr.KindInternal {
			// Log the cause; never leak it to the caller.
			d.logger.Error("handler failed",
				zap.String("method", req.Method),
				zap.Error(err))
		} else {
			d.logger.Debug("handler returned typed error",
				zap.String("method", req.Method),
				zap.String("kind", string(typed.Kind)),
				zap.Int("code", typed.Code()))
		}
		return NewError(req.ID, typed)
	}

	return NewResult(req.ID, result)
}

// invoke runs the handler, converting panics into errors so the caller
// always receives an envelope.
func (d *Dispatcher) invoke(ctx context.Context, method string, params Params, handler Handler) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s handler: %v", method, r)
		}
	}()

	return handler(ctx, params)
}

// decodeParams accepts an object, null, or absent params; the handlers
// take named parameters only, so any other shape is rejected.
func decodeParams(raw json.RawMessage) (Params, *rpcerr.Error) {
	if len(raw) == 0 || string(raw) == "null" {
		return Params{}, nil
	}
	var params Params
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, rpcerr.NewInvalidParamsError("params must be an object of named arguments")
	}
	if params == nil {
		params = Params{}
	}
	return params, nil
}

// recoverID attempts to pull an identifier out of a body that failed
// strict envelope decoding. Returns nil (serialized as null) when the
// body is not even a JSON object.
func recoverID(rawBody []byte) json.RawMessage {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(rawBody, &probe); err != nil {
		return nil
	}
	return probe.ID
}
