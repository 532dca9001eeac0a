package jsonrpc

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/btclens/btclens/internal/rpcerr"
)

// Params is the named-parameter container passed to handlers. Absent
// entries fall back to handler-supplied defaults.
type Params map[string]any

// String returns the named parameter; it must be present and non-empty.
func (p Params) String(name string) (string, error) {
	raw, ok := p[name]
	if !ok || raw == nil {
		return "", rpcerr.NewValidationError(fmt.Sprintf("missing %q parameter", name)).WithField(name)
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", rpcerr.NewValidationError(fmt.Sprintf("parameter %q must be a non-empty string", name)).WithField(name)
	}
	return s, nil
}

// StringOr returns the named string parameter or def when absent.
func (p Params) StringOr(name, def string) (string, error) {
	if _, ok := p[name]; !ok {
		return def, nil
	}
	return p.String(name)
}

// Int returns the named integer parameter; it must be present.
func (p Params) Int(name string) (int64, error) {
	raw, ok := p[name]
	if !ok || raw == nil {
		return 0, rpcerr.NewValidationError(fmt.Sprintf("missing %q parameter", name)).WithField(name)
	}
	return coerceInt(name, raw)
}

// IntOr returns the named integer parameter or def when absent.
func (p Params) IntOr(name string, def int64) (int64, error) {
	raw, ok := p[name]
	if !ok || raw == nil {
		return def, nil
	}
	return coerceInt(name, raw)
}

// BoolOr returns the named boolean parameter or def when absent.
func (p Params) BoolOr(name string, def bool) (bool, error) {
	raw, ok := p[name]
	if !ok || raw == nil {
		return def, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, rpcerr.NewValidationError(fmt.Sprintf("parameter %q must be a boolean", name)).WithField(name)
	}
	return b, nil
}

// ObjectOr returns the named object parameter as a nested Params, or an
// empty set when absent.
func (p Params) ObjectOr(name string) (Params, error) {
	raw, ok := p[name]
	if !ok || raw == nil {
		return Params{}, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, rpcerr.NewValidationError(fmt.Sprintf("parameter %q must be an object", name)).WithField(name)
	}
	return Params(m), nil
}

// coerceInt accepts the numeric shapes encoding/json produces. Fractional
// values are rejected rather than truncated.
func coerceInt(name string, raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, rpcerr.NewValidationError(fmt.Sprintf("parameter %q must be an integer", name)).WithField(name)
		}
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, rpcerr.NewValidationError(fmt.Sprintf("parameter %q must be an integer", name)).WithField(name)
		}
		return n, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, rpcerr.NewValidationError(fmt.Sprintf("parameter %q must be an integer", name)).WithField(name)
	}
}
