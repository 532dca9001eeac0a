package rpcerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodesAreFixedPerKind(t *testing.T) {
	cases := []struct {
		err  *Error
		code int
	}{
		{NewParseError("bad json"), -32700},
		{NewInvalidRequestError("missing method"), -32600},
		{NewMethodNotFoundError("no_such_method"), -32601},
		{NewInvalidParamsError("bad params"), -32602},
		{NewInternalError("boom"), -32603},
		{NewGenericError("domain"), -32000},
		{NewBitcoinRPCError("node down"), -32001},
		{NewValidationError("bad address"), -32002},
		{NewNetworkError("api unreachable"), -32003},
		{NewRateLimitError(""), -32004},
	}

	for _, tc := range cases {
		require.Equal(t, tc.code, tc.err.Code(), "kind %s", tc.err.Kind)
	}
}

func TestFromPassesTypedErrorsThrough(t *testing.T) {
	orig := NewValidationError("invalid height").WithField("height")

	got := From(fmt.Errorf("handler failed: %w", orig))

	require.Same(t, orig, got)
	require.Equal(t, "height", got.Data["field"])
}

func TestFromWrapsUnknownErrorsAsInternal(t *testing.T) {
	cause := errors.New("nil pointer dereference")

	got := From(cause)

	require.Equal(t, KindInternal, got.Kind)
	require.Equal(t, CodeInternal, got.Code())
	require.ErrorIs(t, got, cause)
	// The cause must not leak into the caller-visible message.
	require.NotContains(t, got.Message, "nil pointer")
}

func TestRateLimitErrorDefaultMessage(t *testing.T) {
	require.Equal(t, "rate limit exceeded", NewRateLimitError("").Message)
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewRateLimitError(""))

	require.True(t, IsKind(err, KindRateLimit))
	require.False(t, IsKind(err, KindBitcoinRPC))
	require.False(t, IsKind(errors.New("plain"), KindRateLimit))
}
