package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/btclens/btclens/internal/observability"
)

// Recovery middleware recovers from panics in non-RPC handlers. The
// JSON-RPC dispatcher has its own recovery that maps panics to
// InternalError envelopes; this catches everything else.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if observability.ServerLogger != nil {
					observability.ServerLogger.Error("handler panic",
						zap.Any("panic", err),
						zap.String("path", r.URL.Path),
						zap.String("requestID", GetRequestID(r.Context())),
						zap.ByteString("stack", debug.Stack()))
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{
						"code":       "INTERNAL_ERROR",
						"message":    fmt.Sprintf("panic: %v", err),
						"request_id": GetRequestID(r.Context()),
					},
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
