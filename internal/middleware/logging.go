// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// 監査ログの結果。
const (
	ResultSuccess = "SUCCESS"
	ResultFailed  = "FAILED"
)

// WriteAuditLog は監査ログを出力する。平文やトークンは渡さないこと。
func WriteAuditLog(ctx context.Context, operation string, subject string, result string) {
	slog.InfoContext(ctx, "envelope operation completed",
		"operation", operation,
		"subject", subject,
		"result", result,
		"request_id", chimiddleware.GetReqID(ctx),
		"timestamp", time.Now().UTC().Format(time.RFC3339),
	)
}

// HTTPRecorder はHTTPリクエストのメトリクス記録先。
type HTTPRecorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// RequestLogger はリクエストごとに構造化ログを出力し、recorderがあれば記録する。
func RequestLogger(recorder HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			if route == "" {
				route = "unmatched"
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)

			if recorder != nil {
				recorder.RecordHTTPRequest(r.Method, route, status, duration)
			}
			slog.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", duration.Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}
