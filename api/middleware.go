package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request with the chi request id.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info("request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("ip", r.RemoteAddr))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// ContextLogger returns baseLogger annotated with the request id in ctx, if any.
func ContextLogger(ctx context.Context, baseLogger *zap.Logger) *zap.Logger {
	if id := middleware.GetReqID(ctx); id != "" {
		return baseLogger.With(zap.String("request_id", id))
	}
	return baseLogger
}
