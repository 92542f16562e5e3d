package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MahdiBaghbani/ocmgate/internal/api"
	"github.com/MahdiBaghbani/ocmgate/internal/appctx"
	"github.com/MahdiBaghbani/ocmgate/internal/cache"
)

// requestLoggerMiddleware attaches a request-scoped logger to the context.
// Must run after middleware.RequestID so GetReqID yields a value. Handlers
// and the access log inherit request_id, method, path, client_ip from it.
func requestLoggerMiddleware(base *slog.Logger, proxies *TrustedProxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := "unknown"
			if proxies != nil {
				clientIP = proxies.ClientIPString(r)
			}

			reqLogger := base.With(
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", clientIP,
			)

			ctx := appctx.WithLogger(r.Context(), reqLogger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// accessLogMiddleware emits one line per request with response fields.
// The base request fields come from the context logger; only status, bytes
// and duration are added here to avoid duplicate keys.
func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			appctx.GetLogger(r.Context()).Info("request",
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// rateLimitMiddleware caps federation traffic per client IP using a cache
// counter, so the limit is shared across instances when the cache is valkey.
// A zero limit disables the check.
func rateLimitMiddleware(counter cache.Counter, limit int, proxies *TrustedProxies, log *slog.Logger) func(http.Handler) http.Handler {
	window := cache.TTLRateLimit
	retryAfter := fmt.Sprintf("%d", int(window/time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if counter == nil || limit <= 0 || !strings.HasPrefix(r.URL.Path, "/ocm") {
				next.ServeHTTP(w, r)
				return
			}

			clientIP := "unknown"
			if proxies != nil {
				clientIP = proxies.ClientIPString(r)
			}

			n, err := counter.Increment(r.Context(), "ratelimit:ocm:"+clientIP, 1, window)
			if err != nil {
				// A broken cache must not take federation down with it.
				log.Warn("rate limit counter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if n > int64(limit) {
				log.Warn("rate limit exceeded", "client_ip", clientIP, "count", n)
				w.Header().Set("Retry-After", retryAfter)
				api.WriteTooManyRequests(w, "too many requests, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
