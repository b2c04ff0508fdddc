// internal/server/middleware.go
package server

import (
	"net/http"
	"strconv"
	"time"

	"prompt-builder/internal/common/logger"
	"prompt-builder/internal/common/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs one line per request and records request metrics
// labelled by route pattern.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				duration := time.Since(start)
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				route := routePattern(r)

				metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
				metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())

				fields := map[string]interface{}{
					"method":     r.Method,
					"path":       r.URL.Path,
					"route":      route,
					"status":     status,
					"bytes":      ww.BytesWritten(),
					"durationMs": duration.Milliseconds(),
					"requestId":  middleware.GetReqID(r.Context()),
					"remoteAddr": r.RemoteAddr,
				}
				switch {
				case status >= 500:
					log.Error("request completed", fields)
				case r.URL.Path == "/health" || r.URL.Path == "/metrics":
					log.Debug("request completed", fields)
				default:
					log.Info("request completed", fields)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// routePattern keeps metric cardinality bounded to registered routes.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
