package middleware

import (
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
)

// NewRequestLogger logs every request on arrival and again once the handler
// returns. For a websocket upgrade that is when the connection ends.
func NewRequestLogger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var ip, reqID string
			if reqMeta, ok := ReqMetadataFrom(r.Context()); ok {
				ip, reqID = reqMeta.IP, reqMeta.RequestID
			}
			logger.Debug("Incoming HTTP request",
				slog.String("method", r.Method),
				slog.String("uri", r.RequestURI),
				slog.String("ip", ip),
				slog.String("requestID", reqID),
			)

			m := httpsnoop.CaptureMetrics(next, w, r)
			logger.Info("HTTP request completed",
				slog.String("method", r.Method),
				slog.String("uri", r.URL.Path),
				slog.String("ip", ip),
				slog.String("requestID", reqID),
				slog.Int("status", m.Code),
				slog.Int64("bytes", m.Written),
				slog.Duration("duration", m.Duration),
			)
		})
	}
}
