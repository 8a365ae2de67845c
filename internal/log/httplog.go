package log

import (
	"io"
	"time"

	"github.com/gorilla/handlers"
)

// LogHTTPRequest logs one completed HTTP request
func LogHTTPRequest(method, path string, status int, duration time.Duration, size int, remoteAddr, userAgent string) {
	fields := []interface{}{
		"method", method,
		"path", path,
		"status", status,
		"duration_ms", duration.Milliseconds(),
		"size", size,
		"remote_addr", remoteAddr,
		"user_agent", userAgent,
	}

	switch {
	case status >= 500:
		Errorw("http request", fields...)
	case status >= 400:
		Warnw("http request", fields...)
	default:
		Infow("http request", fields...)
	}
}

// HTTPLogFormatter is a gorilla/handlers formatter that sends access logs to zap
// instead of the handler's writer.
func HTTPLogFormatter(_ io.Writer, p handlers.LogFormatterParams) {
	LogHTTPRequest(p.Request.Method, p.URL.Path, p.StatusCode, time.Since(p.TimeStamp), p.Size,
		p.Request.RemoteAddr, p.Request.UserAgent())
}
