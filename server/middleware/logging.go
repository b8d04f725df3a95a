package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/pulse/logger"
)

var probePaths = map[string]bool{"/health": true, "/alive": true, "/ready": true, "/healthz": true}

// RequestLogger logs each request when it completes. Event streams are
// logged once at the end with their lifetime and byte count. Probe paths
// are skipped.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if probePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.status,
				"proto", r.Proto,
				"bytes", rw.bytes,
				logger.FieldDuration, time.Since(start).Milliseconds(),
			)
			if id := r.Header.Get("X-Request-Id"); id != "" {
				fields["request_id"] = id
			}
			if strings.HasPrefix(rw.Header().Get("Content-Type"), "text/event-stream") {
				fields["stream"] = true
			}

			switch {
			case rw.status >= 500:
				log.Error("request completed", fields)
			case rw.status >= 400:
				log.Warn("request completed", fields)
			default:
				log.Debug("request completed", fields)
			}
		})
	}
}

// recordingWriter captures the status and body size. Flush and Unwrap pass
// through so event streams keep flushing and http.ResponseController can
// lift the write deadline.
type recordingWriter struct {
	http.ResponseWriter
	status  int
	bytes   int64
	written bool
}

func (rw *recordingWriter) WriteHeader(code int) {
	if !rw.written {
		rw.status = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	rw.written = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

func (rw *recordingWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *recordingWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
