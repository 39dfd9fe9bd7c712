package log

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPLogEntry describes one served request.
type HTTPLogEntry struct {
	Method     string
	Path       string
	Status     int
	Duration   time.Duration
	Size       int
	RemoteAddr string
	UserAgent  string
	Error      error
}

// LogHTTPRequest writes e as a structured entry. Requests that failed with a
// server error are logged at error level, everything else at info.
func LogHTTPRequest(e HTTPLogEntry) {
	fields := []zap.Field{
		zap.String("method", e.Method),
		zap.String("path", e.Path),
		zap.Int("status", e.Status),
		zap.Int64("duration_ms", e.Duration.Milliseconds()),
		zap.Int("size", e.Size),
		zap.String("remote_addr", e.RemoteAddr),
		zap.String("user_agent", e.UserAgent),
	}

	l := GetZapLogger().WithOptions(zap.AddCallerSkip(-1))
	if e.Error != nil || e.Status >= http.StatusInternalServerError {
		if e.Error != nil {
			fields = append(fields, zap.Error(e.Error))
		}
		l.Error("http request", fields...)
		return
	}
	l.Info("http request", fields...)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// HTTPMiddleware logs every request passing through next.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, req)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		LogHTTPRequest(HTTPLogEntry{
			Method:     req.Method,
			Path:       req.URL.Path,
			Status:     rec.status,
			Duration:   time.Since(start),
			Size:       rec.size,
			RemoteAddr: req.RemoteAddr,
			UserAgent:  req.UserAgent(),
		})
	})
}
