package providers

import (
	"net/http"
	"time"
)

// recordingWriter captures the status the handler settles on; Unwrap keeps
// http.ResponseController working through the wrapper.
type recordingWriter struct {
	http.ResponseWriter
	status int
}

func (w *recordingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *recordingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// MetricsMiddleware counts and times every request to the habit API. Ids
// travel in bodies and query strings, never in paths, so the raw path is
// already a bounded label set.
func MetricsMiddleware(metrics MetricsProviderInterface, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &recordingWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		metrics.IncRequestsTotal(r.URL.Path, rw.status)
		metrics.ObserveRequestDuration(r.URL.Path, time.Since(started))
	})
}
