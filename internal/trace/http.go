package trace

import "net/http"

// Header names for HTTP propagation (W3C-style).
const (
	TraceIDHeader      = "X-Trace-Id"
	ParentSpanIDHeader = "X-Parent-Span-Id"
)

// Middleware assigns a trace context to each incoming request. An inbound
// trace ID is continued; otherwise a fresh trace is started.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc := Context{
			TraceID:      r.Header.Get(TraceIDHeader),
			SpanID:       generateSpanID(),
			ParentSpanID: r.Header.Get(ParentSpanIDHeader),
		}
		if tc.TraceID == "" {
			tc.TraceID = generateTraceID()
		}

		w.Header().Set(TraceIDHeader, tc.TraceID)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), tc)))
	})
}
