package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEnsureContext(t *testing.T) {
	ctx, tc := EnsureContext(context.Background())
	if tc.TraceID == "" || tc.SpanID == "" {
		t.Fatal("expected fresh trace IDs")
	}

	ctx2, tc2 := EnsureContext(ctx)
	if ctx2 != ctx {
		t.Error("existing context should be returned unchanged")
	}
	if tc2.TraceID != tc.TraceID {
		t.Error("trace ID should be stable")
	}
}

func TestStartSpanChild(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "outer")
	_, child := StartSpan(ctx, "inner")

	if child.Ctx.TraceID != parent.Ctx.TraceID {
		t.Error("child should share trace ID")
	}
	if child.Ctx.ParentSpanID != parent.Ctx.SpanID {
		t.Error("child parent span should be outer span")
	}
	child.End()
	if child.Duration() < 0 {
		t.Error("duration should be non-negative")
	}
}

func TestMiddlewareAssignsTrace(t *testing.T) {
	var got Context
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if got.TraceID == "" {
		t.Fatal("expected trace ID on request context")
	}
	if rec.Header().Get(TraceIDHeader) != got.TraceID {
		t.Error("trace ID should be echoed in response header")
	}
}

func TestMiddlewareContinuesTrace(t *testing.T) {
	var got Context
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(TraceIDHeader, "abc123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.TraceID != "abc123" {
		t.Errorf("expected inbound trace ID to continue, got %q", got.TraceID)
	}
}
