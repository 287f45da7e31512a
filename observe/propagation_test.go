package observe

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestExtractHTTP(t *testing.T) {
	var got trace.SpanContext
	h := ExtractHTTP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = trace.SpanContextFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/fib/10", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("TraceID = %s", got.TraceID())
	}
	if !got.IsRemote() || !got.IsSampled() {
		t.Errorf("span context = %+v, want remote and sampled", got)
	}
}

func TestExtractHTTP_NoHeader(t *testing.T) {
	var got trace.SpanContext
	h := ExtractHTTP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = trace.SpanContextFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got.IsValid() {
		t.Error("no traceparent should leave the context without a span")
	}
}
