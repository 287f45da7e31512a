package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q, want OK", rec.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		wantCode int
		wantBody string
	}{
		{name: "healthy", result: Healthy(""), wantCode: http.StatusOK, wantBody: "OK"},
		{name: "degraded", result: Degraded(""), wantCode: http.StatusOK, wantBody: "DEGRADED"},
		{name: "unhealthy", result: Unhealthy("", nil), wantCode: http.StatusServiceUnavailable, wantBody: "UNHEALTHY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			agg.Register("c", staticChecker("c", tt.result))

			rec := httptest.NewRecorder()
			ReadinessHandler(agg)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestDetailedHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Register("evaluator", staticChecker("evaluator", Healthy("self-test passed").WithDetails(map[string]any{"n": 10})))

	rec := httptest.NewRecorder()
	DetailedHandler(agg)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Status != StatusHealthy {
		t.Errorf("status = %v, want healthy", resp.Status)
	}
	check, ok := resp.Checks["evaluator"]
	if !ok {
		t.Fatal("missing evaluator check")
	}
	if check.Message != "self-test passed" {
		t.Errorf("message = %q", check.Message)
	}
}

func TestDetailedHandler_Unhealthy(t *testing.T) {
	agg := NewAggregator()
	agg.Register("broken", staticChecker("broken", Unhealthy("down", ErrCheckFailed)))

	rec := httptest.NewRecorder()
	DetailedHandler(agg)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	var resp HealthResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Checks["broken"].Error != ErrCheckFailed.Error() {
		t.Errorf("error = %q, want %q", resp.Checks["broken"].Error, ErrCheckFailed.Error())
	}
}

func TestDetailedHandler_WireFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	DetailedHandler(NewAggregator())(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var raw map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatal(err)
	}
	if raw["status"] != "healthy" {
		t.Errorf(`raw status = %v, want "healthy"`, raw["status"])
	}
}

func TestStatus_UnmarshalText(t *testing.T) {
	var s Status
	if err := s.UnmarshalText([]byte("degraded")); err != nil || s != StatusDegraded {
		t.Errorf("UnmarshalText(degraded) = %v, %v", s, err)
	}
	if err := s.UnmarshalText([]byte("sick")); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("UnmarshalText(sick) error = %v, want ErrUnknownStatus", err)
	}
}

func TestRegisterHandlers(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux, NewAggregator())

	for _, path := range []string{"/healthz", "/readyz", "/health"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /health status = %d, want 405", rec.Code)
	}
}
