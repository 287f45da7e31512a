package observe

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonwraymond/fibops/observe/exporters"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "minimal valid",
			cfg:  Config{ServiceName: "fibops"},
		},
		{
			name:    "missing service name",
			cfg:     Config{},
			wantErr: ErrMissingServiceName,
		},
		{
			name: "unknown tracing exporter",
			cfg: Config{
				ServiceName: "fibops",
				Tracing:     TracingConfig{Enabled: true, Exporter: "zipkin", SamplePct: 1},
			},
			wantErr: ErrInvalidTracingExporter,
		},
		{
			name: "sample pct out of range",
			cfg: Config{
				ServiceName: "fibops",
				Tracing:     TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 1.5},
			},
			wantErr: ErrInvalidSamplePct,
		},
		{
			name: "unknown metrics exporter",
			cfg: Config{
				ServiceName: "fibops",
				Metrics:     MetricsConfig{Enabled: true, Exporter: "statsd"},
			},
			wantErr: ErrInvalidMetricsExporter,
		},
		{
			name: "unknown log level",
			cfg: Config{
				ServiceName: "fibops",
				Logging:     LoggingConfig{Enabled: true, Level: "trace"},
			},
			wantErr: ErrInvalidLogLevel,
		},
		{
			name: "disabled subsystems are not validated",
			cfg: Config{
				ServiceName: "fibops",
				Tracing:     TracingConfig{Exporter: "zipkin"},
				Metrics:     MetricsConfig{Exporter: "statsd"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewObserver_Noops(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "observe-test"})
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}

	if obs.Tracer() == nil {
		t.Fatal("expected non-nil tracer")
	}
	if obs.Meter() == nil {
		t.Fatal("expected non-nil meter")
	}
	if obs.Logger() == nil {
		t.Fatal("expected non-nil logger")
	}
	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewObserver_InvalidConfig(t *testing.T) {
	_, err := NewObserver(context.Background(), Config{})
	if !errors.Is(err, ErrMissingServiceName) {
		t.Errorf("NewObserver() error = %v, want ErrMissingServiceName", err)
	}
}

func TestNewObserver_Enabled(t *testing.T) {
	var logs bytes.Buffer

	cfg := Config{
		ServiceName: "observe-test",
		Version:     "1.0.0",
		Tracing:     TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 1},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "prometheus"},
		Logging:     LoggingConfig{Enabled: true, Level: "info", Writer: &logs},
		ExporterOptions: []exporters.Option{
			exporters.WithWriter(io.Discard),
			exporters.WithRegisterer(prometheus.NewRegistry()),
		},
	}

	obs, err := NewObserver(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}
	defer obs.Shutdown(context.Background())

	ctx, span := obs.Tracer().Start(context.Background(), "test")
	obs.Logger().Info(ctx, "hello")
	span.End()

	if !bytes.Contains(logs.Bytes(), []byte(`"service":"observe-test"`)) {
		t.Errorf("log entry missing service field: %s", logs.String())
	}
	if !bytes.Contains(logs.Bytes(), []byte(`"trace_id"`)) {
		t.Errorf("log entry missing trace correlation: %s", logs.String())
	}
}

func TestObserver_ShutdownIdempotent(t *testing.T) {
	cfg := Config{
		ServiceName:     "observe-test",
		Tracing:         TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1},
		Metrics:         MetricsConfig{Enabled: true, Exporter: "none"},
		ExporterOptions: []exporters.Option{exporters.WithWriter(io.Discard)},
	}

	obs, err := NewObserver(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Fatalf("first Shutdown() error = %v", err)
	}
	// Second shutdown must not panic
	_ = obs.Shutdown(context.Background())
}

func TestSampler(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{pct: 1, want: "ParentBased{root:AlwaysOnSampler"},
		{pct: 0, want: "ParentBased{root:AlwaysOffSampler"},
		{pct: 0.25, want: "ParentBased{root:TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		if got := sampler(tt.pct).Description(); !strings.HasPrefix(got, tt.want) {
			t.Errorf("sampler(%v) = %q, want prefix %q", tt.pct, got, tt.want)
		}
	}
}
