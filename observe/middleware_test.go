package observe

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

type telemetry struct {
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	mw     *Middleware
}

func newTelemetry(t *testing.T, logger Logger) telemetry {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	return telemetry{
		spans:  spans,
		reader: reader,
		mw:     NewMiddleware(NewTracer(tp.Tracer("test")), metrics, logger),
	}
}

func TestMiddleware_SuccessPath(t *testing.T) {
	var logs bytes.Buffer
	tel := newTelemetry(t, NewLoggerWithWriter("info", &logs))

	inner := func(ctx context.Context, n int) (*big.Int, error) {
		return big.NewInt(55), nil
	}

	wrapped := tel.mw.Wrap(Operation{Name: "evaluate", Route: "/fib/{n}"}, inner)
	result, err := wrapped(context.Background(), 10)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if result.Int64() != 55 {
		t.Errorf("result = %s, want 55", result)
	}

	spans := tel.spans.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "fib.evaluate" {
		t.Errorf("span name = %q, want fib.evaluate", spans[0].Name())
	}

	var gotN int64 = -1
	for _, attr := range spans[0].Attributes() {
		if string(attr.Key) == "fib.n" {
			gotN = attr.Value.AsInt64()
		}
	}
	if gotN != 10 {
		t.Errorf("fib.n attribute = %d, want 10", gotN)
	}

	var rm metricdata.ResourceMetrics
	if err := tel.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	total := findMetric(rm, MetricEvalTotal)
	if total == nil {
		t.Fatalf("%s metric not found", MetricEvalTotal)
	}
	if got := sumValue(t, total); got != 1 {
		t.Errorf("%s = %d, want 1", MetricEvalTotal, got)
	}
	if findMetric(rm, MetricEvalDuration) == nil {
		t.Errorf("%s metric not found", MetricEvalDuration)
	}

	if !bytes.Contains(logs.Bytes(), []byte("evaluation completed")) {
		t.Errorf("expected completion log, got %s", logs.String())
	}
}

func TestMiddleware_ErrorPath(t *testing.T) {
	var logs bytes.Buffer
	tel := newTelemetry(t, NewLoggerWithWriter("info", &logs))

	testErr := errors.New("invalid argument")
	inner := func(ctx context.Context, n int) (*big.Int, error) {
		return nil, testErr
	}

	wrapped := tel.mw.Wrap(Operation{Name: "evaluate"}, inner)
	_, err := wrapped(context.Background(), -5)
	if !errors.Is(err, testErr) {
		t.Errorf("expected error %v, got %v", testErr, err)
	}

	spans := tel.spans.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	var failed bool
	for _, attr := range spans[0].Attributes() {
		if string(attr.Key) == "fib.error" {
			failed = attr.Value.AsBool()
		}
	}
	if !failed {
		t.Error("expected fib.error=true on failed evaluation")
	}

	var rm metricdata.ResourceMetrics
	if err := tel.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	errs := findMetric(rm, MetricEvalErrors)
	if errs == nil {
		t.Fatalf("%s metric not found", MetricEvalErrors)
	}
	if got := sumValue(t, errs); got != 1 {
		t.Errorf("%s = %d, want 1", MetricEvalErrors, got)
	}

	if !bytes.Contains(logs.Bytes(), []byte(`"level":"error"`)) {
		t.Errorf("expected error log, got %s", logs.String())
	}
}

func TestMiddleware_NilComponents(t *testing.T) {
	mw := NewMiddleware(nil, nil, nil)
	wrapped := mw.Wrap(Operation{Name: "evaluate"}, func(ctx context.Context, n int) (*big.Int, error) {
		return big.NewInt(int64(n)), nil
	})

	got, err := wrapped(context.Background(), 1)
	if err != nil || got.Int64() != 1 {
		t.Errorf("wrapped() = %v, %v; want 1, nil", got, err)
	}
}

func TestMiddlewareFromObserver(t *testing.T) {
	if _, err := MiddlewareFromObserver(nil); !errors.Is(err, ErrNilObserver) {
		t.Errorf("MiddlewareFromObserver(nil) error = %v, want ErrNilObserver", err)
	}

	obs, err := NewObserver(context.Background(), Config{ServiceName: "test"})
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}
	mw, err := MiddlewareFromObserver(obs)
	if err != nil {
		t.Fatalf("MiddlewareFromObserver() error = %v", err)
	}
	if mw == nil {
		t.Fatal("expected non-nil middleware")
	}
}

func TestRegisterTableGauge(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	size := int64(0)
	if err := RegisterTableGauge(mp.Meter("test"), func() int64 { return size }); err != nil {
		t.Fatalf("RegisterTableGauge() error = %v", err)
	}

	size = 42
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	m := findMetric(rm, MetricCacheEntries)
	if m == nil {
		t.Fatalf("%s metric not found", MetricCacheEntries)
	}
	gauge, ok := m.Data.(metricdata.Gauge[int64])
	if !ok {
		t.Fatalf("expected Gauge[int64], got %T", m.Data)
	}
	if len(gauge.DataPoints) != 1 || gauge.DataPoints[0].Value != 42 {
		t.Errorf("gauge data points = %+v, want single value 42", gauge.DataPoints)
	}
}

func TestRegisterGuardGauges(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	err := RegisterGuardGauges(mp.Meter("test"), GuardReadings{
		InFlight:  func() int64 { return 3 },
		Rejected:  func() int64 { return 7 },
		Tokens:    func() float64 { return 2.5 },
		Abandoned: func() int64 { return 1 },
	})
	if err != nil {
		t.Fatalf("RegisterGuardGauges() error = %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	if m := findMetric(rm, MetricGuardRejected); m == nil || sumValue(t, m) != 7 {
		t.Errorf("%s = %+v, want 7", MetricGuardRejected, m)
	}
	if m := findMetric(rm, MetricGuardAbandoned); m == nil || sumValue(t, m) != 1 {
		t.Errorf("%s = %+v, want 1", MetricGuardAbandoned, m)
	}
	if m := findMetric(rm, MetricGuardInFlight); m == nil {
		t.Errorf("%s missing", MetricGuardInFlight)
	} else if g, ok := m.Data.(metricdata.Gauge[int64]); !ok || g.DataPoints[0].Value != 3 {
		t.Errorf("%s = %+v, want 3", MetricGuardInFlight, m.Data)
	}
	if m := findMetric(rm, MetricGuardTokens); m == nil {
		t.Errorf("%s missing", MetricGuardTokens)
	} else if g, ok := m.Data.(metricdata.Gauge[float64]); !ok || g.DataPoints[0].Value != 2.5 {
		t.Errorf("%s = %+v, want 2.5", MetricGuardTokens, m.Data)
	}
}

func TestRegisterGuardGauges_SkipsNil(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	if err := RegisterGuardGauges(mp.Meter("test"), GuardReadings{}); err != nil {
		t.Fatalf("RegisterGuardGauges() error = %v", err)
	}
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	if m := findMetric(rm, MetricGuardInFlight); m != nil {
		t.Errorf("unexpected %s with no bulkhead", MetricGuardInFlight)
	}
}

func TestOperation(t *testing.T) {
	op := Operation{Name: "evaluate"}
	if op.SpanName() != "fib.evaluate" {
		t.Errorf("SpanName() = %q, want fib.evaluate", op.SpanName())
	}
	if err := op.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := (Operation{}).Validate(); !errors.Is(err, ErrMissingOperationName) {
		t.Errorf("Validate() error = %v, want ErrMissingOperationName", err)
	}
}

func TestNoopContracts(t *testing.T) {
	tracer := newNoopTracer()
	_, span := tracer.StartSpan(context.Background(), Operation{Name: "noop"}, 3)
	tracer.EndSpan(span, nil)

	metrics := &noopMetrics{}
	metrics.RecordEvaluation(context.Background(), Operation{Name: "noop"}, 0, nil)
}
