package server

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/fibops/auth"
	"github.com/jonwraymond/fibops/config"
	"github.com/jonwraymond/fibops/fib"
	"github.com/jonwraymond/fibops/health"
	"github.com/jonwraymond/fibops/observe"
	"github.com/jonwraymond/fibops/resilience"
)

// evaluateOp names spans, metrics and log lines for /fib requests.
var evaluateOp = observe.Operation{Name: "evaluate", Route: "/fib/{n}"}

// selfTestN and selfTestWant back the evaluator health check.
const selfTestN = 10

var selfTestWant = big.NewInt(55)

// Server serves Fibonacci evaluations over HTTP.
type Server struct {
	cfg      *config.Config
	ev       *fib.Evaluator
	logger   observe.Logger
	evaluate observe.EvaluateFunc
	executor *resilience.Executor
	health   *health.Aggregator
	gatherer prometheus.Gatherer
	handler  http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// New wires an evaluator into an HTTP handler according to cfg.
// A nil observer disables telemetry.
func New(cfg *config.Config, ev *fib.Evaluator, obs observe.Observer, opts ...Option) (*Server, error) {
	if ev == nil {
		return nil, ErrNilEvaluator
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		ev:       ev,
		logger:   observe.NopLogger(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.executor = newExecutor(cfg)

	base := func(_ context.Context, n int) (*big.Int, error) {
		return ev.Evaluate(n)
	}
	s.evaluate = base
	if obs != nil {
		mw, err := observe.MiddlewareFromObserver(obs)
		if err != nil {
			return nil, fmt.Errorf("failed to build observe middleware: %w", err)
		}
		s.evaluate = mw.Wrap(evaluateOp, base)
		s.logger = obs.Logger()

		if err := observe.RegisterTableGauge(obs.Meter(), func() int64 {
			return int64(ev.Table().Len())
		}); err != nil {
			return nil, fmt.Errorf("failed to register table gauge: %w", err)
		}
		if err := observe.RegisterGuardGauges(obs.Meter(), guardReadings(s.executor)); err != nil {
			return nil, fmt.Errorf("failed to register guard gauges: %w", err)
		}
	}

	s.health = newHealth(cfg, ev)

	authn, err := newAuthenticator(cfg.Auth)
	if err != nil {
		return nil, err
	}
	s.handler = s.routes(authn)

	return s, nil
}

func newExecutor(cfg *config.Config) *resilience.Executor {
	opts := []resilience.ExecutorOption{resilience.WithTimeout(cfg.Server.RequestTimeout)}
	if cfg.Limits.Rate > 0 {
		opts = append(opts, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:  cfg.Limits.Rate,
			Burst: cfg.Limits.Burst,
		})))
	}
	if cfg.Limits.MaxConcurrent > 0 {
		opts = append(opts, resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: cfg.Limits.MaxConcurrent,
		})))
	}
	return resilience.NewExecutor(opts...)
}

func guardReadings(ex *resilience.Executor) observe.GuardReadings {
	var g observe.GuardReadings
	if bh := ex.Bulkhead(); bh != nil {
		g.InFlight = func() int64 { return int64(bh.Metrics().Active) }
		g.Rejected = func() int64 { return bh.Metrics().Rejected }
	}
	if rl := ex.RateLimiter(); rl != nil {
		g.Tokens = rl.Tokens
	}
	if to := ex.Timeout(); to != nil {
		g.Abandoned = to.Abandoned
	}
	return g
}

func newHealth(cfg *config.Config, ev *fib.Evaluator) *health.Aggregator {
	agg := health.NewAggregator()
	agg.Register("evaluator", health.NewCheckerFunc("evaluator", func(context.Context) health.Result {
		v, err := ev.Evaluate(selfTestN)
		if err != nil {
			return health.Unhealthy("self-test failed", err)
		}
		if v.Cmp(selfTestWant) != 0 {
			return health.Unhealthy(fmt.Sprintf("fib(%d) = %s, want %s", selfTestN, v, selfTestWant), health.ErrCheckFailed)
		}
		return health.Healthy("self-test passed")
	}))
	agg.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{
		MaxAlloc:   cfg.Health.MaxHeapBytes,
		Entries:    ev.Table().Len,
		MaxEntries: cfg.Cache.MaxEntries,
	}))
	return agg
}

// newAuthenticator returns nil when authentication is disabled.
func newAuthenticator(cfg config.AuthConfig) (auth.Authenticator, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var authns []auth.Authenticator
	if len(cfg.APIKeys) > 0 {
		store := auth.NewMemoryAPIKeyStore()
		for i, entry := range cfg.APIKeys {
			principal, key, ok := strings.Cut(entry, ":")
			if !ok {
				principal, key = fmt.Sprintf("key-%d", i), entry
			}
			if key == "" {
				return nil, fmt.Errorf("%w: empty api key at index %d", config.ErrInvalidConfig, i)
			}
			store.AddKey(principal, key)
		}
		authns = append(authns, auth.NewAPIKeyAuthenticator(auth.APIKeyConfig{}, store))
	}
	if cfg.JWTSecret != "" {
		authns = append(authns, auth.NewJWTAuthenticator(auth.JWTConfig{
			Secret:   []byte(cfg.JWTSecret),
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		}))
	}
	return auth.NewCompositeAuthenticator(authns...), nil
}

func (s *Server) routes(authn auth.Authenticator) http.Handler {
	mux := http.NewServeMux()

	var fibHandler http.Handler = recordPrincipal(http.HandlerFunc(s.handleFib))
	if authn != nil {
		fibHandler = auth.Middleware(authn, nil)(fibHandler)
	} else {
		fibHandler = auth.Anonymous(fibHandler)
	}
	mux.Handle("GET /fib/{n}", fibHandler)

	health.RegisterHandlers(mux, s.health)

	if s.cfg.Observe.MetricsExporter == "prometheus" {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return observe.ExtractHTTP(s.logRequests(mux))
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Health returns the health aggregator backing /health and /readyz.
func (s *Server) Health() *health.Aggregator {
	return s.health
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully within
// the configured shutdown timeout. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info(ctx, "server started", observe.F("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
