package server

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/jonwraymond/fibops/auth"
	"github.com/jonwraymond/fibops/fib"
	"github.com/jonwraymond/fibops/observe"
	"github.com/jonwraymond/fibops/resilience"
)

// fibResponse is the /fib/{n} success body. Fib encodes as a JSON number
// of arbitrary size.
type fibResponse struct {
	N   int      `json:"n"`
	Fib *big.Int `json:"fib"`
}

func (s *Server) handleFib(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidIndex)
		return
	}
	if n > s.cfg.Server.MaxN {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("n exceeds maximum of %d", s.cfg.Server.MaxN))
		return
	}

	v, err := resilience.Do(r.Context(), s.executor, func(ctx context.Context) (*big.Int, error) {
		return s.evaluate(ctx, n)
	})
	if err != nil {
		s.writeEvalError(w, r, n, err)
		return
	}

	writeJSON(w, http.StatusOK, fibResponse{N: n, Fib: v})
}

func (s *Server) writeEvalError(w http.ResponseWriter, r *http.Request, n int, err error) {
	switch {
	case errors.Is(err, fib.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, msgInvalidIndex)
	case resilience.IsOverload(err):
		s.logger.Warn(r.Context(), "request shed",
			observe.F("n", n),
			observe.F("error", err.Error()),
		)
		w.Header().Set("Retry-After", "1")
		if errors.Is(err, resilience.ErrRateLimitExceeded) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "too many evaluations in flight")
	case errors.Is(err, resilience.ErrTimeout):
		writeError(w, http.StatusServiceUnavailable, "evaluation timed out")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		s.logger.Error(r.Context(), "unexpected evaluation error",
			observe.F("n", n),
			observe.F("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// statusRecorder captures the response code and caller for request logging.
// principal is filled in from inside the auth middleware.
type statusRecorder struct {
	http.ResponseWriter
	code      int
	principal string
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Debug(r.Context(), "request",
			observe.F("method", r.Method),
			observe.F("path", r.URL.Path),
			observe.F("status", rec.code),
			observe.F("principal", rec.principal),
			observe.F("duration_ms", float64(time.Since(start).Microseconds())/1000),
		)
	})
}

// recordPrincipal copies the authenticated principal onto the recorder so the
// outer request log can see it.
func recordPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rec, ok := w.(*statusRecorder); ok {
			rec.principal = auth.PrincipalFromContext(r.Context())
		}
		next.ServeHTTP(w, r)
	})
}
