package auth

import (
	"encoding/json"
	"net/http"
)

// FailureHandler writes the response for a rejected request.
type FailureHandler func(w http.ResponseWriter, r *http.Request, err error)

// Middleware authenticates each request with authn and stores the identity
// in the request context. Rejected requests go to onFail; nil selects
// DefaultFailureHandler.
func Middleware(authn Authenticator, onFail FailureHandler) func(http.Handler) http.Handler {
	if onFail == nil {
		onFail = DefaultFailureHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			req := NewAuthRequest(r)

			if !authn.Supports(ctx, req) {
				onFail(w, r, ErrMissingCredentials)
				return
			}

			result, err := authn.Authenticate(ctx, req)
			if err != nil {
				onFail(w, r, err)
				return
			}
			if !result.Authenticated {
				onFail(w, r, result.Error)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, result.Identity)))
		})
	}
}

// Anonymous marks every request with AnonymousIdentity.
func Anonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), AnonymousIdentity())))
	})
}

// DefaultFailureHandler answers 401 {"error":"unauthorized"} for credential
// problems and 500 for internal errors.
func DefaultFailureHandler(w http.ResponseWriter, _ *http.Request, err error) {
	code, msg := http.StatusUnauthorized, "unauthorized"
	if !IsCredentialError(err) {
		code, msg = http.StatusInternalServerError, "internal error"
	} else {
		w.Header().Set("WWW-Authenticate", `Bearer realm="fibops"`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
