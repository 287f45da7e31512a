// Package auth provides optional request authentication for the Fibonacci
// service.
//
// Two credential kinds are supported: static API keys sent in X-API-Key and
// HMAC-signed JWT bearer tokens. A CompositeAuthenticator accepts either.
// Middleware guards an http.Handler and places the caller's Identity in the
// request context.
//
//	store := auth.NewMemoryAPIKeyStore()
//	store.AddKey("svc-batch", "s3cr3t")
//
//	authn := auth.NewCompositeAuthenticator(
//	    auth.NewAPIKeyAuthenticator(auth.APIKeyConfig{}, store),
//	    auth.NewJWTAuthenticator(auth.JWTConfig{Secret: []byte(key)}),
//	)
//	mux.Handle("GET /fib/{n}", auth.Middleware(authn, nil)(fibHandler))
package auth
