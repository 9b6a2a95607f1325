// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreproto/mcp"
)

// GateOptions configures a [Gate].
type GateOptions struct {
	// IntrospectionEndpoint is the RFC 7662 token introspection URL.
	IntrospectionEndpoint string
	// ClientSecret authenticates the gate itself to the introspection
	// endpoint.
	ClientSecret string
	// HTTPClient is used for introspection calls; http.DefaultClient if nil.
	HTTPClient *http.Client
	// CacheTTL bounds how long an introspection result is trusted before
	// it is re-checked, regardless of the token's own exp claim. Defaults
	// to one minute.
	CacheTTL time.Duration
	// RequiredScopes maps a JSON-RPC method name to the scopes a token
	// must carry to invoke it. A method absent from the map requires no
	// scope.
	RequiredScopes map[string][]string
	// Realm is reported in the WWW-Authenticate challenge.
	Realm string
	// ResourceMetadata, if set, is reported as the challenge's
	// resource_metadata parameter (RFC 9728 protected-resource metadata
	// discovery).
	ResourceMetadata string
}

// A Gate enforces bearer-token authentication and per-method scope
// requirements in front of a [mcp.StreamableHTTPHandler]-style handler.
type Gate struct {
	introspector *Introspector
	cache        *cache
	opts         GateOptions
}

// NewGate builds a Gate from opts.
func NewGate(opts GateOptions) *Gate {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	return &Gate{
		introspector: NewIntrospector(opts.IntrospectionEndpoint, opts.ClientSecret, opts.HTTPClient),
		cache:        newCache(opts.CacheTTL),
		opts:         opts,
	}
}

// Wrap returns an http.Handler that authenticates each request before
// delegating to next, attaching the peer's identity and granted scopes
// to the request context via [mcp.WithAuthInfo]. The JSON-RPC method
// named by the request body isn't known at the HTTP layer, so this only
// rejects missing/invalid/expired tokens; per-method scope enforcement
// happens in [Gate.Middleware], run inside the engine once the method is
// known.
func (g *Gate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		token, ok := bearerToken(req)
		if !ok {
			g.challenge(w, "", "invalid_request", "missing bearer token")
			return
		}
		in, err := g.introspect(req.Context(), token)
		if err != nil {
			g.challenge(w, "", "invalid_token", err.Error())
			return
		}
		if !in.Active {
			g.challenge(w, "", "invalid_token", "token is not active")
			return
		}
		if !in.Expiry().IsZero() && time.Now().After(in.Expiry()) {
			g.challenge(w, "", "invalid_token", "token is expired")
			return
		}
		ctx := mcp.WithAuthInfo(req.Context(), &mcp.AuthInfo{
			ClientID: in.ClientID,
			Scopes:   in.Scopes(),
		})
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func (g *Gate) introspect(ctx context.Context, token string) (*Introspection, error) {
	if in, ok := g.cache.get(token); ok {
		return in, nil
	}
	in, err := g.introspector.Introspect(ctx, token)
	if err != nil {
		return nil, err
	}
	g.cache.add(token, in)
	return in, nil
}

// RequiredScopesFor reports the scopes method requires, per
// GateOptions.RequiredScopes.
func (g *Gate) RequiredScopesFor(method string) []string {
	return g.opts.RequiredScopes[method]
}

// Middleware returns an [mcp.Middleware] for [mcp.ServerSession] that
// enforces g's per-method scope requirements, using the [mcp.AuthInfo]
// attached by [Gate.Wrap]. The "ping" method is always let through
// unauthenticated-or-not, since a transport health check shouldn't depend
// on token validity.
func (g *Gate) Middleware() mcp.Middleware[*mcp.ServerSession] {
	return func(next mcp.MethodHandler[*mcp.ServerSession]) mcp.MethodHandler[*mcp.ServerSession] {
		return func(ctx context.Context, ss *mcp.ServerSession, params mcp.Params) (mcp.Result, error) {
			method, _ := mcp.MethodFromContext(ctx)
			if method == "ping" {
				return next(ctx, ss, params)
			}
			required := g.RequiredScopesFor(method)
			if len(required) == 0 {
				return next(ctx, ss, params)
			}
			info, ok := mcp.AuthInfoFromContext(ctx)
			if !ok || !HasScopes(info.Scopes, required) {
				return nil, fmt.Errorf("auth: %q requires scopes %v", method, required)
			}
			return next(ctx, ss, params)
		}
	}
}

// HasScopes reports whether granted satisfies every scope in required.
func HasScopes(granted, required []string) bool {
	have := make(map[string]bool, len(granted))
	for _, s := range granted {
		have[s] = true
	}
	for _, s := range required {
		if !have[s] {
			return false
		}
	}
	return true
}

func bearerToken(req *http.Request) (string, bool) {
	h := req.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	return strings.TrimPrefix(h, prefix), true
}

// challenge writes a 401 response with an RFC 6750-shaped
// WWW-Authenticate header, optionally extended with a resource_metadata
// parameter (RFC 9728) when the gate is configured with one.
func (g *Gate) challenge(w http.ResponseWriter, scope, errCode, description string) {
	var b strings.Builder
	b.WriteString("Bearer")
	params := make([]string, 0, 4)
	if g.opts.Realm != "" {
		params = append(params, fmt.Sprintf(`realm=%q`, g.opts.Realm))
	}
	if scope != "" {
		params = append(params, fmt.Sprintf(`scope=%q`, scope))
	}
	if errCode != "" {
		params = append(params, fmt.Sprintf(`error=%q`, errCode))
	}
	if description != "" {
		params = append(params, fmt.Sprintf(`error_description=%q`, description))
	}
	if g.opts.ResourceMetadata != "" {
		params = append(params, fmt.Sprintf(`resource_metadata=%q`, g.opts.ResourceMetadata))
	}
	if len(params) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(params, ", "))
	}
	w.Header().Set("WWW-Authenticate", b.String())
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
