// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"errors"
)

// A Transport is a factory for a [Stream]: something that can read and
// write MCP messages. Connect begins accepting or establishing a
// connection and returns a Stream that the engine reads from in a loop,
// rather than an on_message/on_error callback design — a blocking Read
// loop owned by a single goroutine per session gives the same
// delivery-order guarantee without callback lifetime hazards.
type Transport interface {
	Connect(ctx context.Context) (Stream, error)
}

// A Stream delivers and accepts MCP messages for one session. Close
// refuses new sends, drains or cancels outstanding sends, and closes
// underlying resources. Close is idempotent.
type Stream interface {
	// Read blocks until a message is available, the stream is closed, or
	// ctx is done. It returns ErrClosed once the peer has gone away (see
	// [ErrClosed] for the local-close cases).
	Read(ctx context.Context) (Message, error)

	// Write sends msg. If ctx carries a related-request id (see
	// [WithRelatedRequest]) and the underlying transport supports
	// request-to-stream routing (the streaming HTTP transport), the
	// message is routed to the stream that the related request arrived
	// on.
	Write(ctx context.Context, msg Message) error

	// SessionID returns the opaque session id minted by the server, or ""
	// if the transport does not use one (stdio never does).
	SessionID() string

	Close() error
}

// ErrClosed is returned from Read once the peer has closed a Stream, from
// the Streamable HTTP streams' Read after a local Close, and from the
// Streamable HTTP server stream's Write after Close. The stdio and
// in-memory streams return the underlying pipe's error from a Read or
// Write after a local Close.
var ErrClosed = errors.New("mcp: stream closed")

type ctxKey int

const (
	relatedRequestKey ctxKey = iota
	resumptionTokenKey
)

// WithRelatedRequest annotates ctx with the id of the inbound request that
// an outbound message (reply or derived notification) is being sent in
// response to. Servers use this so that the streaming HTTP transport can
// route the message to the correct SSE stream.
func WithRelatedRequest(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, relatedRequestKey, id)
}

// RelatedRequest extracts the id set by [WithRelatedRequest], if any.
func RelatedRequest(ctx context.Context) (ID, bool) {
	id, ok := ctx.Value(relatedRequestKey).(ID)
	return id, ok
}

// ResumptionFunc is invoked with the opaque event id each time the
// streaming HTTP transport mints one for an outbound SSE event on a
// stream tied to the sending call, so that a client can record it for
// later resumption via Last-Event-Id.
type ResumptionFunc func(token string)

// WithResumptionCallback annotates ctx so that the streaming HTTP
// transport reports newly minted event ids to fn as it writes them.
func WithResumptionCallback(ctx context.Context, fn ResumptionFunc) context.Context {
	return context.WithValue(ctx, resumptionTokenKey, fn)
}

func resumptionCallback(ctx context.Context) (ResumptionFunc, bool) {
	fn, ok := ctx.Value(resumptionTokenKey).(ResumptionFunc)
	return fn, ok
}

// AuthInfo describes the authenticated peer identity attached to a
// session by the streaming HTTP transport's optional auth gate. It is nil
// when no auth provider is configured.
type AuthInfo struct {
	ClientID string
	Scopes   []string
}

type authInfoKey struct{}

// WithAuthInfo attaches the authenticated peer identity established by an
// auth gate to ctx, for a handler to recover later via
// [AuthInfoFromContext]. Transports that front an auth layer call this
// before handing the request context to [Server.Connect] or a per-request
// [Stream].
func WithAuthInfo(ctx context.Context, info *AuthInfo) context.Context {
	return context.WithValue(ctx, authInfoKey{}, info)
}

// AuthInfoFromContext returns the authenticated peer identity recorded for
// the request currently being handled, if any.
func AuthInfoFromContext(ctx context.Context) (*AuthInfo, bool) {
	info, ok := ctx.Value(authInfoKey{}).(*AuthInfo)
	return info, ok
}

type methodKey struct{}

func withMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, methodKey{}, method)
}

// MethodFromContext returns the JSON-RPC method name of the request
// currently being dispatched, for middleware ([Middleware]) that needs to
// vary its behavior (e.g. scope enforcement) by method.
func MethodFromContext(ctx context.Context) (string, bool) {
	m, ok := ctx.Value(methodKey{}).(string)
	return m, ok
}
