// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"encoding/json"
	"reflect"
)

// This file contains the generic method-dispatch scaffolding shared by
// [ServerSession] and [ClientSession]: decoding a Request's raw params
// into the handler's declared type, running the middleware chain, and
// looking up the right handler for a notification method.

// A MethodHandler processes one decoded call for session type S (either
// *ServerSession or *ClientSession).
type MethodHandler[S any] func(ctx context.Context, session S, params Params) (Result, error)

// A Middleware wraps a MethodHandler, e.g. for logging or auth
// enforcement. Middleware added to a session runs for every method on
// that session, in the order it was added (last-added wraps innermost).
type Middleware[S any] func(MethodHandler[S]) MethodHandler[S]

// methodInfo binds one method name's params type to a typed handler, via
// a Params constructor derived once by reflection over P.
type methodInfo[S any] struct {
	newParams func() Params
	handler   MethodHandler[S]
}

// newMethodInfo builds a methodInfo from a method-expression-shaped
// handler: (*ServerSession).someMethod has exactly this type, so callers
// register methods as newMethodInfo((*ServerSession).someMethod). P must
// be a pointer type (e.g. *InitializeParams) implementing Params.
func newMethodInfo[S any, P Params, R Result](h func(S, context.Context, P) (R, error)) methodInfo[S] {
	var zero P
	elemType := reflect.TypeOf(zero).Elem()
	return methodInfo[S]{
		newParams: func() Params {
			return reflect.New(elemType).Interface().(P)
		},
		handler: func(ctx context.Context, s S, params Params) (Result, error) {
			p, _ := params.(P)
			return h(s, ctx, p)
		},
	}
}

// dispatch decodes raw into the params type registered for method in
// infos, threads it through mw (outermost middleware runs first), and
// invokes the resulting handler. It returns *WireError(CodeMethodNotFound)
// if method is unregistered and *WireError(CodeInvalidParams) if raw
// fails to decode.
func dispatch[S any](ctx context.Context, s S, method string, raw json.RawMessage, infos map[string]methodInfo[S], mw []Middleware[S]) (Result, error) {
	info, ok := infos[method]
	if !ok {
		return nil, errMethodNotFound(method)
	}
	ctx = withMethod(ctx, method)
	params := info.newParams()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, params); err != nil {
			return nil, errInvalidParams("decoding params for %q: %v", method, err)
		}
	}
	h := info.handler
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h(ctx, s, params)
}

// notifyInfo is dispatch's notification-side counterpart: no result, no
// error to report back (an inbound notification has nothing to reply to).
type notifyInfo[S any] struct {
	newParams func() Params
	handler   func(ctx context.Context, s S, params Params)
}

func newNotifyInfo[S any, P Params](h func(S, context.Context, P)) notifyInfo[S] {
	var zero P
	elemType := reflect.TypeOf(zero).Elem()
	return notifyInfo[S]{
		newParams: func() Params {
			return reflect.New(elemType).Interface().(P)
		},
		handler: func(ctx context.Context, s S, params Params) {
			p, _ := params.(P)
			h(s, ctx, p)
		},
	}
}

// dispatchNotify mirrors dispatch for one-way messages. An unregistered
// notification method is silently ignored, matching JSON-RPC's "servers
// MUST NOT reply to notifications" rule extended to unknown ones: there
// is no channel to report the problem on.
func dispatchNotify[S any](ctx context.Context, s S, method string, raw json.RawMessage, infos map[string]notifyInfo[S]) {
	info, ok := infos[method]
	if !ok {
		return
	}
	params := info.newParams()
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, params)
	}
	info.handler(ctx, s, params)
}
