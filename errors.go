// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import "fmt"

// JSON-RPC 2.0 reserved error codes, plus the MCP-specific extensions used
// by the protocol engine.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeConnectionClosed  = -32000
	CodeRequestTimeout    = -32001
	CodeInvalidNotif      = -32002
	CodeResourceNotFound  = -31002
	CodeUnsupportedMethod = -31001
)

// A WireError is the error shape carried on the wire in a JSON-RPC Error
// message: {code, message, data}. It implements error, and is the only
// error type the engine ever puts on the wire; any other error returned
// from a handler is wrapped as an InternalError at the dispatch boundary.
type WireError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *WireError) Error() string {
	return fmt.Sprintf("jsonrpc2: code %v message: %s", e.Code, e.Message)
}

func newError(code int64, format string, args ...any) *WireError {
	return &WireError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func errParse(err error) *WireError {
	return &WireError{Code: CodeParseError, Message: err.Error()}
}

func errInvalidRequest(format string, args ...any) *WireError {
	return newError(CodeInvalidRequest, format, args...)
}

func errMethodNotFound(method string) *WireError {
	return newError(CodeMethodNotFound, "method not found: %q", method)
}

func errInvalidParams(format string, args ...any) *WireError {
	return newError(CodeInvalidParams, format, args...)
}

func errInvalidParamsData(data any, format string, args ...any) *WireError {
	e := newError(CodeInvalidParams, format, args...)
	e.Data = data
	return e
}

func errInternal(err error) *WireError {
	return &WireError{Code: CodeInternalError, Message: err.Error()}
}

// ErrConnectionClosed is returned from pending calls when the underlying
// session terminates before a reply arrives, and from calls started after
// the session has terminated.
var ErrConnectionClosed = &WireError{Code: CodeConnectionClosed, Message: "connection closed"}

// errTimeout resolves a pending waiter whose deadline elapsed.
var errTimeout = &WireError{Code: CodeRequestTimeout, Message: "request timed out"}

// ResourceNotFoundError builds the MCP-specific "resource not found" wire
// error for the given URI.
func ResourceNotFoundError(uri string) *WireError {
	return &WireError{
		Code:    CodeResourceNotFound,
		Message: "Resource not found",
		Data:    map[string]any{"uri": uri},
	}
}
