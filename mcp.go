// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mcp implements the core of the Model Context Protocol: a
// bidirectional JSON-RPC 2.0 engine that lets a client exchange requests,
// responses, and notifications with a server over a pluggable transport.
//
// The package provides the protocol engine (dispatch, correlation,
// cancellation, progress, timeouts), the initialization handshake and
// capability negotiation, feature registries for tools, prompts, and
// resources, and two transports: stdio and streaming HTTP. Concrete tool,
// prompt, and resource implementations are supplied by the host
// application; this package only routes calls and validates arguments.
//
// To get started, create a [Server] or [Client] with [NewServer] or
// [NewClient], register features with the Add* methods, then connect to a
// peer over a [Transport] with [Server.Connect] or [Client.Connect].
package mcp
