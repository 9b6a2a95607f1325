// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"io"
)

// inMemoryTransport is a [Transport] backed by an in-process pipe, useful
// for tests and for wiring a client and server together without a real
// subprocess or network hop.
type inMemoryTransport struct {
	rwc io.ReadWriteCloser
}

func (t *inMemoryTransport) Connect(ctx context.Context) (Stream, error) {
	return newIOStream(t.rwc), nil
}

// pipeRWPair joins an *io.PipeReader and *io.PipeWriter into a single
// ReadWriteCloser, closing both ends together.
type pipeRWPair struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipeRWPair) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipeRWPair) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p *pipeRWPair) Close() error {
	werr := p.w.Close()
	rerr := p.r.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

// NewInMemoryTransports returns two linked [Transport]s, suitable for
// connecting a [Client] and [Server] within the same process: a message
// written on one end is read on the other.
func NewInMemoryTransports() (client, server Transport) {
	r1, w1 := io.Pipe() // client writes, server reads
	r2, w2 := io.Pipe() // server writes, client reads
	client = &inMemoryTransport{rwc: &pipeRWPair{r: r2, w: w1}}
	server = &inMemoryTransport{rwc: &pipeRWPair{r: r1, w: w2}}
	return client, server
}
