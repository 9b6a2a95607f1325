// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bufio"
	"context"
	"io"
	"sync"
)

// newIOStream adapts an io.ReadWriteCloser carrying newline-delimited
// JSON-RPC values (as used by the stdio transport) into a [Stream]. Each
// call to Write sends exactly one message terminated by a newline; each
// line read from rwc is decoded as exactly one message.
func newIOStream(rwc io.ReadWriteCloser) Stream {
	return &ioStream{
		rwc:    rwc,
		reader: bufio.NewReaderSize(rwc, 64*1024),
	}
}

type ioStream struct {
	rwc    io.ReadWriteCloser
	reader *bufio.Reader

	writeMu sync.Mutex

	closeOnce sync.Once
}

// SessionID implements [Stream]; the stdio transport has exactly one
// peer and never mints a session id.
func (s *ioStream) SessionID() string { return "" }

func (s *ioStream) Read(ctx context.Context) (Message, error) {
	type result struct {
		line []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := s.reader.ReadBytes('\n')
		ch <- result{line, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if len(r.line) == 0 && r.err != nil {
			if r.err == io.EOF {
				return nil, ErrClosed
			}
			return nil, r.err
		}
		msg, err := DecodeMessage(r.line)
		if err != nil {
			return nil, err
		}
		if r.err != nil && r.err != io.EOF {
			return msg, nil
		}
		return msg, nil
	}
}

func (s *ioStream) Write(ctx context.Context, msg Message) error {
	data, err := EncodeMessage(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err = s.rwc.Write(data)
	return err
}

func (s *ioStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.rwc.Close()
	})
	return err
}
