// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// defaultRequestTimeout is the per-request deadline applied when a call
// doesn't specify one and the caller's context carries no deadline of its
// own.
const defaultRequestTimeout = 60 * time.Second

// A connHandler processes inbound requests and notifications read off a
// conn's Stream. Both methods run on a per-message goroutine spawned by
// the conn's read loop, so implementations must be safe for concurrent
// use.
type connHandler interface {
	// handleRequest returns the result to send back, or an error (ideally
	// a *WireError; anything else is wrapped as CodeInternalError).
	handleRequest(ctx context.Context, req *Request) (any, error)
	handleNotify(ctx context.Context, n *Notification)
}

// A conn multiplexes a single [Stream] between outgoing calls awaiting a
// reply and incoming requests/notifications dispatched to a connHandler.
// It is the engine's transport-agnostic correlation layer: one goroutine
// (started by Run) owns Stream.Read, so delivery order on the wire is
// preserved, while each inbound request is handled on its own goroutine so
// that a slow handler cannot block the read loop or other in-flight
// requests.
type conn struct {
	stream  Stream
	handler connHandler

	seq atomic.Int64 // outgoing request id generator

	pendingMu sync.Mutex
	pending   map[ID]chan *Response

	progressMu sync.Mutex
	progress   map[string]chan *ProgressParams

	handlingMu sync.Mutex
	handling   map[ID]context.CancelFunc

	closeOnce sync.Once
	closed    chan struct{}

	doneOnce sync.Once
	done     chan struct{}
	runErr   error
}

func newConn(stream Stream, handler connHandler) *conn {
	return &conn{
		stream:   stream,
		handler:  handler,
		pending:  make(map[ID]chan *Response),
		progress: make(map[string]chan *ProgressParams),
		handling: make(map[ID]context.CancelFunc),
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// CallOptions customizes one outbound [conn.CallOptions] invocation:
// its deadline, an optional absolute cap that progress can't extend past,
// and progress-token registration.
type CallOptions struct {
	// Timeout bounds how long to wait for a reply; <= 0 uses
	// [defaultRequestTimeout]. Reset by progress events when
	// ResetTimeoutOnProgress is set. Neither Timeout nor the default
	// applies when ctx already carries a deadline.
	Timeout time.Duration

	// MaxTotalTimeout, if > 0, bounds the call's total lifetime
	// regardless of progress; Timeout resets never extend past it. Like
	// Timeout, it is not applied when ctx already carries a deadline.
	MaxTotalTimeout time.Duration

	// ProgressToken, if non-nil, is embedded by the caller in the
	// request's params (Meta.ProgressToken) and also registers this call
	// to receive notifications/progress events carrying the same token.
	ProgressToken any

	// ResetTimeoutOnProgress, when true and ProgressToken is set, resets
	// the per-request Timeout every time a matching progress event
	// arrives, up to MaxTotalTimeout.
	ResetTimeoutOnProgress bool

	// OnProgress, if non-nil, is called for every matching progress
	// event, in addition to any timeout reset.
	OnProgress func(*ProgressParams)
}

// Call sends a request and blocks until a reply arrives, ctx is done, the
// connection closes, or the default per-request deadline elapses. result,
// if non-nil, receives the decoded result payload.
func (c *conn) Call(ctx context.Context, method string, params, result any) error {
	return c.CallOptions(ctx, method, params, result, nil)
}

// CallOptions is [conn.Call] with explicit deadline and progress-token
// handling, per spec §4.2's send-request algorithm and §4.10's progress
// semantics.
func (c *conn) CallOptions(ctx context.Context, method string, params, result any, opts *CallOptions) error {
	if opts == nil {
		opts = &CallOptions{}
	}
	raw, err := marshalParams(params)
	if err != nil {
		return err
	}
	id := Int64ID(c.seq.Add(1))
	ch := make(chan *Response, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	var progressCh chan *ProgressParams
	if opts.ProgressToken != nil {
		progressCh = make(chan *ProgressParams, 1)
		key := progressKey(opts.ProgressToken)
		c.progressMu.Lock()
		c.progress[key] = progressCh
		c.progressMu.Unlock()
		defer func() {
			c.progressMu.Lock()
			delete(c.progress, key)
			c.progressMu.Unlock()
		}()
	}

	select {
	case <-c.closed:
		return ErrConnectionClosed
	default:
	}
	if err := c.stream.Write(ctx, &Request{ID: id, Method: method, Params: raw}); err != nil {
		return fmt.Errorf("mcp: writing request: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		// The caller already bounded how long it's willing to wait;
		// don't impose a second, possibly shorter, deadline on top.
		timeout = 0
	}
	var timer *time.Timer
	var timerC <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		timerC = timer.C
	}
	// The total cap has its own timer, which progress never resets.
	var totalC <-chan time.Time
	if timer != nil && opts.MaxTotalTimeout > 0 {
		total := time.NewTimer(opts.MaxTotalTimeout)
		defer total.Stop()
		totalC = total.C
	}
	started := time.Now()

	for {
		select {
		case resp := <-ch:
			if resp.Error != nil {
				return resp.Error
			}
			if result != nil && len(resp.Result) > 0 {
				if err := json.Unmarshal(resp.Result, result); err != nil {
					return fmt.Errorf("mcp: decoding result: %w", err)
				}
			}
			return nil
		case <-timerC:
			go c.cancelRemote(id, "request timed out")
			return errTimeout
		case <-totalC:
			go c.cancelRemote(id, "request timed out")
			return errTimeout
		case p := <-progressCh:
			if opts.OnProgress != nil {
				opts.OnProgress(p)
			}
			if opts.ResetTimeoutOnProgress && timer != nil {
				withinCap := opts.MaxTotalTimeout <= 0 || time.Since(started) < opts.MaxTotalTimeout
				if withinCap {
					if !timer.Stop() {
						<-timer.C
					}
					timer.Reset(timeout)
				}
			}
		case <-ctx.Done():
			go c.cancelRemote(id, "context done")
			return ctx.Err()
		case <-c.closed:
			return ErrConnectionClosed
		}
	}
}

// progressKey normalizes a progress token (an int or a string on the
// wire) to a comparable map key: a token sent as an int64 round-trips
// through JSON as a float64, so the raw `any` values wouldn't compare
// equal without this.
func progressKey(token any) string {
	return fmt.Sprint(token)
}

// cancelRemote notifies the peer that a call was abandoned locally.
func (c *conn) cancelRemote(id ID, reason string) {
	params, err := marshalParams(&CancelledParams{RequestID: id, Reason: reason})
	if err != nil {
		return
	}
	_ = c.stream.Write(context.Background(), &Notification{Method: notificationCancelled, Params: params})
}

// Notify sends a one-way message; it does not wait for any reply.
func (c *conn) Notify(ctx context.Context, method string, params any) error {
	raw, err := marshalParams(params)
	if err != nil {
		return err
	}
	return c.stream.Write(ctx, &Notification{Method: method, Params: raw})
}

// Reply sends the response to an inbound request with the given id.
func (c *conn) reply(ctx context.Context, id ID, result any, callErr error) error {
	resp := &Response{ID: id}
	if callErr != nil {
		we, ok := callErr.(*WireError)
		if !ok {
			we = errInternal(callErr)
		}
		resp.Error = we
	} else {
		raw, err := marshalParams(result)
		if err != nil {
			resp.Error = errInternal(err)
		} else {
			resp.Result = raw
		}
	}
	return c.stream.Write(ctx, resp)
}

// Run reads messages from the stream until it closes or ctx is done,
// dispatching requests and notifications to the handler and resolving
// pending calls from responses. It returns the terminal read error (nil
// on ordinary closure).
func (c *conn) Run(ctx context.Context) error {
	err := c.readLoop(ctx)
	c.Close()
	c.doneOnce.Do(func() {
		c.runErr = err
		close(c.done)
	})
	return err
}

func (c *conn) readLoop(ctx context.Context) error {
	for {
		msg, err := c.stream.Read(ctx)
		if err != nil {
			if err == ErrClosed {
				return nil // the peer closed the stream
			}
			select {
			case <-c.closed:
				return nil // closed locally by Close
			default:
			}
			return err
		}
		switch m := msg.(type) {
		case *Request:
			c.dispatchRequest(ctx, m)
		case *Notification:
			if m.Method == notificationCancelled {
				var p CancelledParams
				if json.Unmarshal(m.Params, &p) == nil {
					c.handlingMu.Lock()
					cancel, ok := c.handling[p.RequestID]
					c.handlingMu.Unlock()
					if ok {
						cancel()
					}
				}
				continue
			}
			if m.Method == notificationProgress {
				var p ProgressParams
				if json.Unmarshal(m.Params, &p) == nil && p.ProgressToken != nil {
					c.progressMu.Lock()
					ch, ok := c.progress[progressKey(p.ProgressToken)]
					c.progressMu.Unlock()
					if ok {
						select {
						case ch <- &p:
						default:
						}
						continue
					}
				}
			}
			go c.handler.handleNotify(ctx, m)
		case *Response:
			c.pendingMu.Lock()
			ch, ok := c.pending[m.ID]
			c.pendingMu.Unlock()
			if !ok {
				continue // unknown id: drop and ignore, per errUnknownID's doc
			}
			ch <- m
		}
	}
}

// Wait blocks until Run returns (the stream closed or a read failed),
// and returns that terminal error.
func (c *conn) Wait() error {
	<-c.done
	return c.runErr
}

func (c *conn) dispatchRequest(ctx context.Context, req *Request) {
	taggedCtx := WithRelatedRequest(ctx, req.ID)
	reqCtx, cancel := context.WithCancel(taggedCtx)
	c.handlingMu.Lock()
	c.handling[req.ID] = cancel
	c.handlingMu.Unlock()

	go func() {
		defer func() {
			cancel()
			c.handlingMu.Lock()
			delete(c.handling, req.ID)
			c.handlingMu.Unlock()
		}()
		result, err := c.handler.handleRequest(reqCtx, req)
		if reqCtx.Err() != nil {
			// The request was cancelled (notifications/cancelled, or the
			// connection closed mid-handler): the caller has given up on
			// this id, so no reply is sent at all, not even an error
			// response.
			return
		}
		_ = c.reply(taggedCtx, req.ID, result, err)
	}()
}

// Close closes the underlying stream and fails all pending calls. It is
// safe to call more than once.
func (c *conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.stream.Close()
		c.pendingMu.Lock()
		for id, ch := range c.pending {
			ch <- &Response{ID: id, Error: ErrConnectionClosed}
		}
		c.pendingMu.Unlock()
	})
	return err
}

func marshalParams(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling params: %w", err)
	}
	return json.RawMessage(b), nil
}
