// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"testing"
	"time"
)

func TestResourceSubscribeUnsubscribe(t *testing.T) {
	ctx := context.Background()
	ct, st := NewInMemoryTransports()

	s := NewServer(Implementation{Name: "testServer", Version: "v1"}, nil)
	s.AddResources(infoResource)
	ss, err := s.Connect(ctx, st)
	if err != nil {
		t.Fatal(err)
	}
	defer ss.Close()

	updates := make(chan string, 10)
	c := NewClient(Implementation{Name: "testClient", Version: "v1"}, &ClientOptions{
		ResourceUpdatedHandler: func(_ context.Context, _ *ClientSession, uri string) { updates <- uri },
	})
	cs, err := c.Connect(ctx, ct)
	if err != nil {
		t.Fatal(err)
	}
	defer cs.Close()

	// Subscribing to an unknown resource fails with ResourceNotFound.
	err = cs.Subscribe(ctx, &SubscribeParams{URI: "file:///does-not-exist.txt"})
	if code := errorCode(err); code != CodeResourceNotFound {
		t.Fatalf("Subscribe(unknown) error = %v, want code %d", err, CodeResourceNotFound)
	}

	if err := cs.Subscribe(ctx, &SubscribeParams{URI: infoResource.Resource.URI}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	s.ResourceUpdated(ctx, infoResource.Resource.URI)
	select {
	case uri := <-updates:
		if uri != infoResource.Resource.URI {
			t.Errorf("update for %q, want %q", uri, infoResource.Resource.URI)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for resources/updated notification")
	}

	if err := cs.Unsubscribe(ctx, &UnsubscribeParams{URI: infoResource.Resource.URI}); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}

	s.ResourceUpdated(ctx, infoResource.Resource.URI)
	select {
	case uri := <-updates:
		t.Fatalf("got unexpected update for %q after unsubscribe", uri)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestResourceSubscribeCleanupOnClose(t *testing.T) {
	ctx := context.Background()
	ct, st := NewInMemoryTransports()

	s := NewServer(Implementation{Name: "testServer", Version: "v1"}, nil)
	s.AddResources(infoResource)
	ss, err := s.Connect(ctx, st)
	if err != nil {
		t.Fatal(err)
	}

	c := NewClient(Implementation{Name: "testClient", Version: "v1"}, nil)
	cs, err := c.Connect(ctx, ct)
	if err != nil {
		t.Fatal(err)
	}
	if err := cs.Subscribe(ctx, &SubscribeParams{URI: infoResource.Resource.URI}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	cs.Close()
	if err := ss.Wait(); err != nil {
		t.Fatalf("server session wait: %v", err)
	}

	// unsubscribeAll runs just after Run returns, in the same goroutine
	// that closes the done channel Wait observes, so give it a moment.
	deadline := time.Now().Add(time.Second)
	for {
		s.mu.Lock()
		n := len(s.subscriptions[infoResource.Resource.URI])
		s.mu.Unlock()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Errorf("after session close, %d subscribers remain for %q, want 0", n, infoResource.Resource.URI)
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestResourceSubscribeCleanupOnRemove(t *testing.T) {
	ctx := context.Background()
	ct, st := NewInMemoryTransports()

	s := NewServer(Implementation{Name: "testServer", Version: "v1"}, nil)
	s.AddResources(infoResource)
	ss, err := s.Connect(ctx, st)
	if err != nil {
		t.Fatal(err)
	}
	defer ss.Close()

	c := NewClient(Implementation{Name: "testClient", Version: "v1"}, nil)
	cs, err := c.Connect(ctx, ct)
	if err != nil {
		t.Fatal(err)
	}
	defer cs.Close()

	if err := cs.Subscribe(ctx, &SubscribeParams{URI: infoResource.Resource.URI}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	s.RemoveResources(infoResource.Resource.URI)

	s.mu.Lock()
	n := len(s.subscriptions[infoResource.Resource.URI])
	s.mu.Unlock()
	if n != 0 {
		t.Errorf("after RemoveResources, %d subscribers remain for %q, want 0", n, infoResource.Resource.URI)
	}

	// A later subscription attempt for the same URI now fails, since the
	// resource is gone.
	err = cs.Subscribe(ctx, &SubscribeParams{URI: infoResource.Resource.URI})
	if code := errorCode(err); code != CodeResourceNotFound {
		t.Fatalf("Subscribe(removed) error = %v, want code %d", err, CodeResourceNotFound)
	}
}

func TestServerRejectsRequestBeforeInitialize(t *testing.T) {
	ctx := context.Background()
	ct, st := NewInMemoryTransports()

	s := NewServer(Implementation{Name: "testServer", Version: "v1"}, nil)
	ss, err := s.Connect(ctx, st)
	if err != nil {
		t.Fatal(err)
	}
	defer ss.Close()

	stream, err := ct.Connect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	raw := newConn(stream, &noopHandler{})
	defer raw.Close()
	go raw.Run(ctx)

	var result ListToolsResult
	err = raw.Call(ctx, methodListTools, &ListToolsParams{}, &result)
	if code := errorCode(err); code != CodeInvalidRequest {
		t.Fatalf("tools/list before initialize: error = %v, want code %d", err, CodeInvalidRequest)
	}

	var initResult InitializeResult
	if err := raw.Call(ctx, methodInitialize, &InitializeParams{ProtocolVersion: LatestProtocolVersion}, &initResult); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	err = raw.Call(ctx, methodInitialize, &InitializeParams{ProtocolVersion: LatestProtocolVersion}, &initResult)
	if code := errorCode(err); code != CodeInvalidRequest {
		t.Fatalf("second initialize: error = %v, want code %d", err, CodeInvalidRequest)
	}

	if err := raw.Call(ctx, methodListTools, &ListToolsParams{}, &result); err != nil {
		t.Fatalf("tools/list after initialize: %v", err)
	}
}

// noopHandler lets a bare conn stand in for a ClientSession in
// TestServerRejectsRequestBeforeInitialize, which only needs to issue
// requests, not answer any sent to it.
type noopHandler struct{}

func (noopHandler) handleRequest(ctx context.Context, req *Request) (any, error) {
	return nil, errMethodNotFound(req.Method)
}

func (noopHandler) handleNotify(ctx context.Context, n *Notification) {}
