// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func rootURIs(c *Client) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var uris []string
	for _, r := range c.roots.features {
		uris = append(uris, r.URI)
	}
	slices.Sort(uris)
	return uris
}

func TestClientAddRemoveRoots(t *testing.T) {
	c := NewClient(Implementation{Name: "client", Version: "v1"}, nil)
	if got := rootURIs(c); got != nil {
		t.Fatalf("new client has roots %v, want none", got)
	}

	c.AddRoots(&Root{URI: "file:///a"}, &Root{URI: "file:///b"})
	if diff := cmp.Diff([]string{"file:///a", "file:///b"}, rootURIs(c)); diff != "" {
		t.Errorf("after AddRoots, mismatch (-want +got):\n%s", diff)
	}

	c.RemoveRoots("file:///a")
	if diff := cmp.Diff([]string{"file:///b"}, rootURIs(c)); diff != "" {
		t.Errorf("after RemoveRoots, mismatch (-want +got):\n%s", diff)
	}
}

func TestClientConnectInitialize(t *testing.T) {
	ctx := t.Context()
	server := NewServer(Implementation{Name: "server", Version: "v1"}, nil)
	clientTransport, serverTransport := NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport)
	if err != nil {
		t.Fatal(err)
	}
	defer serverSession.Close()

	client := NewClient(Implementation{Name: "client", Version: "v1"}, nil)
	client.AddRoots(&Root{URI: "file:///project"})

	clientSession, err := client.Connect(ctx, clientTransport)
	if err != nil {
		t.Fatal(err)
	}
	defer clientSession.Close()

	res := clientSession.InitializeResult()
	if res == nil {
		t.Fatal("InitializeResult() = nil after successful Connect")
	}
	if res.ProtocolVersion != LatestProtocolVersion {
		t.Errorf("ProtocolVersion = %q, want %q", res.ProtocolVersion, LatestProtocolVersion)
	}
	if res.ServerInfo.Name != "server" {
		t.Errorf("ServerInfo.Name = %q, want %q", res.ServerInfo.Name, "server")
	}
}
