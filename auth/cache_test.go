// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package auth

import (
	"testing"
	"time"
)

func TestCacheGetAdd(t *testing.T) {
	c := newCache(time.Minute)

	if _, ok := c.get("tok"); ok {
		t.Fatal("get on empty cache returned ok=true")
	}

	want := &Introspection{Active: true, ClientID: "client-1", Scope: "a b"}
	c.add("tok", want)

	got, ok := c.get("tok")
	if !ok {
		t.Fatal("get after add returned ok=false")
	}
	if got != want {
		t.Errorf("get returned %+v, want the same pointer as added (%+v)", got, want)
	}
}

func TestCacheExpiredEntryEvicted(t *testing.T) {
	c := newCache(time.Minute)

	expired := &Introspection{Active: true, ExpiresAt: time.Now().Add(-time.Hour).Unix()}
	c.add("expired", expired)

	if _, ok := c.get("expired"); ok {
		t.Error("get returned an entry past its own exp claim")
	}
	// The entry should also be gone from the underlying LRU, not just
	// masked: a second get must still report a miss.
	if _, ok := c.get("expired"); ok {
		t.Error("get returned ok=true on second lookup after eviction")
	}
}

func TestCacheNoExpiryClaim(t *testing.T) {
	c := newCache(time.Minute)

	// ExpiresAt left zero means the introspection response carried no exp
	// claim; such an entry is trusted until the cache's own TTL evicts it.
	in := &Introspection{Active: true}
	c.add("no-exp", in)

	got, ok := c.get("no-exp")
	if !ok || got != in {
		t.Errorf("get(%q) = %+v, %v, want %+v, true", "no-exp", got, ok, in)
	}
}

func TestCacheTTLEviction(t *testing.T) {
	c := newCache(10 * time.Millisecond)
	c.add("tok", &Introspection{Active: true})

	time.Sleep(50 * time.Millisecond)

	if _, ok := c.get("tok"); ok {
		t.Error("get returned an entry past the cache's own TTL")
	}
}
