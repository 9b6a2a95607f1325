// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package auth

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// maxCachedTokens bounds the introspection-result cache; a gate fronting
// a busy endpoint shouldn't retain every bearer token it has ever seen.
const maxCachedTokens = 10_000

// cache memoizes introspection results for the shorter of the entry's own
// expiry and a ceiling TTL, so a revoked token is never trusted past the
// ceiling even if the introspection server is unreachable when it would
// otherwise be re-checked.
type cache struct {
	lru *expirable.LRU[string, *Introspection]
	ttl time.Duration
}

func newCache(ttl time.Duration) *cache {
	return &cache{
		lru: expirable.NewLRU[string, *Introspection](maxCachedTokens, nil, ttl),
		ttl: ttl,
	}
}

func (c *cache) get(token string) (*Introspection, bool) {
	in, ok := c.lru.Get(token)
	if !ok {
		return nil, false
	}
	if !in.Expiry().IsZero() && time.Now().After(in.Expiry()) {
		c.lru.Remove(token)
		return nil, false
	}
	return in, true
}

func (c *cache) add(token string, in *Introspection) {
	c.lru.Add(token, in)
}
