// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonschema

import (
	"encoding/json"
	"hash/maphash"

	lru "github.com/hashicorp/golang-lru/v2"
)

// maxCacheEntries is the replacement limit this package bounds the
// validation result cache (~10,000 entries).
const maxCacheEntries = 10_000

var seed = maphash.MakeSeed()

// cacheKey is (hash(data), hash(schema)), keyed by data and schema identity.
type cacheKey struct {
	data   uint64
	schema uint64
}

// Cache memoizes Validate results keyed by the hash of the marshalled
// instance and the caller-supplied schemaID. It may be nil,
// in which case Validate always recomputes — caching is an optimization layered on a pure function, never a
// correctness requirement.
type Cache struct {
	lru *lru.Cache[cacheKey, []string]
}

// NewCache returns a validation-result cache bounded at the spec's
// default replacement limit.
func NewCache() *Cache {
	c, err := lru.New[cacheKey, []string](maxCacheEntries)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// maxCacheEntries never is.
		panic(err)
	}
	return &Cache{lru: c}
}

// Validate checks data against s, using c to memoize the result when c is
// non-nil. schemaID should be a value stable for the lifetime of s (the
// tool's Tool pointer address is suitable, since registries are immutable
// while running while a registry is immutable).
func (c *Cache) Validate(data any, s *Schema, schemaID uint64) []string {
	if c == nil {
		return s.Validate(data)
	}
	h, ok := hashValue(data)
	if !ok {
		return s.Validate(data)
	}
	key := cacheKey{data: h, schema: schemaID}
	if errs, ok := c.lru.Get(key); ok {
		return errs
	}
	errs := s.Validate(data)
	c.lru.Add(key, errs)
	return errs
}

// hashValue hashes the canonical JSON encoding of data. Re-marshalling is
// wasteful when the caller already holds the raw bytes; callers with raw
// bytes on hand should prefer hashBytes.
func hashValue(data any) (uint64, bool) {
	b, err := json.Marshal(data)
	if err != nil {
		// Unhashable input can't be cached; the caller validates it
		// directly instead.
		return 0, false
	}
	return hashBytes(b), true
}

func hashBytes(b []byte) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.Write(b)
	return h.Sum64()
}

// HashSchema returns a stable identity hash for a schema's JSON encoding,
// for use as the schemaID argument to Validate when the caller doesn't
// already have a stable pointer-derived id.
func HashSchema(s *Schema) uint64 {
	b, err := ToJSON(s)
	if err != nil {
		return 0
	}
	return hashBytes(b)
}
