// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonschema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// A Resolved schema is ready for repeated use against instance data. This
// subset has no $ref to chase, so resolving is just a wrapper: it exists so
// that callers needn't distinguish "validate against a Schema" from
// "validate against a Schema reachable only after following references",
// matching the shape of a resolver that does have references to chase.
type Resolved struct {
	schema   *Schema
	cache    *Cache
	schemaID uint64
}

// Resolve prepares s for validation. It never fails for this schema subset
// (there are no external references to fetch) but returns an error to keep
// the same signature as a resolver that could.
func (s *Schema) Resolve() (*Resolved, error) {
	if s == nil {
		s = &Schema{}
	}
	return &Resolved{schema: s}, nil
}

// Schema returns the schema r was resolved from.
func (r *Resolved) Schema() *Schema { return r.schema }

// WithCache attaches a validation-result cache to r; subsequent Validate
// calls look up (and populate) it instead of always revalidating.
func (r *Resolved) WithCache(c *Cache) *Resolved {
	r.cache = c
	r.schemaID = HashSchema(r.schema)
	return r
}

// ApplyDefaults is a no-op: the spec's schema keyword subset has no
// "default" keyword, so there is nothing to fill in.
func (r *Resolved) ApplyDefaults(v any) error { return nil }

// Validate checks the JSON encoding of v against r's schema. v is
// marshalled and re-decoded into the any/map/slice shape [Schema.Validate]
// expects, then validated; all violated rules are joined into one error.
func (r *Resolved) Validate(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("jsonschema: marshaling value to validate: %w", err)
	}
	return r.ValidateRaw(data)
}

// ValidateRaw validates the already-encoded JSON value data, consulting the
// cache if one is attached.
func (r *Resolved) ValidateRaw(data json.RawMessage) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("jsonschema: decoding value to validate: %w", err)
	}
	if r.cache != nil {
		return joinErrs(r.cache.Validate(v, r.schema, r.schemaID))
	}
	return joinErrs(r.schema.Validate(v))
}

func joinErrs(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(errs, "; "))
}
