// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonschema

import "testing"

func TestResolveNil(t *testing.T) {
	var s *Schema
	r, err := s.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if r.Schema() == nil {
		t.Fatal("Resolve() of a nil schema returned a nil Schema()")
	}
	if err := r.Validate("anything"); err != nil {
		t.Errorf("Validate() against the empty schema failed: %v", err)
	}
}

func TestResolvedValidate(t *testing.T) {
	s := Object(map[string]string{"name": "string"}, []string{"name"})
	r, err := s.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	if err := r.Validate(map[string]any{"name": "x"}); err != nil {
		t.Errorf("Validate() of a valid instance failed: %v", err)
	}
	if err := r.Validate(map[string]any{}); err == nil {
		t.Error("Validate() of an instance missing a required property succeeded")
	}
}

func TestResolvedValidateRaw(t *testing.T) {
	s := &Schema{Type: "string"}
	r, err := s.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	if err := r.ValidateRaw([]byte(`"ok"`)); err != nil {
		t.Errorf("ValidateRaw() of a valid instance failed: %v", err)
	}
	if err := r.ValidateRaw([]byte(`1`)); err == nil {
		t.Error("ValidateRaw() of a wrong-typed instance succeeded")
	}
	if err := r.ValidateRaw([]byte(`not json`)); err == nil {
		t.Error("ValidateRaw() of malformed JSON succeeded")
	}
}

func TestResolvedWithCache(t *testing.T) {
	s := &Schema{Type: "string"}
	r, err := s.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	r = r.WithCache(NewCache())

	if err := r.Validate("ok"); err != nil {
		t.Errorf("Validate() with a cache attached failed: %v", err)
	}
	// Validating the same value again must be consistent with the first
	// call, whether or not it was served from cache.
	if err := r.Validate("ok"); err != nil {
		t.Errorf("second Validate() with a cache attached failed: %v", err)
	}
	if err := r.Validate(1.0); err == nil {
		t.Error("Validate() of a wrong-typed instance succeeded with a cache attached")
	}
}
