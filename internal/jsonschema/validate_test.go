// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonschema

import "testing"

func f64(f float64) *float64 { return &f }
func ival(i int) *int        { return &i }

func TestValidateString(t *testing.T) {
	s := &Schema{Type: "string", MinLength: ival(2), MaxLength: ival(4), Pattern: "^[a-z]+$"}
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"ab", false},
		{"abcd", false},
		{"a", true},      // too short
		{"abcde", true},  // too long
		{"AB", true},     // pattern mismatch
	}
	for _, tt := range tests {
		if errs := s.Validate(tt.in); (len(errs) > 0) != tt.wantErr {
			t.Errorf("Validate(%q) errs = %v, wantErr %v", tt.in, errs, tt.wantErr)
		}
	}
}

func TestValidateNumber(t *testing.T) {
	s := &Schema{Type: "number", Minimum: f64(0), Maximum: f64(10)}
	for _, tt := range []struct {
		in      float64
		wantErr bool
	}{
		{5, false},
		{0, false},
		{10, false},
		{-1, true},
		{11, true},
	} {
		if errs := s.Validate(tt.in); (len(errs) > 0) != tt.wantErr {
			t.Errorf("Validate(%v) errs = %v, wantErr %v", tt.in, errs, tt.wantErr)
		}
	}

	integer := &Schema{Type: "integer"}
	if errs := integer.Validate(3.5); len(errs) == 0 {
		t.Error("integer schema accepted a non-integral value")
	}
}

func TestValidateArray(t *testing.T) {
	s := &Schema{Type: "array", MinItems: ival(1), MaxItems: ival(2), Items: &Schema{Type: "string"}}
	if errs := s.Validate([]any{"a"}); len(errs) != 0 {
		t.Errorf("valid array rejected: %v", errs)
	}
	if errs := s.Validate([]any{}); len(errs) == 0 {
		t.Error("empty array under minItems accepted")
	}
	if errs := s.Validate([]any{"a", "b", "c"}); len(errs) == 0 {
		t.Error("array over maxItems accepted")
	}
	if errs := s.Validate([]any{"a", 1.0}); len(errs) == 0 {
		t.Error("array with a wrong-typed element accepted")
	}
}

func TestValidateObject(t *testing.T) {
	s := Object(map[string]string{"name": "string", "age": "integer"}, []string{"name"})
	if errs := s.Validate(map[string]any{"name": "a"}); len(errs) != 0 {
		t.Errorf("valid object rejected: %v", errs)
	}
	if errs := s.Validate(map[string]any{"age": 3.0}); len(errs) == 0 {
		t.Error("object missing a required property accepted")
	}
	if errs := s.Validate(map[string]any{"name": "a", "extra": 1.0}); len(errs) == 0 {
		t.Error("object with an unlisted property accepted despite additionalProperties:false")
	}
}

func TestValidateEnum(t *testing.T) {
	s := &Schema{Enum: []any{"red", "green", "blue"}}
	if errs := s.Validate("red"); len(errs) != 0 {
		t.Errorf("enum member rejected: %v", errs)
	}
	if errs := s.Validate("purple"); len(errs) == 0 {
		t.Error("non-enum value accepted")
	}
}

func TestValidateComposition(t *testing.T) {
	anyOf := &Schema{AnyOf: []*Schema{{Type: "string"}, {Type: "integer"}}}
	if errs := anyOf.Validate("x"); len(errs) != 0 {
		t.Errorf("anyOf rejected a matching string: %v", errs)
	}
	if errs := anyOf.Validate(true); len(errs) == 0 {
		t.Error("anyOf accepted a value matching neither branch")
	}

	oneOf := &Schema{OneOf: []*Schema{{Minimum: f64(0)}, {Maximum: f64(10)}}}
	if errs := oneOf.Validate(5.0); len(errs) == 0 {
		t.Error("oneOf accepted a value matching both branches")
	}
	if errs := oneOf.Validate(-5.0); len(errs) != 0 {
		t.Errorf("oneOf rejected a value matching exactly one branch: %v", errs)
	}

	not := &Schema{Not: &Schema{Type: "string"}}
	if errs := not.Validate(1.0); len(errs) != 0 {
		t.Errorf("not-string rejected a number: %v", errs)
	}
	if errs := not.Validate("x"); len(errs) == 0 {
		t.Error("not-string accepted a string")
	}

	ifThenElse := &Schema{
		If:   &Schema{Type: "string"},
		Then: &Schema{MinLength: ival(3)},
		Else: &Schema{Minimum: f64(0)},
	}
	if errs := ifThenElse.Validate("ab"); len(errs) == 0 {
		t.Error("if/then branch not enforced for a string under minLength")
	}
	if errs := ifThenElse.Validate(-1.0); len(errs) == 0 {
		t.Error("if/else branch not enforced for a negative number")
	}
}
