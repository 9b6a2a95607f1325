// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jsonschema implements the subset of JSON Schema needed for validating tools/call arguments: type, properties,
// required, additionalProperties, items, minimum, maximum, minLength,
// maxLength, pattern, enum, minItems, maxItems, anyOf, oneOf, allOf, not,
// and if/then/else. It intentionally does not implement $ref resolution,
// $dynamicRef, format, or the other parts of the 2020-12 vocabulary that
// full JSON Schema engines support — tool schemas are self-contained object descriptions, not
// cross-referencing document graphs.
package jsonschema

import (
	"encoding/json"
	"fmt"
)

// A Schema is a JSON Schema value restricted to the validation keywords
// this package implements. As in full JSON Schema, a bare Schema{} (no keyword
// set) validates every instance.
type Schema struct {
	Type                 string             `json:"type,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	Minimum              *float64           `json:"minimum,omitempty"`
	Maximum              *float64           `json:"maximum,omitempty"`
	MinLength            *int               `json:"minLength,omitempty"`
	MaxLength            *int               `json:"maxLength,omitempty"`
	Pattern              string             `json:"pattern,omitempty"`
	Enum                 []any              `json:"enum,omitempty"`
	MinItems             *int               `json:"minItems,omitempty"`
	MaxItems             *int               `json:"maxItems,omitempty"`
	AnyOf                []*Schema          `json:"anyOf,omitempty"`
	OneOf                []*Schema          `json:"oneOf,omitempty"`
	AllOf                []*Schema          `json:"allOf,omitempty"`
	Not                  *Schema            `json:"not,omitempty"`
	If                   *Schema            `json:"if,omitempty"`
	Then                 *Schema            `json:"then,omitempty"`
	Else                 *Schema            `json:"else,omitempty"`

	Description string `json:"description,omitempty"`
}

// additionalPropertiesFalse is the shallow sentinel meaning "no other
// properties are allowed": a schema's AdditionalProperties field set to
// this value forbids extra object keys.
var additionalPropertiesFalse = &Schema{Not: &Schema{}}

// Object builds a flat object schema from a field-name-to-JSON-type map
// and a required list, for callers that already know their shape rather
// than deriving it from a Go type via [For].
func Object(fields map[string]string, required []string) *Schema {
	props := make(map[string]*Schema, len(fields))
	for name, typ := range fields {
		props[name] = &Schema{Type: typ}
	}
	return &Schema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: additionalPropertiesFalse,
	}
}

// ToJSON renders s, treating a nil *Schema as the empty schema {}.
func ToJSON(s *Schema) (json.RawMessage, error) {
	if s == nil {
		return json.RawMessage("{}"), nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// Validate checks data (already unmarshalled via encoding/json, so the
// usual map[string]any / []any / string / float64 / bool / nil value
// shapes) against s, returning the list of violated-rule messages. A nil
// or empty slice means data is valid.
func (s *Schema) Validate(data any) []string {
	st := &validator{}
	st.validate(data, s, "")
	return st.errs
}

type validator struct {
	errs []string
}

func (v *validator) fail(path, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if path != "" {
		msg = path + ": " + msg
	}
	v.errs = append(v.errs, msg)
}
