// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file infers a Schema from a Go type, for tool and prompt argument
// types built with reflection instead of a hand-written schema.

package jsonschema

import (
	"fmt"
	"reflect"

	"github.com/coreproto/mcp/internal/util"
)

// For builds the schema describing the JSON encoding of T.
//
// Structs become "object" schemas: exported fields become properties named
// by their json tag (or field name), required unless the tag carries
// "omitempty"; unexported fields are skipped. Slices and arrays become
// "array" schemas with an Items schema; string-keyed maps become "object"
// schemas with AdditionalProperties; booleans, integers, floats and
// strings map to the matching JSON Schema primitive type, and interface
// types to an unrestricted schema. Any other kind (channels, functions,
// complex numbers, non-string map keys) is an error.
func For[T any]() (*Schema, error) {
	return ForType(reflect.TypeFor[T]())
}

// ForType is the reflect.Type-driven form of [For].
func ForType(t reflect.Type) (*Schema, error) {
	return typeSchema(t, make(map[reflect.Type]*Schema))
}

func typeSchema(t reflect.Type, seen map[reflect.Type]*Schema) (*Schema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if s, ok := seen[t]; ok {
		return s, nil
	}
	s := new(Schema)
	seen[t] = s

	switch t.Kind() {
	case reflect.Bool:
		s.Type = "boolean"

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		s.Type = "integer"

	case reflect.Float32, reflect.Float64:
		s.Type = "number"

	case reflect.String:
		s.Type = "string"

	case reflect.Interface:
		// any: unrestricted schema.

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("jsonschema: map key type %v is not string", t.Key())
		}
		elemSchema, err := typeSchema(t.Elem(), seen)
		if err != nil {
			return nil, fmt.Errorf("jsonschema: map value: %w", err)
		}
		s.Type = "object"
		s.AdditionalProperties = elemSchema

	case reflect.Slice, reflect.Array:
		elemSchema, err := typeSchema(t.Elem(), seen)
		if err != nil {
			return nil, fmt.Errorf("jsonschema: element: %w", err)
		}
		s.Type = "array"
		s.Items = elemSchema
		if t.Kind() == reflect.Array {
			n := t.Len()
			s.MinItems, s.MaxItems = &n, &n
		}

	case reflect.Struct:
		s.Type = "object"
		s.AdditionalProperties = additionalPropertiesFalse
		for i := range t.NumField() {
			field := t.Field(i)
			info := util.FieldJSONInfo(field)
			if info.Omit {
				continue
			}
			propSchema, err := typeSchema(field.Type, seen)
			if err != nil {
				return nil, fmt.Errorf("jsonschema: field %s: %w", field.Name, err)
			}
			if s.Properties == nil {
				s.Properties = make(map[string]*Schema)
			}
			s.Properties[info.Name] = propSchema
			if !info.Settings["omitempty"] && !info.Settings["omitzero"] {
				s.Required = append(s.Required, info.Name)
			}
		}

	default:
		return nil, fmt.Errorf("jsonschema: type %v is not representable", t)
	}
	return s, nil
}
