// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonschema

import (
	"fmt"
	"reflect"
	"regexp"
)

// validate implements the keyword subset documented on Schema. path is a
// dotted/bracketed pointer used only to make error messages locatable; it
// has no bearing on correctness.
func (v *validator) validate(data any, s *Schema, path string) {
	if s == nil {
		return // empty schema: always valid
	}

	if s.Type != "" && !typeMatches(s.Type, data) {
		v.fail(path, "want type %q, got %s", s.Type, describeType(data))
		// A type mismatch usually makes further structural checks
		// meaningless (e.g. checking .Properties against a string), so
		// stop here, matching how most JSON Schema validators short
		// circuit per-keyword-group on a type failure.
		return
	}

	if len(s.Enum) > 0 {
		if !enumContains(s.Enum, data) {
			v.fail(path, "value not in enum %v", s.Enum)
		}
	}

	switch d := data.(type) {
	case string:
		v.validateString(d, s, path)
	case float64:
		v.validateNumber(d, s, path)
	case []any:
		v.validateArray(d, s, path)
	case map[string]any:
		v.validateObject(d, s, path)
	}

	if len(s.AnyOf) > 0 {
		anyMatch := false
		for _, sub := range s.AnyOf {
			if validates(data, sub) {
				anyMatch = true
				break
			}
		}
		if !anyMatch {
			v.fail(path, "matches none of anyOf")
		}
	}

	if len(s.OneOf) > 0 {
		matches := 0
		for _, sub := range s.OneOf {
			if validates(data, sub) {
				matches++
			}
		}
		if matches != 1 {
			v.fail(path, "matched %d of oneOf, want exactly 1", matches)
		}
	}

	for _, sub := range s.AllOf {
		if !validates(data, sub) {
			v.fail(path, "fails allOf branch")
		}
	}

	if s.Not != nil && validates(data, s.Not) {
		v.fail(path, "must not match schema")
	}

	if s.If != nil {
		if validates(data, s.If) {
			v.validate(data, s.Then, path)
		} else {
			v.validate(data, s.Else, path)
		}
	}
}

// validates reports whether data satisfies s, with no side effects on the
// caller's error list — used by anyOf/oneOf/allOf/not/if, which only care
// about pass/fail of a sub-schema.
func validates(data any, s *Schema) bool {
	sub := &validator{}
	sub.validate(data, s, "")
	return len(sub.errs) == 0
}

func (v *validator) validateString(s string, sch *Schema, path string) {
	if sch.MinLength != nil && len(s) < *sch.MinLength {
		v.fail(path, "length %d less than minLength %d", len(s), *sch.MinLength)
	}
	if sch.MaxLength != nil && len(s) > *sch.MaxLength {
		v.fail(path, "length %d greater than maxLength %d", len(s), *sch.MaxLength)
	}
	if sch.Pattern != "" {
		re, err := regexp.Compile(sch.Pattern)
		if err != nil {
			v.fail(path, "invalid pattern %q: %v", sch.Pattern, err)
			return
		}
		if !re.MatchString(s) {
			v.fail(path, "does not match pattern %q", sch.Pattern)
		}
	}
}

func (v *validator) validateNumber(n float64, sch *Schema, path string) {
	if sch.Minimum != nil && n < *sch.Minimum {
		v.fail(path, "%v less than minimum %v", n, *sch.Minimum)
	}
	if sch.Maximum != nil && n > *sch.Maximum {
		v.fail(path, "%v greater than maximum %v", n, *sch.Maximum)
	}
	if sch.Type == "integer" && n != float64(int64(n)) {
		v.fail(path, "%v is not an integer", n)
	}
}

func (v *validator) validateArray(a []any, sch *Schema, path string) {
	if sch.MinItems != nil && len(a) < *sch.MinItems {
		v.fail(path, "length %d less than minItems %d", len(a), *sch.MinItems)
	}
	if sch.MaxItems != nil && len(a) > *sch.MaxItems {
		v.fail(path, "length %d greater than maxItems %d", len(a), *sch.MaxItems)
	}
	if sch.Items != nil {
		for i, item := range a {
			v.validate(item, sch.Items, fmt.Sprintf("%s[%d]", path, i))
		}
	}
}

func (v *validator) validateObject(m map[string]any, sch *Schema, path string) {
	for _, req := range sch.Required {
		if _, ok := m[req]; !ok {
			v.fail(path, "missing required property %q", req)
		}
	}
	for name, val := range m {
		if propSchema, ok := sch.Properties[name]; ok {
			v.validate(val, propSchema, joinPath(path, name))
			continue
		}
		if sch.AdditionalProperties != nil {
			if sch.AdditionalProperties.Not != nil && isEmptySchema(sch.AdditionalProperties.Not) {
				v.fail(path, "unexpected additional property %q", name)
				continue
			}
			v.validate(val, sch.AdditionalProperties, joinPath(path, name))
		}
	}
}

func isEmptySchema(s *Schema) bool {
	if s == nil {
		return false
	}
	return s.Type == "" && s.Properties == nil && s.Required == nil &&
		s.AdditionalProperties == nil && s.Items == nil &&
		s.Minimum == nil && s.Maximum == nil &&
		s.MinLength == nil && s.MaxLength == nil && s.Pattern == "" &&
		s.Enum == nil && s.MinItems == nil && s.MaxItems == nil &&
		s.AnyOf == nil && s.OneOf == nil && s.AllOf == nil &&
		s.Not == nil && s.If == nil && s.Then == nil && s.Else == nil &&
		s.Description == ""
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func typeMatches(typ string, data any) bool {
	switch typ {
	case "object":
		_, ok := data.(map[string]any)
		return ok
	case "array":
		_, ok := data.([]any)
		return ok
	case "string":
		_, ok := data.(string)
		return ok
	case "boolean":
		_, ok := data.(bool)
		return ok
	case "null":
		return data == nil
	case "number":
		_, ok := data.(float64)
		return ok
	case "integer":
		n, ok := data.(float64)
		return ok && n == float64(int64(n))
	default:
		return true
	}
}

func describeType(data any) string {
	switch data.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", data)
	}
}

func enumContains(enum []any, data any) bool {
	for _, e := range enum {
		if reflect.DeepEqual(e, data) {
			return true
		}
	}
	return false
}
