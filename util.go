// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/coreproto/mcp/internal/util"
)

func assert(cond bool, msg string) {
	if !cond {
		panic(msg)
	}
}

const base32alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// randText returns a random, URL-safe identifier suitable for a session id
// or an SSE stream id: ⌈log₃₂ 2¹²⁸⌉ = 26 characters of entropy.
func randText() string {
	src := make([]byte, 26)
	if _, err := rand.Read(src); err != nil {
		panic(err) // crypto/rand.Read only fails if the OS RNG is broken
	}
	for i := range src {
		src[i] = base32alphabet[src[i]%32]
	}
	return string(src)
}

// marshalStructWithMap marshals *s to JSON, splicing the contents of the
// field named mapField (a map[string]any with an "omitempty" tag) in as
// top-level object members, so that a free-form map travels alongside
// the struct's named fields without a nested wrapper.
func marshalStructWithMap[T any](s *T, mapField string) ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	s2 := *s
	vMapField := reflect.ValueOf(&s2).Elem().FieldByName(mapField)
	mapVal := vMapField.Interface().(map[string]any)

	names := jsonNames(reflect.TypeFor[T]())
	for key := range mapVal {
		if names[key] {
			return nil, fmt.Errorf("map key %q duplicates struct field", key)
		}
	}

	vMapField.Set(reflect.Zero(vMapField.Type()))
	structBytes, err := json.Marshal(s2)
	if err != nil {
		return nil, fmt.Errorf("marshalStructWithMap(%+v): %w", s, err)
	}
	if len(mapVal) == 0 {
		return structBytes, nil
	}
	mapBytes, err := json.Marshal(mapVal)
	if err != nil {
		return nil, err
	}
	if len(structBytes) == 2 { // "{}"
		return mapBytes, nil
	}
	res := append(structBytes[:len(structBytes)-1], ',')
	res = append(res, mapBytes[1:]...)
	return res, nil
}

// unmarshalStructWithMap is the inverse of marshalStructWithMap.
func unmarshalStructWithMap[T any](data []byte, v *T, mapField string) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for n := range jsonNames(reflect.TypeFor[T]()) {
		delete(m, n)
	}
	if len(m) != 0 {
		reflect.ValueOf(v).Elem().FieldByName(mapField).Set(reflect.ValueOf(m))
	}
	return nil
}

var jsonNamesMap sync.Map // reflect.Type -> map[string]bool

// jsonNames returns the set of JSON object keys that t, a struct type,
// will marshal into.
func jsonNames(t reflect.Type) map[string]bool {
	if val, ok := jsonNamesMap.Load(t); ok {
		return val.(map[string]bool)
	}
	m := map[string]bool{}
	for i := range t.NumField() {
		info := util.FieldJSONInfo(t.Field(i))
		if !info.Omit {
			m[info.Name] = true
		}
	}
	jsonNamesMap.Store(t, m)
	return m
}
