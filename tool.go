// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/coreproto/mcp/internal/jsonschema"
)

// CallToolParamsFor is [CallToolParams] with its Arguments decoded into
// the handler's declared input type In, rather than left as
// json.RawMessage.
type CallToolParamsFor[In any] struct {
	Meta      *Meta  `json:"_meta,omitempty"`
	Name      string `json:"name"`
	Arguments In     `json:"arguments,omitempty"`
}

// CallToolResultFor is [CallToolResult] with its StructuredContent typed
// as Out.
type CallToolResultFor[Out any] struct {
	Meta              *Meta      `json:"_meta,omitempty"`
	Content           []*Content `json:"content"`
	StructuredContent Out        `json:"structuredContent,omitempty"`
	IsError           bool       `json:"isError,omitempty"`
}

// A ToolHandler handles a call to tools/call with untyped arguments: the
// schema is validated, but Arguments remains a map[string]any.
type ToolHandler func(context.Context, *ServerSession, *CallToolParamsFor[map[string]any]) (*CallToolResult, error)

// A ToolHandlerFor handles a call to tools/call with typed arguments and
// results, both derived from In and Out via reflection.
type ToolHandlerFor[In, Out any] func(context.Context, *ServerSession, *CallToolParamsFor[In]) (*CallToolResultFor[Out], error)

// rawToolHandler is the uniform shape every ServerTool reduces to, so
// that [ServerSession.callTool] can invoke any tool without knowing its
// concrete argument type.
type rawToolHandler func(ctx context.Context, ss *ServerSession, params *CallToolParams, cache *jsonschema.Cache) (*CallToolResult, error)

// A ServerTool is a tool definition bound to a handler.
type ServerTool struct {
	Tool    *Tool
	Handler ToolHandler

	rawHandler rawToolHandler
	schema     *jsonschema.Schema
	resolved   *jsonschema.Resolved
}

// NewServerTool builds a tool whose input schema is inferred by
// reflection over In. When called, CallToolParams.Arguments is decoded
// into (and validated against the schema of) In.
//
// Variadic [ToolOption] values customize the inferred schema or override
// it entirely via [Schema].
func NewServerTool[In, Out any](name, description string, handler ToolHandlerFor[In, Out], opts ...ToolOption) *ServerTool {
	st, err := newServerToolErr(name, description, handler, opts...)
	if err != nil {
		panic(fmt.Errorf("NewServerTool(%q): %w", name, err))
	}
	return st
}

func newServerToolErr[In, Out any](name, description string, handler ToolHandlerFor[In, Out], opts ...ToolOption) (*ServerTool, error) {
	schema, err := jsonschema.For[In]()
	if err != nil {
		return nil, err
	}

	t := &ServerTool{
		Tool: &Tool{
			Name:        name,
			Description: description,
		},
		schema: schema,
	}
	for _, opt := range opts {
		opt.set(t)
	}
	resolved, err := t.schema.Resolve()
	if err != nil {
		return nil, err
	}
	t.resolved = resolved
	raw, err := jsonschema.ToJSON(t.schema)
	if err != nil {
		return nil, err
	}
	t.Tool.InputSchema = raw

	t.rawHandler = func(ctx context.Context, ss *ServerSession, rparams *CallToolParams, cache *jsonschema.Cache) (*CallToolResult, error) {
		var args In
		if len(rparams.Arguments) > 0 {
			if err := unmarshalSchema(rparams.Arguments, t.resolved.WithCache(cache), &args); err != nil {
				return nil, errInvalidParams("%v", err)
			}
		}
		params := &CallToolParamsFor[In]{Meta: rparams.Meta, Name: rparams.Name, Arguments: args}
		res, err := handler(ctx, ss, params)
		if err != nil {
			return &CallToolResult{Content: []*Content{NewTextContent(err.Error())}, IsError: true}, nil
		}
		ctr := &CallToolResult{}
		if res != nil {
			ctr.Meta = res.Meta
			ctr.Content = res.Content
			ctr.IsError = res.IsError
			ctr.StructuredContent = res.StructuredContent
		}
		return ctr, nil
	}
	return t, nil
}

// newRawHandler builds a rawToolHandler for a [ServerTool] constructed
// directly (Tool + Handler set by hand) rather than via
// [NewServerTool], decoding arguments into a plain map.
func newRawHandler(st *ServerTool) rawToolHandler {
	if st.Handler == nil {
		panic("mcp: ServerTool.Handler is nil")
	}
	return func(ctx context.Context, ss *ServerSession, rparams *CallToolParams, cache *jsonschema.Cache) (*CallToolResult, error) {
		var args map[string]any
		if len(rparams.Arguments) > 0 {
			var resolved *jsonschema.Resolved
			if st.resolved != nil {
				resolved = st.resolved.WithCache(cache)
			}
			if err := unmarshalSchema(rparams.Arguments, resolved, &args); err != nil {
				return nil, errInvalidParams("%v", err)
			}
		}
		params := &CallToolParamsFor[map[string]any]{Meta: rparams.Meta, Name: rparams.Name, Arguments: args}
		res, err := st.Handler(ctx, ss, params)
		if err != nil {
			return &CallToolResult{Content: []*Content{NewTextContent(err.Error())}, IsError: true}, nil
		}
		return res, nil
	}
}

// unmarshalSchema decodes data into v, rejecting unknown fields so that a
// struct-shaped tool can't silently accept arguments its schema doesn't
// declare, then validates the decoded value against resolved (a no-op if
// resolved is nil).
func unmarshalSchema(data json.RawMessage, resolved *jsonschema.Resolved, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("unmarshaling arguments: %w", err)
	}
	if resolved != nil {
		if err := resolved.ApplyDefaults(v); err != nil {
			return fmt.Errorf("applying schema defaults: %w", err)
		}
		if err := resolved.Validate(v); err != nil {
			return fmt.Errorf("validating arguments: %w", err)
		}
	}
	return nil
}

// A ToolOption configures a [ServerTool] under construction.
type ToolOption interface {
	set(*ServerTool)
}

type toolSetter func(*ServerTool)

func (s toolSetter) set(t *ServerTool) { s(t) }

// Input applies [SchemaOption] configuration to the tool's inferred input
// schema.
func Input(opts ...SchemaOption) ToolOption {
	return toolSetter(func(t *ServerTool) {
		for _, opt := range opts {
			opt.set(t.schema)
		}
	})
}

// A SchemaOption configures a [jsonschema.Schema].
type SchemaOption interface {
	set(s *jsonschema.Schema)
}

type schemaSetter func(*jsonschema.Schema)

func (s schemaSetter) set(schema *jsonschema.Schema) { s(schema) }

// Property configures the schema of the named property, creating it if
// absent.
func Property(name string, opts ...SchemaOption) SchemaOption {
	return schemaSetter(func(schema *jsonschema.Schema) {
		if schema.Properties == nil {
			schema.Properties = make(map[string]*jsonschema.Schema)
		}
		propSchema, ok := schema.Properties[name]
		if !ok {
			propSchema = new(jsonschema.Schema)
			schema.Properties[name] = propSchema
		}
		for _, opt := range opts {
			if req, ok := opt.(required); ok {
				if bool(req) {
					if !slices.Contains(schema.Required, name) {
						schema.Required = append(schema.Required, name)
					}
				} else {
					schema.Required = slices.DeleteFunc(schema.Required, func(s string) bool { return s == name })
				}
				continue
			}
			opt.set(propSchema)
		}
	})
}

// Required sets whether the enclosing [Property] is required. Used
// outside of Property, it panics.
func Required(v bool) SchemaOption { return required(v) }

// required is a distinguished type so [Property] can special-case it
// (required lives on the parent schema, not the property's own schema).
type required bool

func (required) set(s *jsonschema.Schema) {
	panic("mcp: Required used outside of Property")
}

// Enum sets the schema's "enum" keyword.
func Enum(values ...any) SchemaOption {
	return schemaSetter(func(s *jsonschema.Schema) { s.Enum = values })
}

// Description sets the schema's description.
func Description(desc string) SchemaOption { return description(desc) }

// description is a distinguished type so prompt argument options can also
// accept it.
type description string

func (d description) set(s *jsonschema.Schema) { s.Description = string(d) }

// Schema overrides the inferred schema with a shallow copy of schema.
func Schema(schema *jsonschema.Schema) SchemaOption {
	return schemaSetter(func(s *jsonschema.Schema) { *s = *schema })
}
