// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"fmt"
	"reflect"

	"github.com/coreproto/mcp/internal/jsonschema"
	"github.com/coreproto/mcp/internal/util"
)

// A PromptHandler answers a call to prompts/get, producing the rendered
// message list for one set of named string arguments.
type PromptHandler func(ctx context.Context, ss *ServerSession, params *GetPromptParams) (*GetPromptResult, error)

// A ServerPrompt associates a Prompt with its handler.
type ServerPrompt struct {
	Prompt  Prompt
	Handler PromptHandler
}

// MakePrompt builds a ServerPrompt whose argument list is inferred by
// reflection over TReq, a struct of string fields. handler receives the
// arguments already bound into TReq rather than the raw
// map[string]string the wire carries.
//
// TReq must be a struct type whose JSON Schema (via [jsonschema.For]) is
// a flat object of string properties; MakePrompt panics otherwise, since
// that mismatch can only be a programming error, not bad input.
func MakePrompt[TReq any](name, description string, handler func(context.Context, *ServerSession, TReq) (*GetPromptResult, error), opts ...PromptOption) *ServerPrompt {
	schema, err := jsonschema.For[TReq]()
	if err != nil {
		panic(fmt.Errorf("MakePrompt(%q): %w", name, err))
	}
	if schema.Type != "object" {
		panic(fmt.Errorf("MakePrompt(%q): TReq must describe a JSON object, got %q", name, schema.Type))
	}
	for pname, pschema := range schema.Properties {
		if pschema.Type != "string" {
			panic(fmt.Errorf("MakePrompt(%q): argument %q must be a string, got %q", name, pname, pschema.Type))
		}
	}

	p := &ServerPrompt{
		Prompt: Prompt{Name: name, Description: description},
	}
	required := make(map[string]bool, len(schema.Required))
	for _, r := range schema.Required {
		required[r] = true
	}
	for pname, pschema := range util.Sorted(schema.Properties) {
		p.Prompt.Arguments = append(p.Prompt.Arguments, &PromptArgument{
			Name:        pname,
			Description: pschema.Description,
			Required:    required[pname],
		})
	}
	for _, opt := range opts {
		opt.set(p)
	}

	reqType := reflect.TypeFor[TReq]()
	p.Handler = func(ctx context.Context, ss *ServerSession, params *GetPromptParams) (*GetPromptResult, error) {
		reqVal := reflect.New(reqType).Elem()
		for i := range reqType.NumField() {
			field := reqType.Field(i)
			info := util.FieldJSONInfo(field)
			if info.Omit {
				continue
			}
			if v, ok := params.Arguments[info.Name]; ok {
				reqVal.Field(i).SetString(v)
			} else if required[info.Name] {
				return nil, errInvalidParams("missing required argument %q", info.Name)
			}
		}
		return handler(ctx, ss, reqVal.Interface().(TReq))
	}
	return p
}

// A PromptOption configures a [ServerPrompt] under construction by
// [MakePrompt].
type PromptOption interface {
	set(*ServerPrompt)
}

type promptSetter func(*ServerPrompt)

func (s promptSetter) set(p *ServerPrompt) { s(p) }

// Argument configures the prompt argument named name, which must already
// exist in the argument list inferred from TReq.
func Argument(name string, opts ...ArgumentOption) PromptOption {
	return promptSetter(func(p *ServerPrompt) {
		var arg *PromptArgument
		for _, a := range p.Prompt.Arguments {
			if a.Name == name {
				arg = a
				break
			}
		}
		if arg == nil {
			panic(fmt.Errorf("mcp: Argument(%q): no such argument", name))
		}
		for _, opt := range opts {
			opt.setArgument(arg)
		}
	})
}

// An ArgumentOption configures one [PromptArgument] via [Argument].
// [Required] and [Description] both implement ArgumentOption as well as
// [SchemaOption], so the same option values work for tool properties and
// prompt arguments.
type ArgumentOption interface {
	setArgument(*PromptArgument)
}

func (r required) setArgument(a *PromptArgument)    { a.Required = bool(r) }
func (d description) setArgument(a *PromptArgument) { a.Description = string(d) }
