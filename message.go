// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
)

// An ID is a JSON-RPC request identifier: a string, an integer, or absent
// (the zero ID). IDs are compared by (kind, value); a string "1" and an
// integer 1 are distinct ids, matching the JSON-RPC 2.0 text.
type ID struct {
	value any // nil, int64, or string
}

// Int64ID constructs an integer request ID.
func Int64ID(i int64) ID { return ID{i} }

// StringID constructs a string request ID.
func StringID(s string) ID { return ID{s} }

// IsValid reports whether the ID is present (the engine never assigns the
// zero ID to a request it sends).
func (id ID) IsValid() bool { return id.value != nil }

// Raw returns the underlying value: nil, int64, or string.
func (id ID) Raw() any { return id.value }

func (id ID) String() string {
	switch v := id.value.(type) {
	case nil:
		return ""
	case int64:
		return fmt.Sprintf("%d", v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		id.value = nil
	case float64:
		id.value = int64(x)
	case string:
		id.value = x
	default:
		return fmt.Errorf("invalid request id: %s", data)
	}
	return nil
}

// Message is the tagged union at the heart of JSON-RPC 2.0: every wire
// value is exactly one of Request, Response (carrying either a result or
// an error), or Notification.
type Message interface {
	// isJSONRPC2Message is unexported so that Message is a closed set.
	isJSONRPC2Message()
}

// A Request is an outbound or inbound call expecting exactly one reply.
type Request struct {
	ID     ID              `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

func (*Request) isJSONRPC2Message() {}

// IsCall reports whether r expects a reply (it always does: Request is
// only ever constructed for calls; Notification is the no-reply case).
func (r *Request) IsCall() bool { return r.ID.IsValid() }

// A Notification is a one-way message: no id, no reply expected.
type Notification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

func (*Notification) isJSONRPC2Message() {}

// A Response terminates a Request, carrying either Result or Error but
// never both.
type Response struct {
	ID     ID              `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *WireError      `json:"error,omitempty"`
}

func (*Response) isJSONRPC2Message() {}

// wireMessage is the envelope actually serialized on the wire; it carries
// the jsonrpc version tag and enough fields to disambiguate Request from
// Notification from Response on decode.
type wireMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *WireError      `json:"error,omitempty"`
}

const jsonrpcVersion = "2.0"

// EncodeMessage serializes a single Message to its wire form.
func EncodeMessage(msg Message) ([]byte, error) {
	w := wireMessage{JSONRPC: jsonrpcVersion}
	switch m := msg.(type) {
	case *Request:
		id := m.ID
		w.ID = &id
		w.Method = m.Method
		w.Params = m.Params
	case *Notification:
		w.Method = m.Method
		w.Params = m.Params
	case *Response:
		id := m.ID
		w.ID = &id
		w.Result = m.Result
		w.Error = m.Error
		if w.Result == nil && w.Error == nil {
			w.Result = json.RawMessage("null")
		}
	default:
		return nil, fmt.Errorf("mcp: unsupported message type %T", msg)
	}
	return json.Marshal(w)
}

// DecodeMessage parses a single wire value into the appropriate Message
// concrete type, or a *WireError (CodeParseError/CodeInvalidRequest) if
// the bytes are not valid JSON or not a well-formed JSON-RPC value.
func DecodeMessage(data []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errParse(err)
	}
	if w.JSONRPC != jsonrpcVersion {
		return nil, errInvalidRequest("missing or invalid jsonrpc version: %q", w.JSONRPC)
	}
	switch {
	case w.Method != "" && w.ID == nil:
		return &Notification{Method: w.Method, Params: w.Params}, nil
	case w.Method != "" && w.ID != nil:
		return &Request{ID: *w.ID, Method: w.Method, Params: w.Params}, nil
	case w.ID != nil && (w.Result != nil || w.Error != nil):
		return &Response{ID: *w.ID, Result: w.Result, Error: w.Error}, nil
	default:
		return nil, errInvalidRequest("message is neither a request, a response, nor a notification")
	}
}

// Batch is a JSON array of Messages, accepted on streaming HTTP POST
// bodies. The stdio transport decodes each line as a single message and
// does not accept batches.
type Batch []Message

// DecodeBody decodes an HTTP POST body that may be a single JSON-RPC
// value or a JSON array of values (a batch). It never returns a zero
// length Batch for valid input: a lone object decodes as a one-element
// Batch.
func DecodeBody(data []byte) (Batch, error) {
	trimmed := trimLeadingSpace(data)
	if len(trimmed) == 0 {
		return nil, errInvalidRequest("empty message body")
	}
	if trimmed[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, errParse(err)
		}
		if len(raw) == 0 {
			return nil, errInvalidRequest("empty batch")
		}
		batch := make(Batch, 0, len(raw))
		for _, r := range raw {
			m, err := DecodeMessage(r)
			if err != nil {
				return nil, err
			}
			batch = append(batch, m)
		}
		return batch, nil
	}
	m, err := DecodeMessage(trimmed)
	if err != nil {
		return nil, err
	}
	return Batch{m}, nil
}

func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\n', '\r':
			i++
			continue
		}
		break
	}
	return b[i:]
}

// errUnknownID describes a Response whose id has no matching pending
// waiter. The conn's read loop drops such a response without logging it
// and without surfacing it to the host application.
var errUnknownID = errors.New("mcp: response with unknown id")
