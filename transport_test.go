// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDecodeMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"request", &Request{ID: Int64ID(1), Method: "tools/list", Params: []byte(`{"cursor":"x"}`)}},
		{"request no params", &Request{ID: StringID("abc"), Method: "ping"}},
		{"notification", &Notification{Method: "notifications/progress", Params: []byte(`{"progressToken":1}`)}},
		{"response result", &Response{ID: Int64ID(2), Result: []byte(`{"ok":true}`)}},
		{"response error", &Response{ID: Int64ID(3), Error: &WireError{Code: CodeInvalidRequest, Message: "bad"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeMessage(tt.msg)
			if err != nil {
				t.Fatalf("EncodeMessage() failed: %v", err)
			}
			got, err := DecodeMessage(data)
			if err != nil {
				t.Fatalf("DecodeMessage() failed: %v", err)
			}
			if diff := cmp.Diff(tt.msg, got, cmp.AllowUnexported(ID{})); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeMessageRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `not json at all`},
		{"wrong version", `{"jsonrpc":"1.0","method":"ping"}`},
		{"neither request response nor notification", `{"jsonrpc":"2.0"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeMessage([]byte(tt.data)); err == nil {
				t.Error("DecodeMessage() succeeded, want error")
			}
		})
	}
}

func TestDecodeBodySingle(t *testing.T) {
	data := []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	batch, err := DecodeBody(data)
	if err != nil {
		t.Fatalf("DecodeBody() failed: %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("DecodeBody() returned %d messages, want 1", len(batch))
	}
	req, ok := batch[0].(*Request)
	if !ok {
		t.Fatalf("batch[0] has type %T, want *Request", batch[0])
	}
	if req.Method != "ping" {
		t.Errorf("req.Method = %q, want %q", req.Method, "ping")
	}
}

func TestDecodeBodyBatch(t *testing.T) {
	data := []byte(`[
		{"jsonrpc":"2.0","id":1,"method":"ping"},
		{"jsonrpc":"2.0","method":"notifications/cancelled"},
		{"jsonrpc":"2.0","id":2,"result":{}}
	]`)
	batch, err := DecodeBody(data)
	if err != nil {
		t.Fatalf("DecodeBody() failed: %v", err)
	}
	if len(batch) != 3 {
		t.Fatalf("DecodeBody() returned %d messages, want 3", len(batch))
	}
	if _, ok := batch[0].(*Request); !ok {
		t.Errorf("batch[0] has type %T, want *Request", batch[0])
	}
	if _, ok := batch[1].(*Notification); !ok {
		t.Errorf("batch[1] has type %T, want *Notification", batch[1])
	}
	if _, ok := batch[2].(*Response); !ok {
		t.Errorf("batch[2] has type %T, want *Response", batch[2])
	}
}

func TestDecodeBodyRejectsEmpty(t *testing.T) {
	for _, data := range []string{``, `   `, `[]`} {
		if _, err := DecodeBody([]byte(data)); err == nil {
			t.Errorf("DecodeBody(%q) succeeded, want error", data)
		}
	}
}

func TestDecodeBodyPropagatesElementError(t *testing.T) {
	data := []byte(`[{"jsonrpc":"2.0","id":1,"method":"ping"}, {"jsonrpc":"1.0"}]`)
	if _, err := DecodeBody(data); err == nil {
		t.Error("DecodeBody() succeeded, want error from malformed batch element")
	}
}
