// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func namedTool(name string) *ServerTool {
	return &ServerTool{Tool: &Tool{Name: name}}
}

var allTestTools = []*ServerTool{
	namedTool("alpha"), namedTool("bravo"), namedTool("charlie"), namedTool("delta"),
	namedTool("echo"), namedTool("foxtrot"), namedTool("golf"), namedTool("hotel"),
	namedTool("india"), namedTool("juliet"), namedTool("kilo"),
}

func toolNames(tools []*Tool) []string {
	var names []string
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return names
}

func TestServerPaginateBasic(t *testing.T) {
	testCases := []struct {
		name           string
		initialTools   []*ServerTool
		inputCursor    string
		inputPageSize  int
		wantNames      []string
		wantNextCursor string
		wantErr        bool
	}{
		{
			name:           "FirstPage_Full",
			initialTools:   allTestTools,
			inputPageSize:  5,
			wantNames:      toolNames(toolsOf(allTestTools[0:5])),
			wantNextCursor: encodeCursor("echo"),
		},
		{
			name:           "SecondPage_Full",
			initialTools:   allTestTools,
			inputCursor:    encodeCursor("echo"),
			inputPageSize:  5,
			wantNames:      toolNames(toolsOf(allTestTools[5:10])),
			wantNextCursor: encodeCursor("juliet"),
		},
		{
			name:           "SecondPage_OutOfOrder",
			initialTools:   append(slices.Clone(allTestTools[5:]), allTestTools[0:5]...),
			inputCursor:    encodeCursor("echo"),
			inputPageSize:  5,
			wantNames:      toolNames(toolsOf(allTestTools[5:10])),
			wantNextCursor: encodeCursor("juliet"),
		},
		{
			name:           "LastPage_Remaining",
			initialTools:   allTestTools,
			inputCursor:    encodeCursor("juliet"),
			inputPageSize:  5,
			wantNames:      toolNames(toolsOf(allTestTools[10:11])),
			wantNextCursor: "",
		},
		{
			name:           "PageSize_LargerThanAll",
			initialTools:   allTestTools,
			inputPageSize:  len(allTestTools) + 5,
			wantNames:      toolNames(toolsOf(allTestTools)),
			wantNextCursor: "",
		},
		{
			name:          "EmptySet",
			inputPageSize: 5,
		},
		{
			name:          "InvalidCursor",
			initialTools:  allTestTools,
			inputCursor:   "not-a-valid-cursor",
			inputPageSize: 5,
			wantErr:       true,
		},
		{
			name:           "AboveNonExistentID",
			initialTools:   allTestTools,
			inputCursor:    encodeCursor("dne"),
			inputPageSize:  5,
			wantNames:      toolNames(toolsOf(allTestTools[4:9])),
			wantNextCursor: encodeCursor("india"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fs := newFeatureSet(func(t *ServerTool) string { return t.Tool.Name })
			fs.add(tc.initialTools...)
			params := &ListToolsParams{Cursor: tc.inputCursor}
			got, err := paginateList(fs, tc.inputPageSize, params, func(t *ServerTool) *Tool { return t.Tool }, &ListToolsResult{})
			if (err != nil) != tc.wantErr {
				t.Fatalf("paginateList() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if diff := cmp.Diff(tc.wantNames, toolNames(got.Tools)); diff != "" {
				t.Errorf("paginateList() tools mismatch (-want +got):\n%s", diff)
			}
			if got.NextCursor != tc.wantNextCursor {
				t.Errorf("paginateList() nextCursor = %q, want %q", got.NextCursor, tc.wantNextCursor)
			}
		})
	}
}

func toolsOf(sts []*ServerTool) []*Tool {
	var out []*Tool
	for _, st := range sts {
		out = append(out, st.Tool)
	}
	return out
}

func TestServerPaginateVariousPageSizes(t *testing.T) {
	fs := newFeatureSet(func(t *ServerTool) string { return t.Tool.Name })
	fs.add(allTestTools...)
	wantNames := toolNames(toolsOf(allTestTools))

	for pageSize := 1; pageSize <= len(allTestTools); pageSize++ {
		var gotNames []string
		var cursor string
		for {
			res, err := paginateList(fs, pageSize, &ListToolsParams{Cursor: cursor}, func(t *ServerTool) *Tool { return t.Tool }, &ListToolsResult{})
			if err != nil {
				t.Fatalf("pageSize=%d cursor=%q: %v", pageSize, cursor, err)
			}
			gotNames = append(gotNames, toolNames(res.Tools)...)
			cursor = res.NextCursor
			if cursor == "" {
				break
			}
		}
		if diff := cmp.Diff(wantNames, gotNames); diff != "" {
			t.Errorf("pageSize=%d mismatch (-want +got):\n%s", pageSize, diff)
		}
	}
}
