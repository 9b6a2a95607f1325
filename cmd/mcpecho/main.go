// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The mcpecho command runs a minimal MCP server over stdio, exposing one
// "echo" tool, for exercising a client's stdio transport end to end.
package main

import (
	"context"
	"log"

	"github.com/coreproto/mcp"
)

type echoArgs struct {
	Text string `json:"text"`
}

func echo(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[echoArgs]) (*mcp.CallToolResultFor[any], error) {
	return &mcp.CallToolResultFor[any]{
		Content: []*mcp.Content{mcp.NewTextContent(params.Arguments.Text)},
	}, nil
}

func main() {
	server := mcp.NewServer(mcp.Implementation{Name: "mcpecho", Version: "v0.0.1"}, nil)
	server.AddTools(mcp.NewServerTool("echo", "echo the given text back", echo))

	if err := server.Run(context.Background(), mcp.NewStdioTransport()); err != nil {
		log.Fatal(err)
	}
}
