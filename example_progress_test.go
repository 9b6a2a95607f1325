// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp_test

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/coreproto/mcp"
)

var nextProgressToken atomic.Int64

// This middleware function adds a progress token to every outgoing request
// from the client.
func Example_progressMiddleware() {
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	server := mcp.NewServer(mcp.Implementation{Name: "test", Version: "v1"}, nil)
	go server.Connect(ctx, serverTransport)

	c := mcp.NewClient(mcp.Implementation{Name: "test", Version: "v1"}, nil)
	cs, err := c.Connect(ctx, clientTransport)
	if err != nil {
		panic(err)
	}
	cs.AddMiddleware(addProgressToken)
	_ = cs
}

func addProgressToken(h mcp.MethodHandler[*mcp.ClientSession]) mcp.MethodHandler[*mcp.ClientSession] {
	return func(ctx context.Context, cs *mcp.ClientSession, params mcp.Params) (mcp.Result, error) {
		if meta := params.GetMeta(); meta != nil {
			meta.ProgressToken = nextProgressToken.Add(1)
		}
		return h(ctx, cs, params)
	}
}

func countdownArgs(n int) map[string]any { return map[string]any{"n": n} }

type countdownParams struct {
	N int `json:"n"`
}

// countdown reports progress once per tick down to zero, then returns.
func countdown(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[countdownParams]) (*mcp.CallToolResultFor[any], error) {
	var token any
	if params.Meta != nil {
		token = params.Meta.ProgressToken
	}
	for i := params.Arguments.N; i > 0; i-- {
		if token != nil {
			if err := ss.NotifyProgress(ctx, &mcp.ProgressParams{
				ProgressToken: token,
				Progress:      float64(params.Arguments.N - i + 1),
				Total:         float64(params.Arguments.N),
			}); err != nil {
				return nil, err
			}
		}
	}
	return &mcp.CallToolResultFor[any]{Content: []*mcp.Content{mcp.NewTextContent("done")}}, nil
}

// ExampleClientSession_CallTool_progress demonstrates a client correlating
// notifications/progress events with the tool call that requested them via
// a progress token, per the engine's progress-token registration.
func ExampleClientSession_CallTool_progress() {
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	server := mcp.NewServer(mcp.Implementation{Name: "countdown", Version: "v1"}, nil)
	server.AddTools(mcp.NewServerTool("countdown", "report progress while counting down", countdown))
	serverSession, err := server.Connect(ctx, serverTransport)
	if err != nil {
		log.Fatal(err)
	}

	client := mcp.NewClient(mcp.Implementation{Name: "client", Version: "v1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport)
	if err != nil {
		log.Fatal(err)
	}

	var progressCount int
	_, err = clientSession.CallTool(ctx, "countdown", countdownArgs(3), &mcp.CallToolOptions{
		ProgressToken:          "countdown-1",
		ResetTimeoutOnProgress: true,
		Timeout:                5 * time.Second,
		OnProgress: func(p *mcp.ProgressParams) {
			progressCount++
		},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(progressCount)

	clientSession.Close()
	serverSession.Close()

	// Output: 3
}
