// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// A Client connects to one or more MCP servers, answering server-to-
// client requests (roots/list, sampling/createMessage) and relaying
// client-to-server calls through the [ClientSession] returned by
// [Client.Connect].
type Client struct {
	impl Implementation
	opts ClientOptions

	mu    sync.Mutex
	roots *featureSet[*Root]
}

// ClientOptions configures a [Client]'s behavior as the callee of
// server-initiated requests and notifications.
type ClientOptions struct {
	// CreateMessageHandler answers sampling/createMessage. If nil, the
	// client reports CodeUnsupportedMethod for that method.
	CreateMessageHandler func(ctx context.Context, cs *ClientSession, params *CreateMessageParams) (*CreateMessageResult, error)

	ToolListChangedHandler     func(ctx context.Context, cs *ClientSession)
	PromptListChangedHandler   func(ctx context.Context, cs *ClientSession)
	ResourceListChangedHandler func(ctx context.Context, cs *ClientSession)
	ResourceUpdatedHandler     func(ctx context.Context, cs *ClientSession, uri string)
	LoggingMessageHandler      func(ctx context.Context, cs *ClientSession, params *LoggingMessageParams)

	// ProgressHandler, if set, is called for inbound notifications/progress
	// events that don't correlate to a pending call this session's conn
	// issued.
	ProgressHandler func(ctx context.Context, cs *ClientSession, params *ProgressParams)
}

// NewClient creates a Client identifying itself with impl.
func NewClient(impl Implementation, opts *ClientOptions) *Client {
	c := &Client{
		impl:  impl,
		roots: newFeatureSet(func(r *Root) string { return r.URI }),
	}
	if opts != nil {
		c.opts = *opts
	}
	return c
}

// AddRoots adds root directories the client exposes to servers. Sessions
// that are already connected are not notified that the root list changed;
// they see the new roots on their next roots/list call.
func (c *Client) AddRoots(roots ...*Root) {
	c.mu.Lock()
	c.roots.add(roots...)
	c.mu.Unlock()
}

// RemoveRoots removes roots by URI.
func (c *Client) RemoveRoots(uris ...string) {
	c.mu.Lock()
	c.roots.remove(uris...)
	c.mu.Unlock()
}

// Connect dials t, performs the initialize handshake, and returns the
// resulting session. Connect blocks until the server has replied to
// initialize and the "initialized" notification has been sent.
func (c *Client) Connect(ctx context.Context, t Transport) (*ClientSession, error) {
	stream, err := t.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: connecting transport: %w", err)
	}
	cs := &ClientSession{client: c, stream: stream}
	cs.conn = newConn(stream, cs)
	go cs.conn.Run(context.Background())

	caps := ClientCapabilities{}
	if c.opts.CreateMessageHandler != nil {
		caps.Sampling = &struct{}{}
	}
	c.mu.Lock()
	hasRoots := len(c.roots.features) > 0
	c.mu.Unlock()
	if hasRoots {
		caps.Roots = &RootsCapability{ListChanged: true}
	}

	var result InitializeResult
	initParams := &InitializeParams{
		ProtocolVersion: LatestProtocolVersion,
		Capabilities:    caps,
		ClientInfo:      c.impl,
	}
	if err := cs.conn.Call(ctx, methodInitialize, initParams, &result); err != nil {
		cs.Close()
		return nil, fmt.Errorf("mcp: initialize: %w", err)
	}
	cs.initializeResult = &result
	if err := cs.conn.Notify(ctx, notificationInitialized, &InitializedParams{}); err != nil {
		cs.Close()
		return nil, fmt.Errorf("mcp: sending initialized notification: %w", err)
	}
	return cs, nil
}

// A ClientSession is one connection from a [Client] to a server.
type ClientSession struct {
	client *Client
	stream Stream
	conn   *conn

	initializeResult *InitializeResult

	mu         sync.Mutex
	middleware []Middleware[*ClientSession]
}

// InitializeResult returns the server's response to the handshake.
func (cs *ClientSession) InitializeResult() *InitializeResult { return cs.initializeResult }

// Close terminates the session.
func (cs *ClientSession) Close() error { return cs.conn.Close() }

// Wait blocks until the server terminates the connection, returning the
// terminal read error (nil on ordinary closure).
func (cs *ClientSession) Wait() error { return cs.conn.Wait() }

// AddMiddleware appends middleware to cs's method-handling chain (for
// requests the server sends to this client).
func (cs *ClientSession) AddMiddleware(mw ...Middleware[*ClientSession]) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.middleware = append(cs.middleware, mw...)
}

// Ping pings the server.
func (cs *ClientSession) Ping(ctx context.Context) error {
	return cs.conn.Call(ctx, methodPing, &PingParams{}, &emptyResult{})
}

// ListPrompts lists the prompts the server offers.
func (cs *ClientSession) ListPrompts(ctx context.Context, params *ListPromptsParams) (*ListPromptsResult, error) {
	if params == nil {
		params = &ListPromptsParams{}
	}
	var result ListPromptsResult
	if err := cs.conn.Call(ctx, methodListPrompts, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPrompt renders the named prompt with the given arguments.
func (cs *ClientSession) GetPrompt(ctx context.Context, params *GetPromptParams) (*GetPromptResult, error) {
	var result GetPromptResult
	if err := cs.conn.Call(ctx, methodGetPrompt, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListTools lists the tools the server offers.
func (cs *ClientSession) ListTools(ctx context.Context, params *ListToolsParams) (*ListToolsResult, error) {
	if params == nil {
		params = &ListToolsParams{}
	}
	var result ListToolsResult
	if err := cs.conn.Call(ctx, methodListTools, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CallToolOptions customizes a single [ClientSession.CallTool] call.
type CallToolOptions struct {
	// ProgressToken, if non-nil, requests progress notifications for
	// this call, correlated by the token.
	ProgressToken any

	// ResetTimeoutOnProgress resets Timeout each time a progress event
	// carrying ProgressToken arrives, up to MaxTotalTimeout.
	ResetTimeoutOnProgress bool

	// Timeout bounds how long to wait for the tool call's result; <= 0
	// uses the connection's default per-request timeout. Neither applies
	// when ctx already carries a deadline.
	Timeout time.Duration

	// MaxTotalTimeout, if > 0, caps the call's total lifetime regardless
	// of progress resets. Like Timeout, it is not applied when ctx already
	// carries a deadline.
	MaxTotalTimeout time.Duration

	// OnProgress, if non-nil, is called for every progress event
	// correlated with ProgressToken.
	OnProgress func(*ProgressParams)
}

// CallTool invokes the named tool with the given (already-encoded)
// arguments.
func (cs *ClientSession) CallTool(ctx context.Context, name string, arguments any, opts *CallToolOptions) (*CallToolResult, error) {
	args, err := marshalParams(arguments)
	if err != nil {
		return nil, err
	}
	params := &CallToolParams{Name: name, Arguments: args}
	callOpts := &CallOptions{}
	if opts != nil {
		if opts.ProgressToken != nil {
			params.Meta = &Meta{ProgressToken: opts.ProgressToken}
		}
		callOpts.ProgressToken = opts.ProgressToken
		callOpts.ResetTimeoutOnProgress = opts.ResetTimeoutOnProgress
		callOpts.Timeout = opts.Timeout
		callOpts.MaxTotalTimeout = opts.MaxTotalTimeout
		callOpts.OnProgress = opts.OnProgress
	}
	var result CallToolResult
	if err := cs.conn.CallOptions(ctx, methodCallTool, params, &result, callOpts); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListResources lists the server's concrete resources.
func (cs *ClientSession) ListResources(ctx context.Context, params *ListResourcesParams) (*ListResourcesResult, error) {
	if params == nil {
		params = &ListResourcesParams{}
	}
	var result ListResourcesResult
	if err := cs.conn.Call(ctx, methodListResources, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListResourceTemplates lists the server's resource templates.
func (cs *ClientSession) ListResourceTemplates(ctx context.Context, params *ListResourceTemplatesParams) (*ListResourceTemplatesResult, error) {
	if params == nil {
		params = &ListResourceTemplatesParams{}
	}
	var result ListResourceTemplatesResult
	if err := cs.conn.Call(ctx, methodListResourceTemplates, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReadResource reads the resource at uri.
func (cs *ClientSession) ReadResource(ctx context.Context, params *ReadResourceParams) (*ReadResourceResult, error) {
	var result ReadResourceResult
	if err := cs.conn.Call(ctx, methodReadResource, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Subscribe asks the server to send resources/updated notifications for uri.
func (cs *ClientSession) Subscribe(ctx context.Context, params *SubscribeParams) error {
	return cs.conn.Call(ctx, methodSubscribe, params, &emptyResult{})
}

// Unsubscribe cancels a prior Subscribe.
func (cs *ClientSession) Unsubscribe(ctx context.Context, params *UnsubscribeParams) error {
	return cs.conn.Call(ctx, methodUnsubscribe, params, &emptyResult{})
}

// SetLevel requests a minimum severity for logging notifications.
func (cs *ClientSession) SetLevel(ctx context.Context, level LoggingLevel) error {
	return cs.conn.Call(ctx, methodSetLevel, &SetLevelParams{Level: level}, &emptyResult{})
}

// NotifyProgress sends a progress update to the server for a token it
// supplied in a request's Meta.ProgressToken.
func (cs *ClientSession) NotifyProgress(ctx context.Context, params *ProgressParams) error {
	return cs.conn.Notify(ctx, notificationProgress, params)
}

func (cs *ClientSession) handleRequest(ctx context.Context, req *Request) (any, error) {
	cs.mu.Lock()
	mw := cs.middleware
	cs.mu.Unlock()
	return dispatch(ctx, cs, req.Method, req.Params, clientMethodInfos, mw)
}

func (cs *ClientSession) handleNotify(ctx context.Context, n *Notification) {
	dispatchNotify(ctx, cs, n.Method, n.Params, clientNotifyInfos)
}

var clientMethodInfos = map[string]methodInfo[*ClientSession]{
	methodPing:          newMethodInfo((*ClientSession).handlePing),
	methodListRoots:     newMethodInfo((*ClientSession).listRoots),
	methodCreateMessage: newMethodInfo((*ClientSession).createMessage),
}

var clientNotifyInfos = map[string]notifyInfo[*ClientSession]{
	notificationToolListChanged:     newNotifyInfo((*ClientSession).onToolListChanged),
	notificationPromptListChanged:   newNotifyInfo((*ClientSession).onPromptListChanged),
	notificationResourceListChanged: newNotifyInfo((*ClientSession).onResourceListChanged),
	notificationResourceUpdated:     newNotifyInfo((*ClientSession).onResourceUpdated),
	notificationLoggingMessage:      newNotifyInfo((*ClientSession).onLoggingMessage),
	notificationProgress:            newNotifyInfo((*ClientSession).onProgress),
}

func (cs *ClientSession) handlePing(ctx context.Context, params *PingParams) (*emptyResult, error) {
	return &emptyResult{}, nil
}

func (cs *ClientSession) listRoots(ctx context.Context, params *ListRootsParams) (*ListRootsResult, error) {
	cs.client.mu.Lock()
	defer cs.client.mu.Unlock()
	result := &ListRootsResult{}
	for r := range cs.client.roots.all() {
		result.Roots = append(result.Roots, r)
	}
	return result, nil
}

func (cs *ClientSession) createMessage(ctx context.Context, params *CreateMessageParams) (*CreateMessageResult, error) {
	h := cs.client.opts.CreateMessageHandler
	if h == nil {
		return nil, newError(CodeUnsupportedMethod, "client does not support sampling")
	}
	return h(ctx, cs, params)
}

func (cs *ClientSession) onToolListChanged(ctx context.Context, params *ToolListChangedParams) {
	if h := cs.client.opts.ToolListChangedHandler; h != nil {
		h(ctx, cs)
	}
}

func (cs *ClientSession) onPromptListChanged(ctx context.Context, params *PromptListChangedParams) {
	if h := cs.client.opts.PromptListChangedHandler; h != nil {
		h(ctx, cs)
	}
}

func (cs *ClientSession) onResourceListChanged(ctx context.Context, params *ResourceListChangedParams) {
	if h := cs.client.opts.ResourceListChangedHandler; h != nil {
		h(ctx, cs)
	}
}

func (cs *ClientSession) onResourceUpdated(ctx context.Context, params *ResourceUpdatedNotificationParams) {
	if h := cs.client.opts.ResourceUpdatedHandler; h != nil {
		h(ctx, cs, params.URI)
	}
}

func (cs *ClientSession) onLoggingMessage(ctx context.Context, params *LoggingMessageParams) {
	if h := cs.client.opts.LoggingMessageHandler; h != nil {
		h(ctx, cs, params)
	}
}

func (cs *ClientSession) onProgress(ctx context.Context, params *ProgressParams) {
	if h := cs.client.opts.ProgressHandler; h != nil {
		h(ctx, cs, params)
	}
}
