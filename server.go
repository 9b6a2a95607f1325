// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"encoding/base64"
	"encoding/gob"
	"bytes"
	"fmt"
	"sync"

	"github.com/coreproto/mcp/internal/jsonschema"
)

// DefaultPageSize bounds the number of items a list_* call returns in one
// page when the caller hasn't configured a different size.
const DefaultPageSize = 100

// A Server manages MCP sessions over one or more connections, dispatching
// tools/prompts/resources calls to the handlers registered with it. A
// single Server may be [Server.Connect]ed to many transports
// concurrently, sharing one feature registry across every resulting
// session.
type Server struct {
	impl Implementation
	opts ServerOptions

	schemaCache *jsonschema.Cache

	mu                sync.Mutex
	prompts           *featureSet[*ServerPrompt]
	tools             *featureSet[*ServerTool]
	resources         *featureSet[*ServerResource]
	resourceTemplates *featureSet[*ServerResourceTemplate]
	sessions          []*ServerSession
	subscriptions     map[string]map[*ServerSession]bool
}

// ServerOptions configures a [Server].
type ServerOptions struct {
	// Instructions are sent to the client in InitializeResult, describing
	// how to make best use of this server.
	Instructions string

	// PageSize overrides [DefaultPageSize] for list_* pagination.
	PageSize int

	// ProgressHandler, if set, is called for inbound notifications/progress
	// events that don't correlate to a call this session's conn issued
	// (for example, progress surfaced out-of-band by a host integration).
	ProgressHandler func(ctx context.Context, ss *ServerSession, params *ProgressParams)
}

// NewServer creates a Server with no tools, prompts, or resources
// registered.
func NewServer(impl Implementation, opts *ServerOptions) *Server {
	s := &Server{
		impl:              impl,
		schemaCache:       jsonschema.NewCache(),
		prompts:           newFeatureSet(func(p *ServerPrompt) string { return p.Prompt.Name }),
		tools:             newFeatureSet(func(t *ServerTool) string { return t.Tool.Name }),
		resources:         newFeatureSet(func(r *ServerResource) string { return r.Resource.URI }),
		resourceTemplates: newFeatureSet(func(rt *ServerResourceTemplate) string { return rt.ResourceTemplate.URITemplate }),
		subscriptions:     make(map[string]map[*ServerSession]bool),
	}
	if opts != nil {
		s.opts = *opts
	}
	if s.opts.PageSize <= 0 {
		s.opts.PageSize = DefaultPageSize
	}
	return s
}

// AddPrompts adds prompts to the server, replacing any existing prompt
// with the same name, and notifies connected sessions that the prompt
// list changed.
func (s *Server) AddPrompts(prompts ...*ServerPrompt) {
	s.mu.Lock()
	s.prompts.add(prompts...)
	sessions := slices_clone(s.sessions)
	s.mu.Unlock()
	notifySessions(sessions, notificationPromptListChanged, &PromptListChangedParams{})
}

// RemovePrompts removes prompts by name.
func (s *Server) RemovePrompts(names ...string) {
	s.mu.Lock()
	changed := s.prompts.remove(names...)
	sessions := slices_clone(s.sessions)
	s.mu.Unlock()
	if changed {
		notifySessions(sessions, notificationPromptListChanged, &PromptListChangedParams{})
	}
}

// AddTools adds tools to the server, replacing any existing tool with the
// same name.
func (s *Server) AddTools(tools ...*ServerTool) {
	s.mu.Lock()
	s.tools.add(tools...)
	sessions := slices_clone(s.sessions)
	s.mu.Unlock()
	notifySessions(sessions, notificationToolListChanged, &ToolListChangedParams{})
}

// RemoveTools removes tools by name.
func (s *Server) RemoveTools(names ...string) {
	s.mu.Lock()
	changed := s.tools.remove(names...)
	sessions := slices_clone(s.sessions)
	s.mu.Unlock()
	if changed {
		notifySessions(sessions, notificationToolListChanged, &ToolListChangedParams{})
	}
}

// AddResources adds concrete resources to the server.
func (s *Server) AddResources(resources ...*ServerResource) {
	s.mu.Lock()
	s.resources.add(resources...)
	sessions := slices_clone(s.sessions)
	s.mu.Unlock()
	notifySessions(sessions, notificationResourceListChanged, &ResourceListChangedParams{})
}

// RemoveResources removes resources by URI, and drops any subscriptions
// held against them so the table never tracks a URI no longer backed by
// a registered resource.
func (s *Server) RemoveResources(uris ...string) {
	s.mu.Lock()
	changed := s.resources.remove(uris...)
	sessions := slices_clone(s.sessions)
	for _, uri := range uris {
		delete(s.subscriptions, uri)
	}
	s.mu.Unlock()
	if changed {
		notifySessions(sessions, notificationResourceListChanged, &ResourceListChangedParams{})
	}
}

// AddResourceTemplates adds resource templates to the server.
func (s *Server) AddResourceTemplates(templates ...*ServerResourceTemplate) {
	s.mu.Lock()
	s.resourceTemplates.add(templates...)
	s.mu.Unlock()
}

// RemoveResourceTemplates removes resource templates by URI template.
func (s *Server) RemoveResourceTemplates(uriTemplates ...string) {
	s.mu.Lock()
	s.resourceTemplates.remove(uriTemplates...)
	s.mu.Unlock()
}

// resourceExists reports whether uri names a registered resource or
// matches a registered resource template. Callers must hold s.mu.
func (s *Server) resourceExists(uri string) bool {
	if _, ok := s.resources.get(uri); ok {
		return true
	}
	for rt := range s.resourceTemplates.all() {
		if rt.Matches(uri) {
			return true
		}
	}
	return false
}

// subscribe records ss as a subscriber of uri.
func (s *Server) subscribe(uri string, ss *ServerSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.subscriptions[uri]
	if subs == nil {
		subs = make(map[*ServerSession]bool)
		s.subscriptions[uri] = subs
	}
	subs[ss] = true
}

// unsubscribe removes ss as a subscriber of uri, pruning the empty entry.
func (s *Server) unsubscribe(uri string, ss *ServerSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.subscriptions[uri]
	delete(subs, ss)
	if len(subs) == 0 {
		delete(s.subscriptions, uri)
	}
}

// unsubscribeAll removes every subscription held by ss, called when its
// session closes so the table never accumulates dead subscribers.
func (s *Server) unsubscribeAll(ss *ServerSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for uri, subs := range s.subscriptions {
		delete(subs, ss)
		if len(subs) == 0 {
			delete(s.subscriptions, uri)
		}
	}
}

// ResourceUpdated notifies every session subscribed to uri that its
// contents changed, fanning out notifications/resources/updated over a
// snapshot of the subscriber set taken under the lock.
func (s *Server) ResourceUpdated(ctx context.Context, uri string) {
	s.mu.Lock()
	subs := s.subscriptions[uri]
	sessions := make([]*ServerSession, 0, len(subs))
	for ss := range subs {
		sessions = append(sessions, ss)
	}
	s.mu.Unlock()
	notifySessions(sessions, notificationResourceUpdated, &ResourceUpdatedNotificationParams{URI: uri})
}

// Sessions returns the sessions currently connected to s.
func (s *Server) Sessions() []*ServerSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices_clone(s.sessions)
}

func slices_clone[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func notifySessions[P Params](sessions []*ServerSession, method string, params P) {
	for _, ss := range sessions {
		go func(ss *ServerSession) {
			_ = ss.conn.Notify(context.Background(), method, params)
		}(ss)
	}
}

// Run connects to t and blocks until the client terminates the
// connection, returning the terminal error (nil on ordinary closure). It
// is meant for transports with exactly one peer, such as a subprocess
// talking over stdin/stdout.
func (s *Server) Run(ctx context.Context, t Transport) error {
	ss, err := s.Connect(ctx, t)
	if err != nil {
		return err
	}
	return ss.Wait()
}

// Connect starts a new session over t: it completes the transport
// handshake, registers the session, and begins serving requests on a
// background goroutine. The returned session is usable for server-to-
// client calls as soon as the client's initialize request has been
// answered; it does not block for the client's "initialized"
// notification.
func (s *Server) Connect(ctx context.Context, t Transport) (*ServerSession, error) {
	stream, err := t.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: connecting transport: %w", err)
	}
	ss := &ServerSession{
		server:   s,
		stream:   stream,
		logLevel: LevelInfo,
	}
	ss.conn = newConn(stream, ss)

	s.mu.Lock()
	s.sessions = append(s.sessions, ss)
	s.mu.Unlock()

	// Strip ctx's deadline and cancellation (the session must outlive the
	// request that established it) but keep its values, so context data
	// attached before Connect — such as the [AuthInfo] an auth gate
	// records for the connecting request — reaches every method handler
	// dispatched on this session, not just the handshake.
	runCtx := context.WithoutCancel(ctx)
	go func() {
		_ = ss.conn.Run(runCtx)
		s.mu.Lock()
		for i, sess := range s.sessions {
			if sess == ss {
				s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		s.unsubscribeAll(ss)
	}()

	return ss, nil
}

// A ServerSession is one client connection to a [Server].
type ServerSession struct {
	server *Server
	stream Stream
	conn   *conn

	mu          sync.Mutex
	initialized bool
	logLevel    LoggingLevel
	middleware  []Middleware[*ServerSession]
}

// Ping sends a ping request and waits for the reply.
func (ss *ServerSession) Ping(ctx context.Context) error {
	return ss.conn.Call(ctx, methodPing, &PingParams{}, &emptyResult{})
}

// ListRoots asks the client for its current root directories.
func (ss *ServerSession) ListRoots(ctx context.Context, params *ListRootsParams) (*ListRootsResult, error) {
	if params == nil {
		params = &ListRootsParams{}
	}
	var result ListRootsResult
	if err := ss.conn.Call(ctx, methodListRoots, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateMessage asks the client to sample an LLM completion.
func (ss *ServerSession) CreateMessage(ctx context.Context, params *CreateMessageParams) (*CreateMessageResult, error) {
	var result CreateMessageResult
	if err := ss.conn.Call(ctx, methodCreateMessage, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LoggingMessage sends a logging notification to the client, if it is at
// or above the client's configured minimum level.
func (ss *ServerSession) LoggingMessage(ctx context.Context, params *LoggingMessageParams) error {
	ss.mu.Lock()
	min := ss.logLevel
	ss.mu.Unlock()
	if compareLevels(params.Level, min) < 0 {
		return nil
	}
	return ss.conn.Notify(ctx, notificationLoggingMessage, params)
}

// AddMiddleware appends middleware to ss's method-handling chain.
func (ss *ServerSession) AddMiddleware(mw ...Middleware[*ServerSession]) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.middleware = append(ss.middleware, mw...)
}

// Close terminates the session's connection.
func (ss *ServerSession) Close() error { return ss.conn.Close() }

// Wait blocks until the client terminates the connection, returning the
// terminal read error (nil on ordinary closure).
func (ss *ServerSession) Wait() error { return ss.conn.Wait() }

func (ss *ServerSession) handleRequest(ctx context.Context, req *Request) (any, error) {
	ss.mu.Lock()
	initialized := ss.initialized
	mw := ss.middleware
	ss.mu.Unlock()

	// Per the handshake state machine, initialize is only valid once, and
	// every other method is only valid after it has completed.
	if req.Method == methodInitialize {
		if initialized {
			return nil, errInvalidRequest("session already initialized")
		}
	} else if !initialized {
		return nil, errInvalidRequest("method %q called before initialize", req.Method)
	}

	return dispatch(ctx, ss, req.Method, req.Params, serverMethodInfos, mw)
}

func (ss *ServerSession) handleNotify(ctx context.Context, n *Notification) {
	dispatchNotify(ctx, ss, n.Method, n.Params, serverNotifyInfos)
}

var serverMethodInfos = map[string]methodInfo[*ServerSession]{
	methodInitialize:            newMethodInfo((*ServerSession).initialize),
	methodPing:                  newMethodInfo((*ServerSession).handlePing),
	methodListPrompts:           newMethodInfo((*ServerSession).listPrompts),
	methodGetPrompt:             newMethodInfo((*ServerSession).getPrompt),
	methodListTools:             newMethodInfo((*ServerSession).listTools),
	methodCallTool:              newMethodInfo((*ServerSession).callTool),
	methodListResources:         newMethodInfo((*ServerSession).listResources),
	methodListResourceTemplates: newMethodInfo((*ServerSession).listResourceTemplates),
	methodReadResource:          newMethodInfo((*ServerSession).readResource),
	methodSubscribe:             newMethodInfo((*ServerSession).subscribeResource),
	methodUnsubscribe:           newMethodInfo((*ServerSession).unsubscribeResource),
	methodSetLevel:              newMethodInfo((*ServerSession).setLevel),
}

var serverNotifyInfos = map[string]notifyInfo[*ServerSession]{
	notificationInitialized:      newNotifyInfo((*ServerSession).onInitialized),
	notificationRootsListChanged: newNotifyInfo((*ServerSession).onRootsListChanged),
	notificationProgress:         newNotifyInfo((*ServerSession).onProgress),
}

func (ss *ServerSession) initialize(ctx context.Context, params *InitializeParams) (*InitializeResult, error) {
	version := params.ProtocolVersion
	if !isSupportedProtocolVersion(version) {
		return nil, errInvalidParamsData(
			map[string]any{"supported_versions": supportedProtocolVersions},
			"unsupported protocol version %q", version,
		)
	}
	ss.mu.Lock()
	ss.initialized = true
	ss.mu.Unlock()

	caps := ServerCapabilities{
		Logging:   &struct{}{},
		Prompts:   &PromptsCapability{ListChanged: true},
		Tools:     &ToolsCapability{ListChanged: true},
		Resources: &ResourcesCapability{ListChanged: true, Subscribe: true},
	}

	return &InitializeResult{
		ProtocolVersion: version,
		Capabilities:    caps,
		ServerInfo:      ss.server.impl,
		Instructions:    ss.server.opts.Instructions,
	}, nil
}

func (ss *ServerSession) handlePing(ctx context.Context, params *PingParams) (*emptyResult, error) {
	return &emptyResult{}, nil
}

func (ss *ServerSession) setLevel(ctx context.Context, params *SetLevelParams) (*emptyResult, error) {
	ss.mu.Lock()
	ss.logLevel = params.Level
	ss.mu.Unlock()
	return &emptyResult{}, nil
}

func (ss *ServerSession) onInitialized(ctx context.Context, params *InitializedParams) {}

func (ss *ServerSession) onRootsListChanged(ctx context.Context, params *RootsListChangedParams) {}

func (ss *ServerSession) onProgress(ctx context.Context, params *ProgressParams) {
	if h := ss.server.opts.ProgressHandler; h != nil {
		h(ctx, ss, params)
	}
}

// NotifyProgress sends a progress update to the client for a token it
// supplied in a request's Meta.ProgressToken.
func (ss *ServerSession) NotifyProgress(ctx context.Context, params *ProgressParams) error {
	return ss.conn.Notify(ctx, notificationProgress, params)
}

func (ss *ServerSession) subscribeResource(ctx context.Context, params *SubscribeParams) (*emptyResult, error) {
	ss.server.mu.Lock()
	exists := ss.server.resourceExists(params.URI)
	ss.server.mu.Unlock()
	if !exists {
		return nil, ResourceNotFoundError(params.URI)
	}
	ss.server.subscribe(params.URI, ss)
	return &emptyResult{}, nil
}

func (ss *ServerSession) unsubscribeResource(ctx context.Context, params *UnsubscribeParams) (*emptyResult, error) {
	ss.server.unsubscribe(params.URI, ss)
	return &emptyResult{}, nil
}

func (ss *ServerSession) listPrompts(ctx context.Context, params *ListPromptsParams) (*ListPromptsResult, error) {
	ss.server.mu.Lock()
	defer ss.server.mu.Unlock()
	return paginateList(ss.server.prompts, ss.server.opts.PageSize, params, func(p *ServerPrompt) *Prompt { return &p.Prompt }, &ListPromptsResult{})
}

func (ss *ServerSession) getPrompt(ctx context.Context, params *GetPromptParams) (*GetPromptResult, error) {
	ss.server.mu.Lock()
	p, ok := ss.server.prompts.get(params.Name)
	ss.server.mu.Unlock()
	if !ok {
		return nil, errInvalidParams("unknown prompt %q", params.Name)
	}
	return p.Handler(ctx, ss, params)
}

func (ss *ServerSession) listTools(ctx context.Context, params *ListToolsParams) (*ListToolsResult, error) {
	ss.server.mu.Lock()
	defer ss.server.mu.Unlock()
	return paginateList(ss.server.tools, ss.server.opts.PageSize, params, func(t *ServerTool) *Tool { return t.Tool }, &ListToolsResult{})
}

func (ss *ServerSession) callTool(ctx context.Context, params *CallToolParams) (*CallToolResult, error) {
	ss.server.mu.Lock()
	t, ok := ss.server.tools.get(params.Name)
	cache := ss.server.schemaCache
	ss.server.mu.Unlock()
	if !ok {
		return nil, errInvalidParams("unknown tool %q", params.Name)
	}
	return t.rawHandler(ctx, ss, params, cache)
}

func (ss *ServerSession) listResources(ctx context.Context, params *ListResourcesParams) (*ListResourcesResult, error) {
	ss.server.mu.Lock()
	defer ss.server.mu.Unlock()
	return paginateList(ss.server.resources, ss.server.opts.PageSize, params, func(r *ServerResource) *Resource { return &r.Resource }, &ListResourcesResult{})
}

func (ss *ServerSession) listResourceTemplates(ctx context.Context, params *ListResourceTemplatesParams) (*ListResourceTemplatesResult, error) {
	ss.server.mu.Lock()
	defer ss.server.mu.Unlock()
	return paginateList(ss.server.resourceTemplates, ss.server.opts.PageSize, params, func(rt *ServerResourceTemplate) *ResourceTemplate { return &rt.ResourceTemplate }, &ListResourceTemplatesResult{})
}

func (ss *ServerSession) readResource(ctx context.Context, params *ReadResourceParams) (*ReadResourceResult, error) {
	ss.server.mu.Lock()
	r, ok := ss.server.resources.get(params.URI)
	var matched *ServerResourceTemplate
	if !ok {
		for rt := range ss.server.resourceTemplates.all() {
			if rt.Matches(params.URI) {
				matched = rt
				break
			}
		}
	}
	ss.server.mu.Unlock()

	var result *ReadResourceResult
	var err error
	switch {
	case ok:
		result, err = r.Handler(ctx, params.URI)
	case matched != nil:
		result, err = matched.Handler(ctx, params.URI)
	default:
		return nil, ResourceNotFoundError(params.URI)
	}
	if err != nil {
		return nil, err
	}
	for _, c := range result.Contents {
		if c.URI == "" {
			c.URI = params.URI
		}
	}
	return result, nil
}

// pageToken is gob-encoded and base64-wrapped to form an opaque cursor.
type pageToken struct {
	LastUID string
}

func encodeCursor(uid string) string {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(pageToken{LastUID: uid}); err != nil {
		panic(err) // pageToken always encodes
	}
	return base64.URLEncoding.EncodeToString(buf.Bytes())
}

func decodeCursor(cursor string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("malformed cursor: %w", err)
	}
	var pt pageToken
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&pt); err != nil {
		return "", fmt.Errorf("malformed cursor: %w", err)
	}
	return pt.LastUID, nil
}

// paginateList collects up to pageSize items from set (starting after the
// cursor in params, if any), filling result via toItem and setItems,
// and setting NextCursor when more remain.
func paginateList[F any, P listParams, R listResult[T], T any](set *featureSet[F], pageSize int, params P, toItem func(F) T, result R) (R, error) {
	var start iterStart
	if c := *params.cursorPtr(); c != "" {
		uid, err := decodeCursor(c)
		if err != nil {
			var zero R
			return zero, errInvalidParams("%v", err)
		}
		start.after = uid
		start.hasAfter = true
	}

	var items []T
	var lastUID string
	var seq func(yield func(F) bool)
	if start.hasAfter {
		seq = set.above(start.after)
	} else {
		seq = set.all()
	}
	count := 0
	for f := range seq {
		if count >= pageSize {
			*result.nextCursorPtr() = encodeCursor(lastUID)
			break
		}
		items = append(items, toItem(f))
		lastUID = set.uniqueID(f)
		count++
	}
	setItems(result, items)
	return result, nil
}

type iterStart struct {
	after    string
	hasAfter bool
}

// setItems assigns items into result's slice field via the generic
// items()-shaped accessor pattern: since listResult only exposes a getter,
// callers construct R directly. This helper exists so paginateList stays
// generic over the concrete result type.
func setItems[R listResult[T], T any](result R, items []T) {
	switch r := any(result).(type) {
	case *ListPromptsResult:
		r.Prompts = any(items).([]*Prompt)
	case *ListToolsResult:
		r.Tools = any(items).([]*Tool)
	case *ListResourcesResult:
		r.Resources = any(items).([]*Resource)
	case *ListResourceTemplatesResult:
		r.ResourceTemplates = any(items).([]*ResourceTemplate)
	}
}
