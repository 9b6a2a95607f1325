// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import "encoding/json"

// This file defines the wire types exchanged as Request/Notification
// params and Response results, and the method name constants that select
// a [MethodHandler]. Unlike the upstream protocol package, these are
// hand-written rather than generated from a schema document: the runtime
// supports a fixed, compiled-in method set rather than a pluggable schema
// fetched at build time.

// LatestProtocolVersion is offered first during negotiation; older
// versions remain acceptance-compatible with [supportedProtocolVersions].
const LatestProtocolVersion = "2025-06-18"

// supportedProtocolVersions lists every protocolVersion this runtime will
// accept from a peer during initialize, newest first.
var supportedProtocolVersions = []string{
	"2025-06-18",
	"2025-03-26",
	"2024-11-05",
}

func isSupportedProtocolVersion(v string) bool {
	for _, s := range supportedProtocolVersions {
		if s == v {
			return true
		}
	}
	return false
}

// Method names, as they appear on the wire.
const (
	methodInitialize   = "initialize"
	methodPing         = "ping"
	methodComplete     = "completion/complete"
	methodSetLevel     = "logging/setLevel"

	methodListPrompts = "prompts/list"
	methodGetPrompt   = "prompts/get"

	methodListTools = "tools/list"
	methodCallTool  = "tools/call"

	methodListResources         = "resources/list"
	methodListResourceTemplates = "resources/templates/list"
	methodReadResource          = "resources/read"
	methodSubscribe             = "resources/subscribe"
	methodUnsubscribe           = "resources/unsubscribe"

	methodListRoots    = "roots/list"
	methodCreateMessage = "sampling/createMessage"

	notificationInitialized         = "notifications/initialized"
	notificationCancelled           = "notifications/cancelled"
	notificationProgress            = "notifications/progress"
	notificationRootsListChanged    = "notifications/roots/list_changed"
	notificationToolListChanged     = "notifications/tools/list_changed"
	notificationPromptListChanged   = "notifications/prompts/list_changed"
	notificationResourceListChanged = "notifications/resources/list_changed"
	notificationResourceUpdated    = "notifications/resources/updated"
	notificationLoggingMessage     = "notifications/message"
)

// Meta carries the reserved "_meta" object that may appear on any
// request or notification params, plus any result. progressToken, when
// present, opts the call into progress notifications (see
// [ProgressParams]); every other key is passed through uninterpreted.
type Meta struct {
	ProgressToken any            `json:"-"`
	Extra         map[string]any `json:"-"`
}

func (m *Meta) isZero() bool {
	return m == nil || (m.ProgressToken == nil && len(m.Extra) == 0)
}

func (m Meta) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(m.Extra)+1)
	for k, v := range m.Extra {
		obj[k] = v
	}
	if m.ProgressToken != nil {
		obj["progressToken"] = m.ProgressToken
	}
	return json.Marshal(obj)
}

func (m *Meta) UnmarshalJSON(data []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if tok, ok := obj["progressToken"]; ok {
		m.ProgressToken = tok
		delete(obj, "progressToken")
	}
	if len(obj) > 0 {
		m.Extra = obj
	}
	return nil
}

// Params is implemented by every method's params type, giving engine code
// uniform access to the "_meta" envelope field regardless of method.
type Params interface {
	GetMeta() *Meta
}

// Result is implemented by every method's result type.
type Result interface {
	GetMeta() *Meta
}

// emptyResult is returned by handlers (ping, set_level, ...) that carry no
// payload beyond the envelope.
type emptyResult struct {
	Meta *Meta `json:"_meta,omitempty"`
}

func (r *emptyResult) GetMeta() *Meta { return r.Meta }

// listParams is implemented by every paginated request's params type.
type listParams interface {
	Params
	cursorPtr() *string
}

// listResult is implemented by every paginated method's result type.
type listResult[T any] interface {
	Result
	nextCursorPtr() *string
	items() []T
}

// --- Implementation & capabilities ---

// Implementation describes the name and version of an MCP client or
// server, exchanged during the handshake.
type Implementation struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Version string `json:"version"`
}

// ClientCapabilities is advertised by the client in InitializeParams.
type ClientCapabilities struct {
	Roots        *RootsCapability    `json:"roots,omitempty"`
	Sampling     *struct{}           `json:"sampling,omitempty"`
	Experimental map[string]any      `json:"experimental,omitempty"`
}

// RootsCapability reports whether the client will send
// notifications/roots/list_changed when its root set changes.
type RootsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ServerCapabilities is advertised by the server in InitializeResult.
type ServerCapabilities struct {
	Prompts      *PromptsCapability   `json:"prompts,omitempty"`
	Tools        *ToolsCapability     `json:"tools,omitempty"`
	Resources    *ResourcesCapability `json:"resources,omitempty"`
	Logging      *struct{}            `json:"logging,omitempty"`
	Completions  *struct{}            `json:"completions,omitempty"`
	Experimental map[string]any       `json:"experimental,omitempty"`
}

type PromptsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

// --- initialize ---

type InitializeParams struct {
	Meta            *Meta              `json:"_meta,omitempty"`
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

func (p *InitializeParams) GetMeta() *Meta { return p.Meta }

type InitializeResult struct {
	Meta            *Meta              `json:"_meta,omitempty"`
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

func (r *InitializeResult) GetMeta() *Meta { return r.Meta }

type InitializedParams struct {
	Meta *Meta `json:"_meta,omitempty"`
}

func (p *InitializedParams) GetMeta() *Meta { return p.Meta }

// --- ping ---

type PingParams struct {
	Meta *Meta `json:"_meta,omitempty"`
}

func (p *PingParams) GetMeta() *Meta { return p.Meta }

// --- cancellation & progress ---

type CancelledParams struct {
	Meta      *Meta  `json:"_meta,omitempty"`
	RequestID ID     `json:"requestId"`
	Reason    string `json:"reason,omitempty"`
}

func (p *CancelledParams) GetMeta() *Meta { return p.Meta }

type ProgressParams struct {
	Meta          *Meta   `json:"_meta,omitempty"`
	ProgressToken any     `json:"progressToken"`
	Progress      float64 `json:"progress"`
	Total         float64 `json:"total,omitempty"`
	Message       string  `json:"message,omitempty"`
}

func (p *ProgressParams) GetMeta() *Meta { return p.Meta }

// --- Annotations, shared by Content and Resource/Tool metadata ---

type Annotations struct {
	Audience     []string `json:"audience,omitempty"`
	Priority     float64  `json:"priority,omitempty"`
	LastModified string   `json:"lastModified,omitempty"`
}

// --- tools ---

// Tool describes a callable tool, including its JSON Schema argument and
// (optionally) result shapes.
type Tool struct {
	Name         string          `json:"name"`
	Title        string          `json:"title,omitempty"`
	Description  string          `json:"description,omitempty"`
	InputSchema  json.RawMessage `json:"inputSchema"`
	OutputSchema json.RawMessage `json:"outputSchema,omitempty"`
	Annotations  *ToolAnnotations `json:"annotations,omitempty"`
}

type ToolAnnotations struct {
	Title           string `json:"title,omitempty"`
	ReadOnlyHint    bool   `json:"readOnlyHint,omitempty"`
	DestructiveHint bool   `json:"destructiveHint,omitempty"`
	IdempotentHint  bool   `json:"idempotentHint,omitempty"`
	OpenWorldHint   bool   `json:"openWorldHint,omitempty"`
}

type ListToolsParams struct {
	Meta   *Meta  `json:"_meta,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

func (p *ListToolsParams) GetMeta() *Meta  { return p.Meta }
func (p *ListToolsParams) cursorPtr() *string { return &p.Cursor }

type ListToolsResult struct {
	Meta       *Meta  `json:"_meta,omitempty"`
	Tools      []*Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

func (r *ListToolsResult) GetMeta() *Meta         { return r.Meta }
func (r *ListToolsResult) nextCursorPtr() *string { return &r.NextCursor }
func (r *ListToolsResult) items() []*Tool         { return r.Tools }

// CallToolParams carries the raw argument object; feature managers decode
// Arguments into the handler's declared input type.
type CallToolParams struct {
	Meta      *Meta           `json:"_meta,omitempty"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

func (p *CallToolParams) GetMeta() *Meta { return p.Meta }

type CallToolResult struct {
	Meta              *Meta      `json:"_meta,omitempty"`
	Content           []*Content `json:"content"`
	StructuredContent any        `json:"structuredContent,omitempty"`
	IsError           bool       `json:"isError,omitempty"`
}

func (r *CallToolResult) GetMeta() *Meta { return r.Meta }

// --- prompts ---

type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

type Prompt struct {
	Name        string            `json:"name"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Arguments   []*PromptArgument `json:"arguments,omitempty"`
}

type ListPromptsParams struct {
	Meta   *Meta  `json:"_meta,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

func (p *ListPromptsParams) GetMeta() *Meta     { return p.Meta }
func (p *ListPromptsParams) cursorPtr() *string { return &p.Cursor }

type ListPromptsResult struct {
	Meta       *Meta     `json:"_meta,omitempty"`
	Prompts    []*Prompt `json:"prompts"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

func (r *ListPromptsResult) GetMeta() *Meta         { return r.Meta }
func (r *ListPromptsResult) nextCursorPtr() *string { return &r.NextCursor }
func (r *ListPromptsResult) items() []*Prompt       { return r.Prompts }

type GetPromptParams struct {
	Meta      *Meta             `json:"_meta,omitempty"`
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

func (p *GetPromptParams) GetMeta() *Meta { return p.Meta }

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type PromptMessage struct {
	Role    Role     `json:"role"`
	Content *Content `json:"content"`
}

type GetPromptResult struct {
	Meta        *Meta            `json:"_meta,omitempty"`
	Description string           `json:"description,omitempty"`
	Messages    []*PromptMessage `json:"messages"`
}

func (r *GetPromptResult) GetMeta() *Meta { return r.Meta }

// --- resources ---

type Resource struct {
	URI         string       `json:"uri"`
	Name        string       `json:"name"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	MIMEType    string       `json:"mimeType,omitempty"`
	Size        int64        `json:"size,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

type ResourceTemplate struct {
	URITemplate string       `json:"uriTemplate"`
	Name        string       `json:"name"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	MIMEType    string       `json:"mimeType,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

type ListResourcesParams struct {
	Meta   *Meta  `json:"_meta,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

func (p *ListResourcesParams) GetMeta() *Meta     { return p.Meta }
func (p *ListResourcesParams) cursorPtr() *string { return &p.Cursor }

type ListResourcesResult struct {
	Meta       *Meta       `json:"_meta,omitempty"`
	Resources  []*Resource `json:"resources"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

func (r *ListResourcesResult) GetMeta() *Meta         { return r.Meta }
func (r *ListResourcesResult) nextCursorPtr() *string { return &r.NextCursor }
func (r *ListResourcesResult) items() []*Resource     { return r.Resources }

type ListResourceTemplatesParams struct {
	Meta   *Meta  `json:"_meta,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

func (p *ListResourceTemplatesParams) GetMeta() *Meta     { return p.Meta }
func (p *ListResourceTemplatesParams) cursorPtr() *string { return &p.Cursor }

type ListResourceTemplatesResult struct {
	Meta              *Meta               `json:"_meta,omitempty"`
	ResourceTemplates []*ResourceTemplate `json:"resourceTemplates"`
	NextCursor        string              `json:"nextCursor,omitempty"`
}

func (r *ListResourceTemplatesResult) GetMeta() *Meta         { return r.Meta }
func (r *ListResourceTemplatesResult) nextCursorPtr() *string { return &r.NextCursor }
func (r *ListResourceTemplatesResult) items() []*ResourceTemplate {
	return r.ResourceTemplates
}

type ReadResourceParams struct {
	Meta *Meta  `json:"_meta,omitempty"`
	URI  string `json:"uri"`
}

func (p *ReadResourceParams) GetMeta() *Meta { return p.Meta }

type ReadResourceResult struct {
	Meta     *Meta               `json:"_meta,omitempty"`
	Contents []*ResourceContents `json:"contents"`
}

func (r *ReadResourceResult) GetMeta() *Meta { return r.Meta }

type SubscribeParams struct {
	Meta *Meta  `json:"_meta,omitempty"`
	URI  string `json:"uri"`
}

func (p *SubscribeParams) GetMeta() *Meta { return p.Meta }

type UnsubscribeParams struct {
	Meta *Meta  `json:"_meta,omitempty"`
	URI  string `json:"uri"`
}

func (p *UnsubscribeParams) GetMeta() *Meta { return p.Meta }

type ResourceUpdatedNotificationParams struct {
	Meta *Meta  `json:"_meta,omitempty"`
	URI  string `json:"uri"`
}

func (p *ResourceUpdatedNotificationParams) GetMeta() *Meta { return p.Meta }

// --- roots ---

type Root struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

type ListRootsParams struct {
	Meta *Meta `json:"_meta,omitempty"`
}

func (p *ListRootsParams) GetMeta() *Meta { return p.Meta }

type ListRootsResult struct {
	Meta  *Meta   `json:"_meta,omitempty"`
	Roots []*Root `json:"roots"`
}

func (r *ListRootsResult) GetMeta() *Meta { return r.Meta }

type RootsListChangedParams struct {
	Meta *Meta `json:"_meta,omitempty"`
}

func (p *RootsListChangedParams) GetMeta() *Meta { return p.Meta }

type ToolListChangedParams struct {
	Meta *Meta `json:"_meta,omitempty"`
}

func (p *ToolListChangedParams) GetMeta() *Meta { return p.Meta }

type PromptListChangedParams struct {
	Meta *Meta `json:"_meta,omitempty"`
}

func (p *PromptListChangedParams) GetMeta() *Meta { return p.Meta }

type ResourceListChangedParams struct {
	Meta *Meta `json:"_meta,omitempty"`
}

func (p *ResourceListChangedParams) GetMeta() *Meta { return p.Meta }

// --- sampling ---

type ModelHint struct {
	Name string `json:"name,omitempty"`
}

type ModelPreferences struct {
	Hints                []*ModelHint `json:"hints,omitempty"`
	CostPriority         float64      `json:"costPriority,omitempty"`
	SpeedPriority        float64      `json:"speedPriority,omitempty"`
	IntelligencePriority float64      `json:"intelligencePriority,omitempty"`
}

type SamplingMessage struct {
	Role    Role     `json:"role"`
	Content *Content `json:"content"`
}

type CreateMessageParams struct {
	Meta             *Meta              `json:"_meta,omitempty"`
	Messages         []*SamplingMessage `json:"messages"`
	ModelPreferences *ModelPreferences  `json:"modelPreferences,omitempty"`
	SystemPrompt     string             `json:"systemPrompt,omitempty"`
	MaxTokens        int64              `json:"maxTokens"`
	Temperature      float64            `json:"temperature,omitempty"`
	StopSequences    []string           `json:"stopSequences,omitempty"`
}

func (p *CreateMessageParams) GetMeta() *Meta { return p.Meta }

type CreateMessageResult struct {
	Meta       *Meta    `json:"_meta,omitempty"`
	Role       Role     `json:"role"`
	Content    *Content `json:"content"`
	Model      string   `json:"model"`
	StopReason string   `json:"stopReason,omitempty"`
}

func (r *CreateMessageResult) GetMeta() *Meta { return r.Meta }

// --- completion ---

type CompleteReference struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	URI  string `json:"uri,omitempty"`
}

type CompleteArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type CompleteParams struct {
	Meta     *Meta              `json:"_meta,omitempty"`
	Ref      CompleteReference  `json:"ref"`
	Argument CompleteArgument   `json:"argument"`
}

func (p *CompleteParams) GetMeta() *Meta { return p.Meta }

type CompleteResultCompletion struct {
	Values  []string `json:"values"`
	Total   int      `json:"total,omitempty"`
	HasMore bool     `json:"hasMore,omitempty"`
}

type CompleteResult struct {
	Meta       *Meta                    `json:"_meta,omitempty"`
	Completion CompleteResultCompletion `json:"completion"`
}

func (r *CompleteResult) GetMeta() *Meta { return r.Meta }

// --- logging ---

// LoggingLevel is one of the RFC 5424 severities, ordered least to most
// severe.
type LoggingLevel string

const (
	LevelDebug     LoggingLevel = "debug"
	LevelInfo      LoggingLevel = "info"
	LevelNotice    LoggingLevel = "notice"
	LevelWarning   LoggingLevel = "warning"
	LevelError     LoggingLevel = "error"
	LevelCritical  LoggingLevel = "critical"
	LevelAlert     LoggingLevel = "alert"
	LevelEmergency LoggingLevel = "emergency"
)

type SetLevelParams struct {
	Meta  *Meta        `json:"_meta,omitempty"`
	Level LoggingLevel `json:"level"`
}

func (p *SetLevelParams) GetMeta() *Meta { return p.Meta }

type LoggingMessageParams struct {
	Meta   *Meta        `json:"_meta,omitempty"`
	Logger string       `json:"logger,omitempty"`
	Level  LoggingLevel `json:"level"`
	Data   any          `json:"data"`
}

func (p *LoggingMessageParams) GetMeta() *Meta { return p.Meta }
