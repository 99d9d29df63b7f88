package radiumtypes

import "encoding/json"

// Role identifies the speaker of a message in a ModelRequest.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentBlock is a single piece of multimodal content within a Message.
// Exactly one of Text/ImageURL/ImageData should be set.
type ContentBlock struct {
	Type      string `json:"type"` // "text" | "image"
	Text      string `json:"text,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	ImageData []byte `json:"image_data,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	// Cacheable marks this block as eligible for provider-side prompt
	// caching (e.g. Anthropic cache_control blocks).
	Cacheable bool `json:"cacheable,omitempty"`
}

// Message is one ordered entry in a ModelRequest's conversation.
type Message struct {
	Role        Role           `json:"role"`
	Content     []ContentBlock `json:"content,omitempty"`
	ToolCalls   []ToolCall     `json:"tool_calls,omitempty"`
	ToolResults []ToolResult   `json:"tool_results,omitempty"`
}

// Text returns the concatenation of all text blocks in the message.
func (m Message) Text() string {
	out := ""
	for _, b := range m.Content {
		if b.Type == "text" || b.Type == "" {
			out += b.Text
		}
	}
	return out
}

// TextMessage builds a Message carrying a single text block.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Content: []ContentBlock{{Type: "text", Text: text}}}
}

// ResponseFormatKind selects how the model should format its reply.
type ResponseFormatKind string

const (
	ResponseText       ResponseFormatKind = "text"
	ResponseJSON       ResponseFormatKind = "json"
	ResponseJSONSchema ResponseFormatKind = "json_schema"
)

// ResponseFormat configures structured output, per spec §4.A.
type ResponseFormat struct {
	Kind   ResponseFormatKind `json:"kind"`
	Schema json.RawMessage    `json:"schema,omitempty"`
	Name   string             `json:"name,omitempty"`
}

// ReasoningEffort hints at how much compute the model should spend
// reasoning, where supported.
type ReasoningEffort string

const (
	ReasoningNone   ReasoningEffort = ""
	ReasoningLow    ReasoningEffort = "low"
	ReasoningMedium ReasoningEffort = "medium"
	ReasoningHigh   ReasoningEffort = "high"
)

// ModelRequest is the universal request shape passed to a Provider.
type ModelRequest struct {
	Messages        []Message        `json:"messages"`
	Tools           []ToolDescriptor `json:"tools,omitempty"`
	Temperature     *float64         `json:"temperature,omitempty"`
	TopP            *float64         `json:"top_p,omitempty"`
	ResponseFormat  ResponseFormat   `json:"response_format"`
	MaxTokens       int              `json:"max_tokens,omitempty"`
	StopSequences   []string         `json:"stop_sequences,omitempty"`
	ReasoningEffort ReasoningEffort  `json:"reasoning_effort,omitempty"`
}

// FinishReason explains why a ModelResponse stopped generating.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishToolCalls      FinishReason = "tool_calls"
	FinishMaxTokens      FinishReason = "max_tokens"
	FinishContentFilter  FinishReason = "content_filter"
	FinishError          FinishReason = "error"
)

// Usage reports token accounting for a single model call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	CachedTokens int `json:"cached_tokens"`
}

// ModelResponse is the universal response shape returned by a Provider.
type ModelResponse struct {
	Content      string       `json:"content"`
	ToolCalls    []ToolCall   `json:"tool_calls,omitempty"`
	FinishReason FinishReason `json:"finish_reason"`
	Usage        Usage        `json:"usage"`
	Model        string       `json:"model,omitempty"`
	Provider     string       `json:"provider,omitempty"`
}

// StreamToken is one element of a provider's lazy streaming sequence.
type StreamToken struct {
	Text     string     `json:"text,omitempty"`
	ToolCall *ToolCall  `json:"tool_call,omitempty"`
	Done     bool       `json:"done,omitempty"`
	Usage    *Usage     `json:"usage,omitempty"`
	Err      error      `json:"-"`
}

// ToolCall is a single function-call request emitted by a model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult is the outcome of executing a ToolCall.
type ToolResult struct {
	ID       string `json:"id"`
	Success  bool   `json:"success"`
	Content  string `json:"content,omitempty"`
	Error    string `json:"error,omitempty"`
	Duration int64  `json:"duration_ms"`
}

// ToolDescriptor is the authoritative, JSON-schema-backed description of a
// tool offered to a model.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
	Category    string          `json:"category"`
}
