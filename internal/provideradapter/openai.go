package provideradapter

import (
	"context"
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"

	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// OpenAIConfig configures an OpenAIProvider.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIProvider adapts github.com/sashabaranov/go-openai to the Provider
// surface.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider constructs an OpenAIProvider from cfg.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errAuthMissing("openai")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

func (p *OpenAIProvider) model_() string {
	if p.model != "" {
		return p.model
	}
	return openai.GPT4o
}

func (p *OpenAIProvider) convertMessages(messages []radiumtypes.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case radiumtypes.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case radiumtypes.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case radiumtypes.RoleTool:
			role = openai.ChatMessageRoleTool
		}
		msg := openai.ChatCompletionMessage{Role: role, Content: m.Text()}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		out = append(out, msg)
		for _, tr := range m.ToolResults {
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    tr.Content,
				ToolCallID: tr.ID,
			})
		}
	}
	return out
}

func (p *OpenAIProvider) convertTools(tools []radiumtypes.ToolDescriptor) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		var params map[string]any
		_ = json.Unmarshal(t.Parameters, &params)
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

func (p *OpenAIProvider) buildRequest(req *radiumtypes.ModelRequest) openai.ChatCompletionRequest {
	creq := openai.ChatCompletionRequest{
		Model:     p.model_(),
		Messages:  p.convertMessages(req.Messages),
		MaxTokens: req.MaxTokens,
	}
	if len(req.Tools) > 0 {
		creq.Tools = p.convertTools(req.Tools)
	}
	if req.Temperature != nil {
		creq.Temperature = float32(*req.Temperature)
	}
	if req.ResponseFormat.Kind == radiumtypes.ResponseJSON {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	return creq
}

// Generate performs a single non-streaming chat completion.
func (p *OpenAIProvider) Generate(ctx context.Context, req *radiumtypes.ModelRequest) (*radiumtypes.ModelResponse, error) {
	creq := p.buildRequest(req)
	resp, err := p.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return nil, ClassifyErr("openai", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ClassifyErr("openai", errNoChoices)
	}
	choice := resp.Choices[0]
	out := &radiumtypes.ModelResponse{
		Content:  choice.Message.Content,
		Model:    resp.Model,
		Provider: string(ModelTypeOpenAI),
		Usage: radiumtypes.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, radiumtypes.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	switch choice.FinishReason {
	case openai.FinishReasonToolCalls:
		out.FinishReason = radiumtypes.FinishToolCalls
	case openai.FinishReasonLength:
		out.FinishReason = radiumtypes.FinishMaxTokens
	case openai.FinishReasonContentFilter:
		out.FinishReason = radiumtypes.FinishContentFilter
	default:
		out.FinishReason = radiumtypes.FinishStop
	}
	return out, nil
}

// GenerateStream streams deltas via the OpenAI SSE stream API.
func (p *OpenAIProvider) GenerateStream(ctx context.Context, req *radiumtypes.ModelRequest) (<-chan radiumtypes.StreamToken, error) {
	creq := p.buildRequest(req)
	creq.Stream = true
	stream, err := p.client.CreateChatCompletionStream(ctx, creq)
	if err != nil {
		return nil, ClassifyErr("openai", err)
	}
	ch := make(chan radiumtypes.StreamToken, 16)
	go func() {
		defer close(ch)
		defer stream.Close()
		var usage radiumtypes.Usage
		for {
			resp, err := stream.Recv()
			if err != nil {
				if isEOF(err) {
					break
				}
				ch <- radiumtypes.StreamToken{Err: ClassifyErr("openai", err)}
				return
			}
			if resp.Usage != nil {
				usage.InputTokens = resp.Usage.PromptTokens
				usage.OutputTokens = resp.Usage.CompletionTokens
			}
			if len(resp.Choices) > 0 {
				delta := resp.Choices[0].Delta.Content
				if delta != "" {
					select {
					case <-ctx.Done():
						return
					case ch <- radiumtypes.StreamToken{Text: delta}:
					}
				}
			}
		}
		ch <- radiumtypes.StreamToken{Done: true, Usage: &usage}
	}()
	return ch, nil
}

func (p *OpenAIProvider) ModelType() ModelType { return ModelTypeOpenAI }
func (p *OpenAIProvider) ModelID() string      { return p.model }
