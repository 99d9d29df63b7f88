package provideradapter

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// AnthropicConfig configures an AnthropicProvider.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// AnthropicProvider adapts github.com/anthropics/anthropic-sdk-go to the
// Provider surface. Cacheable content blocks are mapped to Anthropic
// cache_control markers; usage maps cache_read/cache_creation token counts
// into Usage.CachedTokens, per spec §4.A.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider validates config and constructs the SDK client.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errAuthMissing("anthropic")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

func (p *AnthropicProvider) convertMessages(messages []radiumtypes.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, m := range messages {
		if m.Role == radiumtypes.RoleSystem {
			continue
		}
		var blocks []anthropic.ContentBlockParamUnion
		for _, c := range m.Content {
			if c.Type != "text" && c.Type != "" {
				continue
			}
			block := anthropic.NewTextBlock(c.Text)
			if c.Cacheable {
				block.OfText.CacheControl = anthropic.NewCacheControlEphemeralParam()
			}
			blocks = append(blocks, block)
		}
		for _, tc := range m.ToolCalls {
			blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, tc.Arguments, tc.Name))
		}
		for _, tr := range m.ToolResults {
			blocks = append(blocks, anthropic.NewToolResultBlock(tr.ID, tr.Content, !tr.Success))
		}
		if m.Role == radiumtypes.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

func (p *AnthropicProvider) systemPrompt(messages []radiumtypes.Message) []anthropic.TextBlockParam {
	var out []anthropic.TextBlockParam
	for _, m := range messages {
		if m.Role == radiumtypes.RoleSystem {
			out = append(out, anthropic.TextBlockParam{Text: m.Text()})
		}
	}
	return out
}

func (p *AnthropicProvider) convertTools(tools []radiumtypes.ToolDescriptor) []anthropic.ToolUnionParam {
	var out []anthropic.ToolUnionParam
	for _, t := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(t.Parameters, &schema); err != nil {
			continue
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, t.Name)
		if toolParam.OfTool == nil {
			continue
		}
		toolParam.OfTool.Description = anthropic.String(t.Description)
		out = append(out, toolParam)
	}
	return out
}

func (p *AnthropicProvider) model_(req *radiumtypes.ModelRequest) string {
	if p.model != "" {
		return p.model
	}
	return "claude-3-5-sonnet-latest"
}

func (p *AnthropicProvider) buildParams(req *radiumtypes.ModelRequest) anthropic.MessageNewParams {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model_(req)),
		Messages:  p.convertMessages(req.Messages),
		MaxTokens: maxTokens,
	}
	if sys := p.systemPrompt(req.Messages); len(sys) > 0 {
		params.System = sys
	}
	if len(req.Tools) > 0 {
		params.Tools = p.convertTools(req.Tools)
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	return params
}

// Generate performs a single non-streaming completion.
func (p *AnthropicProvider) Generate(ctx context.Context, req *radiumtypes.ModelRequest) (*radiumtypes.ModelResponse, error) {
	params := p.buildParams(req)
	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, ClassifyErr("anthropic", err)
	}
	resp := &radiumtypes.ModelResponse{
		Model:    string(params.Model),
		Provider: string(ModelTypeAnthropic),
		Usage: radiumtypes.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			CachedTokens: int(msg.Usage.CacheReadInputTokens + msg.Usage.CacheCreationInputTokens),
		},
	}
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content += b.Text
		case anthropic.ToolUseBlock:
			resp.ToolCalls = append(resp.ToolCalls, radiumtypes.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: b.Input,
			})
		}
	}
	switch msg.StopReason {
	case anthropic.StopReasonToolUse:
		resp.FinishReason = radiumtypes.FinishToolCalls
	case anthropic.StopReasonMaxTokens:
		resp.FinishReason = radiumtypes.FinishMaxTokens
	default:
		resp.FinishReason = radiumtypes.FinishStop
	}
	return resp, nil
}

// GenerateStream streams the completion, emitting text deltas and a final
// Done token carrying accumulated usage.
func (p *AnthropicProvider) GenerateStream(ctx context.Context, req *radiumtypes.ModelRequest) (<-chan radiumtypes.StreamToken, error) {
	params := p.buildParams(req)
	stream := p.client.Messages.NewStreaming(ctx, params)
	ch := make(chan radiumtypes.StreamToken, 16)

	go func() {
		defer close(ch)
		var usage radiumtypes.Usage
		for stream.Next() {
			event := stream.Current()
			switch e := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				if delta, ok := e.Delta.AsAny().(anthropic.TextDelta); ok {
					select {
					case <-ctx.Done():
						return
					case ch <- radiumtypes.StreamToken{Text: delta.Text}:
					}
				}
			case anthropic.MessageDeltaEvent:
				usage.OutputTokens += int(e.Usage.OutputTokens)
			}
		}
		if err := stream.Err(); err != nil {
			ch <- radiumtypes.StreamToken{Err: ClassifyErr("anthropic", err)}
			return
		}
		ch <- radiumtypes.StreamToken{Done: true, Usage: &usage}
	}()
	return ch, nil
}

func (p *AnthropicProvider) ModelType() ModelType { return ModelTypeAnthropic }
func (p *AnthropicProvider) ModelID() string      { return p.model }
