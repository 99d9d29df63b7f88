package provideradapter

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// BedrockConfig configures a BedrockProvider.
type BedrockConfig struct {
	Region string
	Model  string
}

// BedrockProvider adapts github.com/aws/aws-sdk-go-v2/service/bedrockruntime
// to the Provider surface via the Converse API.
type BedrockProvider struct {
	client *bedrockruntime.Client
	model  string
}

// NewBedrockProvider loads the default AWS credential chain for cfg.Region
// and constructs the runtime client.
func NewBedrockProvider(ctx context.Context, cfg BedrockConfig) (*BedrockProvider, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, ClassifyErr("bedrock", err)
	}
	return &BedrockProvider{
		client: bedrockruntime.NewFromConfig(awsCfg),
		model:  cfg.Model,
	}, nil
}

func (p *BedrockProvider) convertMessages(messages []radiumtypes.Message) []types.Message {
	var out []types.Message
	for _, m := range messages {
		if m.Role == radiumtypes.RoleSystem {
			continue
		}
		role := types.ConversationRoleUser
		if m.Role == radiumtypes.RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		var blocks []types.ContentBlock
		if text := m.Text(); text != "" {
			blocks = append(blocks, &types.ContentBlockMemberText{Value: text})
		}
		for _, tc := range m.ToolCalls {
			blocks = append(blocks, &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
				ToolUseId: &tc.ID,
				Name:      &tc.Name,
			}})
		}
		for _, tr := range m.ToolResults {
			status := types.ToolResultStatusSuccess
			if !tr.Success {
				status = types.ToolResultStatusError
			}
			blocks = append(blocks, &types.ContentBlockMemberToolResult{Value: types.ToolResultBlock{
				ToolUseId: &tr.ID,
				Status:    status,
				Content:   []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: tr.Content}},
			}})
		}
		out = append(out, types.Message{Role: role, Content: blocks})
	}
	return out
}

func (p *BedrockProvider) systemBlocks(messages []radiumtypes.Message) []types.SystemContentBlock {
	var out []types.SystemContentBlock
	for _, m := range messages {
		if m.Role == radiumtypes.RoleSystem {
			out = append(out, &types.SystemContentBlockMemberText{Value: m.Text()})
		}
	}
	return out
}

func (p *BedrockProvider) model_() string {
	if p.model != "" {
		return p.model
	}
	return "anthropic.claude-3-5-sonnet-20241022-v2:0"
}

func (p *BedrockProvider) buildInput(req *radiumtypes.ModelRequest) *bedrockruntime.ConverseInput {
	model := p.model_()
	input := &bedrockruntime.ConverseInput{
		ModelId:  &model,
		Messages: p.convertMessages(req.Messages),
	}
	if sys := p.systemBlocks(req.Messages); len(sys) > 0 {
		input.System = sys
	}
	infCfg := &types.InferenceConfiguration{}
	if req.MaxTokens > 0 {
		mt := int32(req.MaxTokens)
		infCfg.MaxTokens = &mt
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		infCfg.Temperature = &t
	}
	input.InferenceConfig = infCfg
	return input
}

// Generate issues a single Converse call.
func (p *BedrockProvider) Generate(ctx context.Context, req *radiumtypes.ModelRequest) (*radiumtypes.ModelResponse, error) {
	input := p.buildInput(req)
	resp, err := p.client.Converse(ctx, input)
	if err != nil {
		return nil, ClassifyErr("bedrock", err)
	}
	out := &radiumtypes.ModelResponse{
		Model:        p.model_(),
		Provider:     string(ModelTypeBedrock),
		FinishReason: radiumtypes.FinishStop,
	}
	if resp.Usage != nil {
		out.Usage = radiumtypes.Usage{
			InputTokens:  int(derefI32(resp.Usage.InputTokens)),
			OutputTokens: int(derefI32(resp.Usage.OutputTokens)),
		}
	}
	msg, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if ok {
		for _, block := range msg.Value.Content {
			switch b := block.(type) {
			case *types.ContentBlockMemberText:
				out.Content += b.Value
			case *types.ContentBlockMemberToolUse:
				out.ToolCalls = append(out.ToolCalls, radiumtypes.ToolCall{
					ID:   derefStr(b.Value.ToolUseId),
					Name: derefStr(b.Value.Name),
				})
			}
		}
	}
	if resp.StopReason == types.StopReasonToolUse {
		out.FinishReason = radiumtypes.FinishToolCalls
	}
	return out, nil
}

func derefI32(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}

func derefStr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// GenerateStream streams via ConverseStream, emitting text deltas.
func (p *BedrockProvider) GenerateStream(ctx context.Context, req *radiumtypes.ModelRequest) (<-chan radiumtypes.StreamToken, error) {
	input := p.buildInput(req)
	streamInput := &bedrockruntime.ConverseStreamInput{
		ModelId:         input.ModelId,
		Messages:        input.Messages,
		System:          input.System,
		InferenceConfig: input.InferenceConfig,
	}
	resp, err := p.client.ConverseStream(ctx, streamInput)
	if err != nil {
		return nil, ClassifyErr("bedrock", err)
	}
	ch := make(chan radiumtypes.StreamToken, 16)
	go func() {
		defer close(ch)
		defer resp.GetStream().Close()
		var usage radiumtypes.Usage
		for event := range resp.GetStream().Events() {
			switch e := event.(type) {
			case *types.ConverseStreamOutputMemberContentBlockDelta:
				if delta, ok := e.Value.Delta.(*types.ContentBlockDeltaMemberText); ok {
					select {
					case <-ctx.Done():
						return
					case ch <- radiumtypes.StreamToken{Text: delta.Value}:
					}
				}
			case *types.ConverseStreamOutputMemberMetadata:
				if e.Value.Usage != nil {
					usage.InputTokens = int(derefI32(e.Value.Usage.InputTokens))
					usage.OutputTokens = int(derefI32(e.Value.Usage.OutputTokens))
				}
			}
		}
		if err := resp.GetStream().Err(); err != nil {
			ch <- radiumtypes.StreamToken{Err: ClassifyErr("bedrock", err)}
			return
		}
		ch <- radiumtypes.StreamToken{Done: true, Usage: &usage}
	}()
	return ch, nil
}

func (p *BedrockProvider) ModelType() ModelType { return ModelTypeBedrock }
func (p *BedrockProvider) ModelID() string      { return p.model }
