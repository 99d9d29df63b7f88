package provideradapter

import (
	"context"
	"encoding/json"

	"google.golang.org/genai"

	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// GeminiConfig configures a GeminiProvider.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// GeminiProvider adapts google.golang.org/genai to the Provider surface.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider constructs a GeminiProvider, connecting through the
// Gemini API backend.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errAuthMissing("gemini")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, ClassifyErr("gemini", err)
	}
	return &GeminiProvider{client: client, model: cfg.Model}, nil
}

func (p *GeminiProvider) model_() string {
	if p.model != "" {
		return p.model
	}
	return "gemini-2.0-flash"
}

func (p *GeminiProvider) convertMessages(messages []radiumtypes.Message) []*genai.Content {
	var out []*genai.Content
	for _, m := range messages {
		if m.Role == radiumtypes.RoleSystem {
			continue
		}
		content := &genai.Content{}
		if m.Role == radiumtypes.RoleAssistant {
			content.Role = genai.RoleModel
		} else {
			content.Role = genai.RoleUser
		}
		if text := m.Text(); text != "" {
			content.Parts = append(content.Parts, &genai.Part{Text: text})
		}
		for _, tc := range m.ToolCalls {
			var args map[string]any
			_ = json.Unmarshal(tc.Arguments, &args)
			content.Parts = append(content.Parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{Name: tc.Name, Args: args},
			})
		}
		for _, tr := range m.ToolResults {
			content.Parts = append(content.Parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     tr.ID,
					Response: map[string]any{"content": tr.Content, "error": tr.Error},
				},
			})
		}
		out = append(out, content)
	}
	return out
}

func (p *GeminiProvider) systemInstruction(messages []radiumtypes.Message) *genai.Content {
	var parts []*genai.Part
	for _, m := range messages {
		if m.Role == radiumtypes.RoleSystem {
			parts = append(parts, &genai.Part{Text: m.Text()})
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return &genai.Content{Parts: parts}
}

func (p *GeminiProvider) convertTools(tools []radiumtypes.ToolDescriptor) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	var decls []*genai.FunctionDeclaration
	for _, t := range tools {
		var schema *genai.Schema
		_ = json.Unmarshal(t.Parameters, &schema)
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schema,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func (p *GeminiProvider) buildConfig(req *radiumtypes.ModelRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if sys := p.systemInstruction(req.Messages); sys != nil {
		config.SystemInstruction = sys
	}
	if tools := p.convertTools(req.Tools); tools != nil {
		config.Tools = tools
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		config.Temperature = &t
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	return config
}

// Generate performs a single non-streaming generation call.
func (p *GeminiProvider) Generate(ctx context.Context, req *radiumtypes.ModelRequest) (*radiumtypes.ModelResponse, error) {
	contents := p.convertMessages(req.Messages)
	config := p.buildConfig(req)
	resp, err := p.client.Models.GenerateContent(ctx, p.model_(), contents, config)
	if err != nil {
		return nil, ClassifyErr("gemini", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, ClassifyErr("gemini", errNoChoices)
	}
	out := &radiumtypes.ModelResponse{
		Model:        p.model_(),
		Provider:     string(ModelTypeGemini),
		FinishReason: radiumtypes.FinishStop,
	}
	if resp.UsageMetadata != nil {
		out.Usage = radiumtypes.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			CachedTokens: int(resp.UsageMetadata.CachedContentTokenCount),
		}
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			out.Content += part.Text
		}
		if part.FunctionCall != nil {
			args, _ := json.Marshal(part.FunctionCall.Args)
			out.ToolCalls = append(out.ToolCalls, radiumtypes.ToolCall{
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
		}
	}
	if len(out.ToolCalls) > 0 {
		out.FinishReason = radiumtypes.FinishToolCalls
	}
	return out, nil
}

// GenerateStream streams generation chunks from the Gemini API.
func (p *GeminiProvider) GenerateStream(ctx context.Context, req *radiumtypes.ModelRequest) (<-chan radiumtypes.StreamToken, error) {
	contents := p.convertMessages(req.Messages)
	config := p.buildConfig(req)
	seq := p.client.Models.GenerateContentStream(ctx, p.model_(), contents, config)

	ch := make(chan radiumtypes.StreamToken, 16)
	go func() {
		defer close(ch)
		var usage radiumtypes.Usage
		for resp, err := range seq {
			if err != nil {
				ch <- radiumtypes.StreamToken{Err: ClassifyErr("gemini", err)}
				return
			}
			if resp.UsageMetadata != nil {
				usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
				usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
			}
			if len(resp.Candidates) == 0 {
				continue
			}
			for _, part := range resp.Candidates[0].Content.Parts {
				if part.Text == "" {
					continue
				}
				select {
				case <-ctx.Done():
					return
				case ch <- radiumtypes.StreamToken{Text: part.Text}:
				}
			}
		}
		ch <- radiumtypes.StreamToken{Done: true, Usage: &usage}
	}()
	return ch, nil
}

func (p *GeminiProvider) ModelType() ModelType { return ModelTypeGemini }
func (p *GeminiProvider) ModelID() string      { return p.model }
