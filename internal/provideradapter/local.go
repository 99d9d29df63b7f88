package provideradapter

import (
	"bufio"
	"context"
	"math/rand"
	"os"
	"strings"

	"github.com/radiumhq/radium/internal/errtax"
	"github.com/radiumhq/radium/pkg/radiumtypes"
)

// LocalProvider is a dependency-free bigram language model over a vocab
// file, used by `doctor` and offline tests when no network provider is
// configured. It is deterministic given a fixed seed.
type LocalProvider struct {
	model      string
	bigrams    map[string][]string
	vocab      []string
	rng        *rand.Rand
	checkpoint string
}

// LocalConfig configures the bigram provider.
type LocalConfig struct {
	// CheckpointPath points at a vocab file, one token per line, ordered by
	// observed sequence so adjacent lines form bigrams. Falls back to
	// RADIUM_BURN_BIGRAM_CHECKPOINT when empty.
	CheckpointPath string
	Model          string
	Seed           int64
}

// NewLocalProvider builds a LocalProvider, loading the bigram table from
// cfg.CheckpointPath (or the environment variable fallback).
func NewLocalProvider(cfg LocalConfig) (*LocalProvider, error) {
	path := cfg.CheckpointPath
	if path == "" {
		path = os.Getenv("RADIUM_BURN_BIGRAM_CHECKPOINT")
	}
	p := &LocalProvider{
		model:      cfg.Model,
		bigrams:    make(map[string][]string),
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		checkpoint: path,
	}
	if path == "" {
		// No checkpoint configured: operate over a minimal built-in vocab so
		// the provider is still usable for smoke tests.
		p.vocab = []string{"ok", "done", "error", "pending"}
		return p, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errtax.RequestError("failed to open bigram checkpoint: " + err.Error())
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var prev string
	for scanner.Scan() {
		tok := strings.TrimSpace(scanner.Text())
		if tok == "" {
			continue
		}
		p.vocab = append(p.vocab, tok)
		if prev != "" {
			p.bigrams[prev] = append(p.bigrams[prev], tok)
		}
		prev = tok
	}
	if len(p.vocab) == 0 {
		p.vocab = []string{"ok"}
	}
	return p, nil
}

func (p *LocalProvider) next(tok string) string {
	if choices, ok := p.bigrams[tok]; ok && len(choices) > 0 {
		return choices[p.rng.Intn(len(choices))]
	}
	return p.vocab[p.rng.Intn(len(p.vocab))]
}

// Generate produces a short deterministic continuation seeded by the last
// word of the final user message. Zero-token input still produces a
// well-formed, possibly empty, response.
func (p *LocalProvider) Generate(ctx context.Context, req *radiumtypes.ModelRequest) (*radiumtypes.ModelResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seed := "ok"
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if text := req.Messages[i].Text(); text != "" {
			fields := strings.Fields(text)
			if len(fields) > 0 {
				seed = strings.ToLower(fields[len(fields)-1])
			}
			break
		}
	}
	words := []string{seed}
	cur := seed
	length := req.MaxTokens
	if length <= 0 || length > 16 {
		length = 8
	}
	for i := 0; i < length; i++ {
		cur = p.next(cur)
		words = append(words, cur)
	}
	content := strings.Join(words, " ")
	return &radiumtypes.ModelResponse{
		Content:      content,
		FinishReason: radiumtypes.FinishStop,
		Usage: radiumtypes.Usage{
			InputTokens:  countTokens(req.Messages),
			OutputTokens: len(words),
		},
		Model:    p.model,
		Provider: string(ModelTypeLocal),
	}, nil
}

func countTokens(messages []radiumtypes.Message) int {
	n := 0
	for _, m := range messages {
		n += len(strings.Fields(m.Text()))
	}
	return n
}

func (p *LocalProvider) GenerateStream(ctx context.Context, req *radiumtypes.ModelRequest) (<-chan radiumtypes.StreamToken, error) {
	resp, err := p.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	ch := make(chan radiumtypes.StreamToken, 1)
	go func() {
		defer close(ch)
		for _, w := range strings.Fields(resp.Content) {
			select {
			case <-ctx.Done():
				return
			case ch <- radiumtypes.StreamToken{Text: w + " "}:
			}
		}
		usage := resp.Usage
		ch <- radiumtypes.StreamToken{Done: true, Usage: &usage}
	}()
	return ch, nil
}

func (p *LocalProvider) ModelType() ModelType { return ModelTypeLocal }
func (p *LocalProvider) ModelID() string      { return p.model }
