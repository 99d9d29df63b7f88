package provideradapter

import (
	"context"
	"strings"
	"testing"

	"github.com/radiumhq/radium/pkg/radiumtypes"
)

func TestLocalProviderGenerateDeterministic(t *testing.T) {
	p1, err := NewLocalProvider(LocalConfig{Model: "bigram-v1", Seed: 42})
	if err != nil {
		t.Fatalf("NewLocalProvider: %v", err)
	}
	p2, err := NewLocalProvider(LocalConfig{Model: "bigram-v1", Seed: 42})
	if err != nil {
		t.Fatalf("NewLocalProvider: %v", err)
	}
	req := &radiumtypes.ModelRequest{
		Messages: []radiumtypes.Message{radiumtypes.TextMessage(radiumtypes.RoleUser, "please summarize status")},
	}
	r1, err := p1.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	r2, err := p2.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if r1.Content != r2.Content {
		t.Fatalf("same seed produced different output: %q vs %q", r1.Content, r2.Content)
	}
	if r1.FinishReason != radiumtypes.FinishStop {
		t.Fatalf("expected FinishStop, got %v", r1.FinishReason)
	}
}

func TestLocalProviderGenerateRespectsCancellation(t *testing.T) {
	p, err := NewLocalProvider(LocalConfig{Model: "bigram-v1"})
	if err != nil {
		t.Fatalf("NewLocalProvider: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Generate(ctx, &radiumtypes.ModelRequest{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestLocalProviderGenerateStreamEmitsDone(t *testing.T) {
	p, err := NewLocalProvider(LocalConfig{Model: "bigram-v1", Seed: 7})
	if err != nil {
		t.Fatalf("NewLocalProvider: %v", err)
	}
	req := &radiumtypes.ModelRequest{
		Messages: []radiumtypes.Message{radiumtypes.TextMessage(radiumtypes.RoleUser, "status")},
	}
	ch, err := p.GenerateStream(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}
	var sawDone bool
	var text strings.Builder
	for tok := range ch {
		if tok.Done {
			sawDone = true
			if tok.Usage == nil {
				t.Fatal("Done token missing usage")
			}
			continue
		}
		text.WriteString(tok.Text)
	}
	if !sawDone {
		t.Fatal("stream never emitted a Done token")
	}
	if text.Len() == 0 {
		t.Fatal("stream produced no text")
	}
}
