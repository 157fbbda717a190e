package domain

import (
	"strings"
	"testing"
)

func TestResolveGeneration_Families(t *testing.T) {
	tests := []struct {
		provider string
		model    string
		want     GenFamily
	}{
		{"bedrock", "anthropic.claude-3-haiku-20240307-v1:0", GenAnthropic},
		{"bedrock", "us.anthropic.claude-3-5-sonnet-20241022-v2:0", GenAnthropic},
		{"bedrock", "meta.llama3-8b-instruct-v1:0", GenLlama},
		{"bedrock", "us.meta.llama3-2-3b-instruct-v1:0", GenLlama},
		{"bedrock", "mistral.mistral-7b-instruct-v0:2", GenInstruction},
		{"bedrock", "amazon.nova-lite-v1:0", GenMessages},
		{ProviderOpenAI, "gpt-4o-mini", GenOpenAI},
	}
	for _, tt := range tests {
		spec, err := ResolveGeneration(tt.provider, tt.model, 600, 0.2)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.model, err)
			continue
		}
		if spec.Family != tt.want {
			t.Errorf("%s: Family = %q, want %q", tt.model, spec.Family, tt.want)
		}
	}
}

func TestResolveGeneration_EmptyModel(t *testing.T) {
	if _, err := ResolveGeneration("bedrock", "", 600, 0.2); err == nil {
		t.Error("expected error for empty model")
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("What is X?", "X is a letter.")
	for _, want := range []string{RefusalAnswer, "Context:\nX is a letter.", "Question:\nWhat is X?"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Index(p, "Context:") > strings.Index(p, "Question:") {
		t.Error("context must precede question")
	}
}

func TestNoopGuardrail(t *testing.T) {
	v, err := NoopGuardrail{}.Apply(t.Context(), DirectionInput, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Blocked || v.Text != "hello" {
		t.Errorf("got %+v", v)
	}
}
