package domain

import (
	"context"
	"fmt"
	"strings"
)

// RefusalAnswer is the exact reply the model must give when the context is insufficient.
const RefusalAnswer = "I don't know based on the provided documents."

// Generator produces an answer grounded in the supplied context.
type Generator interface {
	Generate(ctx context.Context, question, context string) (string, error)
}

// GenFamily selects the request shape of a generative model.
type GenFamily string

// Generative model families.
const (
	// GenAnthropic is the Anthropic messages API on Bedrock.
	GenAnthropic GenFamily = "anthropic"
	// GenMessages is a chat-message payload without a vendor version field.
	GenMessages GenFamily = "messages"
	// GenInstruction is a flat {"prompt", "max_tokens"} payload.
	GenInstruction GenFamily = "instruction"
	// GenLlama is the Meta variant of GenInstruction that takes "max_gen_len".
	GenLlama GenFamily = "llama"
	// GenOpenAI is an OpenAI-compatible chat completions endpoint.
	GenOpenAI GenFamily = "openai"
)

var instructionPrefixes = []string{"mistral.", "cohere."}

// GenerationSpec is the startup-resolved generation configuration.
type GenerationSpec struct {
	Family      GenFamily
	Model       string
	MaxTokens   int
	Temperature float32
}

// ResolveGeneration picks the model family for a generative model identifier once.
func ResolveGeneration(provider, model string, maxTokens int, temperature float32) (GenerationSpec, error) {
	if model == "" {
		return GenerationSpec{}, fmt.Errorf("generation model is required")
	}
	spec := GenerationSpec{Model: model, MaxTokens: maxTokens, Temperature: temperature}

	lower := strings.ToLower(model)
	switch {
	case provider == ProviderOpenAI:
		spec.Family = GenOpenAI
	case strings.Contains(model, "anthropic.") || strings.Contains(lower, "claude"):
		spec.Family = GenAnthropic
	case strings.HasPrefix(stripRegion(lower), "meta."):
		spec.Family = GenLlama
	case hasAnyPrefix(stripRegion(lower), instructionPrefixes):
		spec.Family = GenInstruction
	default:
		spec.Family = GenMessages
	}
	return spec, nil
}

// stripRegion drops a cross-region inference profile prefix such as "us." or "eu.".
func stripRegion(model string) string {
	if i := strings.IndexByte(model, '.'); i == 2 {
		return model[i+1:]
	}
	return model
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// BuildPrompt renders the context-grounded prompt sent to every model family.
func BuildPrompt(question, context string) string {
	var sb strings.Builder
	sb.WriteString("You are an assistant answering questions about a document collection.\n")
	sb.WriteString("You MUST answer ONLY using the Context.\n")
	sb.WriteString(`If Context does not contain the answer, reply exactly: "` + RefusalAnswer + `"`)
	sb.WriteString("\n\nContext:\n")
	sb.WriteString(context)
	sb.WriteString("\n\nQuestion:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer (cite document titles when relevant):")
	return sb.String()
}
