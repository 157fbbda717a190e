package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragd/internal/domain"
	"github.com/kailas-cloud/ragd/internal/metrics"
)

const anthropicVersion = "bedrock-2023-05-31"

// Generator calls a Bedrock text generation model.
type Generator struct {
	api    InvokeAPI
	spec   domain.GenerationSpec
	logger *zap.Logger
}

// NewGenerator creates a Bedrock generator for a resolved spec.
func NewGenerator(api InvokeAPI, spec domain.GenerationSpec, logger *zap.Logger) *Generator {
	return &Generator{api: api, spec: spec, logger: logger}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	AnthropicVersion string    `json:"anthropic_version,omitempty"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float32   `json:"temperature"`
	Messages         []message `json:"messages"`
}

type instructionRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	MaxGenLen   int     `json:"max_gen_len,omitempty"`
	Temperature float32 `json:"temperature"`
}

type textPart struct {
	Text string `json:"text"`
}

// generateResponse covers the response shapes of the supported model vendors.
type generateResponse struct {
	Content []textPart `json:"content"`
	Output  struct {
		Message struct {
			Content []textPart `json:"content"`
		} `json:"message"`
	} `json:"output"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Outputs       []textPart `json:"outputs"`
	Generation    string     `json:"generation"`
	GeneratedText string     `json:"generated_text"`
	Text          string     `json:"text"`
	OutputText    string     `json:"outputText"`
}

func (g *Generator) payload(prompt string) ([]byte, error) {
	var req any
	switch g.spec.Family {
	case domain.GenAnthropic:
		req = messagesRequest{
			AnthropicVersion: anthropicVersion,
			MaxTokens:        g.spec.MaxTokens,
			Temperature:      g.spec.Temperature,
			Messages:         []message{{Role: "user", Content: prompt}},
		}
	case domain.GenInstruction:
		req = instructionRequest{Prompt: prompt, MaxTokens: g.spec.MaxTokens, Temperature: g.spec.Temperature}
	case domain.GenLlama:
		req = instructionRequest{Prompt: prompt, MaxGenLen: g.spec.MaxTokens, Temperature: g.spec.Temperature}
	default:
		req = messagesRequest{
			MaxTokens:   g.spec.MaxTokens,
			Temperature: g.spec.Temperature,
			Messages:    []message{{Role: "user", Content: prompt}},
		}
	}
	return json.Marshal(req) //nolint:wrapcheck // plain structs, cannot fail
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, question, contextText string) (string, error) {
	model := g.spec.Model
	body, err := g.payload(domain.BuildPrompt(question, contextText))
	if err != nil {
		return "", fmt.Errorf("encode generation request: %w", err)
	}

	start := time.Now()
	raw, err := invokeJSON(ctx, g.api, model, body)
	metrics.GenerationRequestDuration.WithLabelValues(providerLabel, model).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(providerLabel, model, "error").Inc()
		return "", fmt.Errorf("generation %s: %w: %w", model, domain.ErrGenerationProviderError, err)
	}

	answer, err := parseAnswer(raw)
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(providerLabel, model, "error").Inc()
		return "", fmt.Errorf("decode generation response: %w: %w", domain.ErrGenerationProviderError, err)
	}
	if answer == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(providerLabel, model, "empty").Inc()
		return "", domain.ErrEmptyAnswer
	}

	metrics.GenerationRequestsTotal.WithLabelValues(providerLabel, model, "success").Inc()
	g.logger.Debug("Generation completed", zap.String("model", model), zap.Int("answer_chars", len(answer)))
	return answer, nil
}

// parseAnswer extracts the answer text, trying each vendor shape in priority order.
func parseAnswer(raw []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err //nolint:wrapcheck // wrapped by caller
	}

	candidates := []string{
		joinParts(resp.Content),
		joinParts(resp.Output.Message.Content),
	}
	if len(resp.Choices) > 0 {
		candidates = append(candidates, resp.Choices[0].Message.Content)
	}
	if len(resp.Outputs) > 0 {
		candidates = append(candidates, resp.Outputs[0].Text)
	}
	candidates = append(candidates, resp.Generation, resp.GeneratedText, resp.Text, resp.OutputText)

	for _, c := range candidates {
		if c != "" {
			return strings.TrimSpace(c), nil
		}
	}
	return "", nil
}

func joinParts(parts []textPart) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}
