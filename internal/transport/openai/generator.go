package openai

import (
	"context"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragd/internal/domain"
	"github.com/kailas-cloud/ragd/internal/metrics"
)

// Generator answers questions through an OpenAI-compatible chat completions endpoint.
type Generator struct {
	client *openai.Client
	spec   domain.GenerationSpec
	user   string
	logger *zap.Logger
}

// NewGenerator creates a chat-completions generator for a resolved spec.
func NewGenerator(cfg *Config, spec domain.GenerationSpec) *Generator {
	return &Generator{
		client: newClient(cfg),
		spec:   spec,
		user:   cfg.User,
		logger: cfg.Logger,
	}
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, question, contextText string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.spec.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: domain.BuildPrompt(question, contextText)},
		},
		MaxTokens:   g.spec.MaxTokens,
		Temperature: g.spec.Temperature,
		User:        g.user,
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	metrics.GenerationRequestDuration.WithLabelValues(providerLabel, g.spec.Model).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(providerLabel, g.spec.Model, "error").Inc()
		return "", parseAPIError("generation", err, domain.ErrGenerationProviderError)
	}

	var answer string
	if len(resp.Choices) > 0 {
		answer = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if answer == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(providerLabel, g.spec.Model, "empty").Inc()
		return "", domain.ErrEmptyAnswer
	}

	metrics.GenerationRequestsTotal.WithLabelValues(providerLabel, g.spec.Model, "success").Inc()
	g.logger.Debug("Generation completed",
		zap.String("model", g.spec.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return answer, nil
}
