package chat

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragd/internal/domain"
	"github.com/kailas-cloud/ragd/internal/logger"
	"github.com/kailas-cloud/ragd/internal/metrics"
)

// Retrieval bounds.
const (
	MinTopK            = 1
	MaxTopK            = 20
	MinMaxContextChars = 1000
	MaxMaxContextChars = 50000
)

// ContextSeparator joins chunk contents in the prompt context.
const ContextSeparator = "\n\n---\n\n"

// Request is one chat turn.
type Request struct {
	Question        string
	TopK            int // 0 = configured default
	MaxContextChars int // 0 = configured default
}

// Answer is the outcome of a chat turn.
type Answer struct {
	Answer    string
	Citations []domain.Citation
	// OutputBlocked is set when the guardrail rewrote the answer; citations are dropped.
	OutputBlocked bool
}

// Config holds the chat defaults resolved at startup.
type Config struct {
	DefaultTopK            int
	DefaultMaxContextChars int
}

// Service answers questions from the indexed documents.
type Service struct {
	guard     Guardrail
	embed     Embedder
	search    Searcher
	generator Generator
	cfg       Config
}

// New creates a chat service. A nil guardrail passes all text through.
func New(guard Guardrail, embed Embedder, search Searcher, generator Generator, cfg Config) *Service {
	if guard == nil {
		guard = domain.NoopGuardrail{}
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 6
	}
	if cfg.DefaultMaxContextChars <= 0 {
		cfg.DefaultMaxContextChars = 12000
	}
	return &Service{guard: guard, embed: embed, search: search, generator: generator, cfg: cfg}
}

// Ask runs guardrail, retrieval, generation and guardrail again for one question.
// A blocked question returns a *domain.GuardrailBlockedError carrying the refusal text.
func (s *Service) Ask(ctx context.Context, req Request) (Answer, error) {
	ans, outcome, err := s.ask(ctx, req)
	metrics.ChatTurnsTotal.WithLabelValues(outcome).Inc()
	return ans, err
}

func (s *Service) ask(ctx context.Context, req Request) (Answer, string, error) {
	log := logger.FromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Answer{}, "invalid", fmt.Errorf("%w: question is required", domain.ErrValidation)
	}
	topK := clamp(req.TopK, s.cfg.DefaultTopK, MinTopK, MaxTopK)
	maxChars := clamp(req.MaxContextChars, s.cfg.DefaultMaxContextChars, MinMaxContextChars, MaxMaxContextChars)

	in, err := s.guard.Apply(ctx, domain.DirectionInput, question)
	if err != nil {
		return Answer{}, "error", fmt.Errorf("input guardrail: %w", err)
	}
	if in.Blocked {
		log.Info("chat_blocked_input", zap.String("action", in.Action))
		return Answer{}, "blocked_input", &domain.GuardrailBlockedError{
			Direction: domain.DirectionInput,
			Text:      in.Text,
			Action:    in.Action,
		}
	}

	emb, err := s.embed.Embed(ctx, in.Text)
	if err != nil {
		return Answer{}, "error", fmt.Errorf("embed question: %w", err)
	}
	hits, err := s.search.SimilaritySearch(ctx, emb.Embedding, topK)
	if err != nil {
		return Answer{}, "error", fmt.Errorf("retrieve: %w", err)
	}

	block, citations := BuildContext(hits, maxChars)
	log.Info("chat_retrieve",
		zap.Int("top_k", topK),
		zap.Int("hits", len(hits)),
		zap.Int("used", len(citations)),
		zap.Int("context_chars", utf8.RuneCountInString(block)),
	)

	answer, err := s.generator.Generate(ctx, in.Text, block)
	if err != nil {
		return Answer{}, "error", fmt.Errorf("generate: %w", err)
	}

	out, err := s.guard.Apply(ctx, domain.DirectionOutput, answer)
	if err != nil {
		return Answer{}, "error", fmt.Errorf("output guardrail: %w", err)
	}
	if out.Blocked {
		log.Info("chat_blocked_output", zap.String("action", out.Action))
		return Answer{Answer: out.Text, Citations: []domain.Citation{}, OutputBlocked: true}, "blocked_output", nil
	}

	return Answer{Answer: out.Text, Citations: citations}, "answered", nil
}

// BuildContext greedily joins hit contents in order until the next one would
// exceed maxChars runes, separator included. Empty contents are skipped.
// Every included hit yields exactly one citation.
func BuildContext(hits []domain.ScoredChunk, maxChars int) (string, []domain.Citation) {
	sepLen := utf8.RuneCountInString(ContextSeparator)

	var sb strings.Builder
	used := 0
	citations := make([]domain.Citation, 0, len(hits))
	for _, h := range hits {
		if strings.TrimSpace(h.Content) == "" {
			continue
		}
		add := utf8.RuneCountInString(h.Content)
		if used > 0 {
			add += sepLen
		}
		if used+add > maxChars {
			break
		}
		if used > 0 {
			sb.WriteString(ContextSeparator)
		}
		sb.WriteString(h.Content)
		used += add
		citations = append(citations, citationOf(h))
	}
	return sb.String(), citations
}

func citationOf(h domain.ScoredChunk) domain.Citation {
	c := domain.Citation{DocID: h.DocID, ChunkID: h.ChunkID, Score: h.Score}
	if h.Title != "" {
		title := h.Title
		c.Title = &title
	}
	return c
}

func clamp(v, def, lo, hi int) int {
	if v == 0 {
		v = def
	}
	return max(lo, min(v, hi))
}
