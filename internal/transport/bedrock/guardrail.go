package bedrock

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragd/internal/domain"
	"github.com/kailas-cloud/ragd/internal/metrics"
)

// actionBlocked is accepted alongside GUARDRAIL_INTERVENED.
const actionBlocked = "BLOCKED"

// Guardrail applies a Bedrock guardrail to input and output text.
type Guardrail struct {
	api     GuardrailAPI
	id      string
	version string
	logger  *zap.Logger
}

// NewGuardrail creates a Bedrock guardrail filter.
func NewGuardrail(api GuardrailAPI, id, version string, logger *zap.Logger) *Guardrail {
	return &Guardrail{api: api, id: id, version: version, logger: logger}
}

// Apply implements domain.Guardrail.
func (g *Guardrail) Apply(ctx context.Context, dir domain.Direction, text string) (domain.Verdict, error) {
	source := types.GuardrailContentSourceInput
	if dir == domain.DirectionOutput {
		source = types.GuardrailContentSourceOutput
	}

	out, err := g.api.ApplyGuardrail(ctx, &bedrockruntime.ApplyGuardrailInput{
		GuardrailIdentifier: aws.String(g.id),
		GuardrailVersion:    aws.String(g.version),
		Source:              source,
		Content: []types.GuardrailContentBlock{
			&types.GuardrailContentBlockMemberText{Value: types.GuardrailTextBlock{Text: aws.String(text)}},
		},
	})
	if err != nil {
		metrics.GuardrailVerdictsTotal.WithLabelValues(string(dir), "error").Inc()
		return domain.Verdict{}, fmt.Errorf("apply guardrail %s: %w: %w", dir, domain.ErrGuardrailProviderError, err)
	}

	action := string(out.Action)
	v := domain.Verdict{
		Blocked: action == string(types.GuardrailActionGuardrailIntervened) || action == actionBlocked,
		Text:    text,
		Action:  action,
	}
	if len(out.Outputs) > 0 && out.Outputs[0].Text != nil && *out.Outputs[0].Text != "" {
		v.Text = *out.Outputs[0].Text
	}

	verdict := "pass"
	if v.Blocked {
		verdict = "blocked"
		g.logger.Info("Guardrail intervened", zap.String("direction", string(dir)), zap.String("action", action))
	}
	metrics.GuardrailVerdictsTotal.WithLabelValues(string(dir), verdict).Inc()
	return v, nil
}
