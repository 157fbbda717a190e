package domain

import "context"

// Direction tells the guardrail whether it is screening user input or model output.
type Direction string

// Guardrail directions.
const (
	DirectionInput  Direction = "INPUT"
	DirectionOutput Direction = "OUTPUT"
)

// Verdict is the outcome of a guardrail check. Text is always usable, even when Blocked.
type Verdict struct {
	Blocked bool
	Text    string
	Action  string
}

// Guardrail screens text in one direction.
type Guardrail interface {
	Apply(ctx context.Context, dir Direction, text string) (Verdict, error)
}

// NoopGuardrail passes every text through unchanged.
type NoopGuardrail struct{}

// Apply implements Guardrail.
func (NoopGuardrail) Apply(_ context.Context, _ Direction, text string) (Verdict, error) {
	return Verdict{Text: text}, nil
}
