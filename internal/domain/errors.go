package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals missing or malformed request input.
	ErrValidation = errors.New("validation failed")
	// ErrExtraction signals that an object could not be converted to text.
	ErrExtraction = errors.New("extraction failed")
	// ErrEmbedding signals a failed embedding call for a single text.
	ErrEmbedding = errors.New("embedding failed")
	// ErrMissingVector signals an embedding response without any vector field.
	ErrMissingVector = errors.New("embedding response missing vector")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmptyAnswer signals that the generative model produced no text.
	ErrEmptyAnswer = errors.New("model returned empty response")
	// ErrGuardrailBlocked signals that the guardrail blocked the content.
	ErrGuardrailBlocked = errors.New("guardrail blocked content")
	// ErrTransaction signals an unexpected failure that rolled back an ingestion batch.
	ErrTransaction = errors.New("ingestion transaction aborted")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a generative model provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrGuardrailProviderError signals a guardrail service failure.
	ErrGuardrailProviderError = errors.New("guardrail provider error")
	// ErrObjectSource signals an object listing or download failure.
	ErrObjectSource = errors.New("object source error")
)

// DimensionMismatchError wraps ErrVectorDimMismatch with the observed and expected lengths.
type DimensionMismatchError struct {
	Got      int
	Expected int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: got %d, expected %d", ErrVectorDimMismatch.Error(), e.Got, e.Expected)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrVectorDimMismatch }

// GuardrailBlockedError wraps ErrGuardrailBlocked with the guardrail's replacement text.
type GuardrailBlockedError struct {
	Direction Direction
	Text      string
	Action    string
}

func (e *GuardrailBlockedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrGuardrailBlocked.Error(), e.Direction)
}

func (e *GuardrailBlockedError) Unwrap() error { return ErrGuardrailBlocked }

// CheckDimensions returns a *DimensionMismatchError when len(vec) != expected.
func CheckDimensions(vec []float32, expected int) error {
	if len(vec) != expected {
		return &DimensionMismatchError{Got: len(vec), Expected: expected}
	}
	return nil
}
