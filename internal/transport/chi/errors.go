package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kailas-cloud/ragd/internal/domain"
)

// Error codes returned in the "error" field.
const (
	codeValidationFailed      = "validation_failed"
	codeGuardrailBlockedInput = "guardrail_blocked_input"
	codeEmbeddingProvider     = "embedding_provider_error"
	codeGenerationProvider    = "generation_provider_error"
	codeGuardrailProvider     = "guardrail_provider_error"
	codeEmptyAnswer           = "empty_answer"
	codeObjectSource          = "object_source_error"
	codeInternal              = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, requestID string) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		guardrailBlockedHandler,
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider),
		sentinelHandler(domain.ErrMissingVector, http.StatusBadGateway, codeEmbeddingProvider),
		sentinelHandler(domain.ErrGenerationProviderError, http.StatusBadGateway, codeGenerationProvider),
		sentinelHandler(domain.ErrEmptyAnswer, http.StatusBadGateway, codeEmptyAnswer),
		sentinelHandler(domain.ErrGuardrailProviderError, http.StatusBadGateway, codeGuardrailProvider),
		sentinelHandler(domain.ErrObjectSource, http.StatusBadGateway, codeObjectSource),
	}
}

// safeDomainMessage returns a client-safe message without exposing internals.
// Validation errors carry the caller's own input problem and are returned in full.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrValidation) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrEmbeddingProviderError,
		domain.ErrMissingVector,
		domain.ErrGenerationProviderError,
		domain.ErrEmptyAnswer,
		domain.ErrGuardrailProviderError,
		domain.ErrObjectSource,
		domain.ErrTransaction,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// guardrailBlockedHandler answers a blocked question with the guardrail's own refusal text.
func guardrailBlockedHandler(w http.ResponseWriter, err error, requestID string) bool {
	var blocked *domain.GuardrailBlockedError
	if !errors.As(err, &blocked) {
		return false
	}
	writeError(w, http.StatusBadRequest, codeGuardrailBlockedInput, blocked.Text, requestID)
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, requestID string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, safeDomainMessage(err), requestID)
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message, requestID string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message, RequestID: requestID})
}
