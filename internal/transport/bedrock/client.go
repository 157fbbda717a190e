// Package bedrock adapts Amazon Bedrock runtime models and guardrails to the domain contracts.
package bedrock

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
)

// InvokeAPI is the subset of the Bedrock runtime client used for model calls.
type InvokeAPI interface {
	InvokeModel(
		ctx context.Context, in *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options),
	) (*bedrockruntime.InvokeModelOutput, error)
}

// GuardrailAPI is the subset of the Bedrock runtime client used for content filtering.
type GuardrailAPI interface {
	ApplyGuardrail(
		ctx context.Context, in *bedrockruntime.ApplyGuardrailInput, optFns ...func(*bedrockruntime.Options),
	) (*bedrockruntime.ApplyGuardrailOutput, error)
}

const providerLabel = "bedrock"

func invokeJSON(ctx context.Context, api InvokeAPI, model string, payload []byte) ([]byte, error) {
	out, err := api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with the matching provider sentinel
	}
	return out.Body, nil
}

// errorCode returns the AWS error code for metrics labels.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return "api_error"
}
