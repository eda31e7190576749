package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"

	"github.com/savaki/stack-runner/internal/errors"
)

// SecretsManagerAPI is the subset of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerProvider resolves references against AWS Secrets Manager.
// Secrets are stored as JSON objects; a ref's field selects one key. A ref
// without a field returns the raw secret string.
type SecretsManagerProvider struct {
	client SecretsManagerAPI
}

// NewSecretsManagerProvider creates a provider backed by the given client.
func NewSecretsManagerProvider(client SecretsManagerAPI) *SecretsManagerProvider {
	return &SecretsManagerProvider{client: client}
}

// Resolve fetches the secret at ref.Path and extracts ref.Field.
func (p *SecretsManagerProvider) Resolve(ctx context.Context, ref Ref) (string, error) {
	result, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(ref.Path),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException" {
			return "", fmt.Errorf("secret %s: %w", ref.Path, errors.ErrSecretNotFound)
		}
		return "", fmt.Errorf("failed to get secret %s: %w", ref.Path, err)
	}

	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", ref.Path)
	}
	value := *result.SecretString

	if ref.Field == "" {
		return value, nil
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(value), &fields); err != nil {
		return "", fmt.Errorf("secret %s is not a JSON object: %w", ref.Path, err)
	}

	fieldValue, ok := fields[ref.Field]
	if !ok {
		return "", fmt.Errorf("secret %s field %s: %w", ref.Path, ref.Field, errors.ErrSecretFieldNotFound)
	}

	return fieldValue, nil
}
