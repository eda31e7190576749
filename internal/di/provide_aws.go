package di

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

func ProvideAWSConfig(ctx context.Context, disableAWS DisableAWS) (aws.Config, error) {
	if disableAWS {
		return aws.Config{}, nil
	}
	return config.LoadDefaultConfig(ctx)
}

// ProvideSSMClient provides an SSM client for Parameter Store access.
// Returns nil when AWS is disabled or DISABLE_SSM is set (local development).
func ProvideSSMClient(awsConfig aws.Config, disableAWS DisableAWS) *ssm.Client {
	if disableAWS || os.Getenv("DISABLE_SSM") == "true" {
		return nil
	}
	return ssm.NewFromConfig(awsConfig)
}

// ProvideSecretsManagerClient provides a Secrets Manager client. Nil when
// AWS is disabled.
func ProvideSecretsManagerClient(awsConfig aws.Config, disableAWS DisableAWS) *secretsmanager.Client {
	if disableAWS {
		return nil
	}
	return secretsmanager.NewFromConfig(awsConfig)
}
