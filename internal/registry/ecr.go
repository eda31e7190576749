// Package registry authorizes docker against the container registry before
// push steps. The authorization token is fed to docker on stdin so the
// credential never appears in argv, the environment or any log.
package registry

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/savaki/stack-runner/internal/errors"
	"github.com/savaki/stack-runner/internal/executor"
	"github.com/savaki/stack-runner/internal/secrets"
)

// ECRAPI is the subset of the ECR client used here.
type ECRAPI interface {
	GetAuthorizationToken(ctx context.Context, params *ecr.GetAuthorizationTokenInput, optFns ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error)
}

// STSAPI is the subset of the STS client used here.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Service resolves registry credentials and performs docker login.
type Service struct {
	ecrClient ECRAPI
	stsClient STSAPI
	region    string
}

// NewService creates a registry service from existing clients.
func NewService(ecrClient ECRAPI, stsClient STSAPI, region string) *Service {
	return &Service{
		ecrClient: ecrClient,
		stsClient: stsClient,
		region:    region,
	}
}

// NewFromConfig creates a registry service for the given region.
func NewFromConfig(ctx context.Context, region string) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewService(ecr.NewFromConfig(cfg), sts.NewFromConfig(cfg), region), nil
}

// Credentials is a resolved registry login.
type Credentials struct {
	Host     string
	Username string
	Password string
}

// Host returns the account-scoped registry hostname.
func (s *Service) Host(ctx context.Context) (string, error) {
	identity, err := s.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to get caller identity: %w", err)
	}
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com", aws.ToString(identity.Account), s.region), nil
}

// Credentials fetches and decodes an authorization token. The token decodes
// to "user:password" with a registry endpoint alongside.
func (s *Service) Credentials(ctx context.Context) (*Credentials, error) {
	output, err := s.ecrClient.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization token: %w", err)
	}
	if len(output.AuthorizationData) == 0 {
		return nil, errors.ErrRegistryAuthFailed
	}
	data := output.AuthorizationData[0]

	raw, err := base64.StdEncoding.DecodeString(aws.ToString(data.AuthorizationToken))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrRegistryAuthFailed, err)
	}
	username, password, found := strings.Cut(string(raw), ":")
	if !found || username == "" || password == "" {
		return nil, errors.ErrRegistryAuthFailed
	}

	host := strings.TrimPrefix(aws.ToString(data.ProxyEndpoint), "https://")
	if host == "" {
		host, err = s.Host(ctx)
		if err != nil {
			return nil, err
		}
	}

	return &Credentials{Host: host, Username: username, Password: password}, nil
}

// Login fetches credentials and runs docker login. The password is
// registered with the redactor first and travels only over stdin.
func (s *Service) Login(ctx context.Context, exec *executor.Executor, redactor *secrets.Redactor) (string, error) {
	creds, err := s.Credentials(ctx)
	if err != nil {
		return "", err
	}
	redactor.Add(creds.Password)

	result, err := exec.Run(ctx, executor.Command{
		Name:  "docker",
		Args:  []string{"login", "--username", creds.Username, "--password-stdin", creds.Host},
		Stdin: strings.NewReader(creds.Password),
	})
	if err != nil {
		return "", fmt.Errorf("docker login: %w", err)
	}
	if !result.Ok() {
		return "", fmt.Errorf("docker login exited %d: %s", result.ExitCode, strings.TrimSpace(string(result.Stderr)))
	}
	return creds.Host, nil
}
