package registry

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savaki/stack-runner/internal/errors"
)

type fakeECR struct {
	token    string
	endpoint string
	err      error
}

func (f *fakeECR) GetAuthorizationToken(context.Context, *ecr.GetAuthorizationTokenInput, ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ecr.GetAuthorizationTokenOutput{
		AuthorizationData: []types.AuthorizationData{
			{
				AuthorizationToken: aws.String(f.token),
				ProxyEndpoint:      aws.String(f.endpoint),
			},
		},
	}, nil
}

type fakeSTS struct {
	account string
}

func (f *fakeSTS) GetCallerIdentity(context.Context, *sts.GetCallerIdentityInput, ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{Account: aws.String(f.account)}, nil
}

func encodeToken(user, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
}

func TestHost(t *testing.T) {
	s := NewService(&fakeECR{}, &fakeSTS{account: "123456789012"}, "us-east-1")

	host, err := s.Host(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "123456789012.dkr.ecr.us-east-1.amazonaws.com", host)
}

func TestCredentials(t *testing.T) {
	s := NewService(&fakeECR{
		token:    encodeToken("AWS", "ecr-password"),
		endpoint: "https://123456789012.dkr.ecr.us-east-1.amazonaws.com",
	}, &fakeSTS{account: "123456789012"}, "us-east-1")

	creds, err := s.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AWS", creds.Username)
	assert.Equal(t, "ecr-password", creds.Password)
	assert.Equal(t, "123456789012.dkr.ecr.us-east-1.amazonaws.com", creds.Host)
}

func TestCredentialsHostFallsBackToSTS(t *testing.T) {
	s := NewService(&fakeECR{
		token: encodeToken("AWS", "ecr-password"),
	}, &fakeSTS{account: "987654321098"}, "eu-west-1")

	creds, err := s.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "987654321098.dkr.ecr.eu-west-1.amazonaws.com", creds.Host)
}

func TestCredentialsRejectsMalformedToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "not base64", token: "%%%"},
		{name: "no separator", token: base64.StdEncoding.EncodeToString([]byte("nopassword"))},
		{name: "empty password", token: encodeToken("AWS", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(&fakeECR{token: tt.token}, &fakeSTS{account: "123456789012"}, "us-east-1")
			_, err := s.Credentials(context.Background())
			assert.ErrorIs(t, err, errors.ErrRegistryAuthFailed)
		})
	}
}
