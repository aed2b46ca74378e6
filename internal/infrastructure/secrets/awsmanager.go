package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/vitos/futures_rebalancer/internal/domain"
)

// ManagerProvider reads signing credentials from AWS Secrets Manager. The
// secret id is the caller's account identifier; the payload is JSON.
type ManagerProvider struct {
	client *secretsmanager.Client
}

func NewManagerProvider(ctx context.Context, region string) (*ManagerProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &ManagerProvider{client: secretsmanager.NewFromConfig(cfg)}, nil
}

type secretPayload struct {
	PrivateKey    string `json:"PRIVATE_KEY"`
	APIKeyIndex   int    `json:"API_KEY_INDEX"`
	WalletAddress string `json:"WALLET_ADDRESS"`
}

// GetCredentials fetches and parses the secret named by account.
func (p *ManagerProvider) GetCredentials(ctx context.Context, account string) (*domain.Credentials, error) {
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(account),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch secret %s: %w", account, err)
	}

	var raw string
	switch {
	case out.SecretString != nil:
		raw = *out.SecretString
	case out.SecretBinary != nil:
		raw = string(out.SecretBinary)
	}
	if raw == "" {
		return nil, fmt.Errorf("secret %s returned empty value", account)
	}

	var payload secretPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("secret %s is not valid JSON: %w", account, err)
	}

	return &domain.Credentials{
		PrivateKey:    payload.PrivateKey,
		APIKeyIndex:   payload.APIKeyIndex,
		WalletAddress: payload.WalletAddress,
	}, nil
}
