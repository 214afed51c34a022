package conf

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

func (p PgConf) isLocal() bool {
	return p.Host == "localhost" || p.Host == "127.0.0.1"
}

// PgConnString resolves the Postgres password (env for local hosts,
// otherwise Secrets Manager) and returns a keyword/value connection string.
func (c *Config) PgConnString(ctx context.Context) (string, error) {
	pw := c.Postgres.Password
	if pw == "" && !c.Postgres.isLocal() {
		awsCfg, err := c.LoadAWSConfig(ctx)
		if err != nil {
			return "", err
		}
		secretValue, err := getSecretFromAWS(ctx, secretsmanager.NewFromConfig(awsCfg), c.Postgres.SecretName)
		if err != nil {
			return "", fmt.Errorf("failed to get postgres password from AWS: %w", err)
		}
		var secret struct {
			Password string `json:"password"`
		}
		if err := json.Unmarshal([]byte(secretValue), &secret); err != nil {
			return "", fmt.Errorf("failed to parse postgres password secret: %w", err)
		}
		pw = secret.Password
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host, c.Postgres.Port, c.Postgres.User, pw, c.Postgres.DB, c.Postgres.SSLMode), nil
}

type secretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

func getSecretFromAWS(ctx context.Context, svc secretGetter, secretName string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	result, err := svc.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return "", err
	}
	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", secretName)
	}
	return *result.SecretString, nil
}
