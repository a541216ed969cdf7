package cmd

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	log "github.com/sirupsen/logrus"

	"github.com/replycorpus/curator/config"
)

// Setup shared by every subcommand: logging, the secrets manager client,
// and the Postgres connection string (direct from config or via a secret).

func initLogging(cfg config.Config) {
	log.SetLevel(cfg.LogLevel)

	switch cfg.LogFormat {
	case config.LogFormatJSON:
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{})
	}

	if cfg.TestModeEnabled {
		log.Info("TEST MODE ENABLED")
	}
}

func newSecretsManagerClient(ctx context.Context) *secretsmanager.Client {
	awsConfig, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatal(err)
	}
	return secretsmanager.NewFromConfig(awsConfig)
}

func resolveDatabaseURL(ctx context.Context, cfg config.Config, secretsManagerClient *secretsmanager.Client) string {
	if cfg.PostgresURL != "" {
		return cfg.PostgresURL
	}
	// Get the DB secrets from AWS Secrets Manager
	result, err := secretsManagerClient.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(cfg.PostgresSecretPath)})
	if err != nil {
		log.Fatal(err.Error())
	}
	var pgSecrets config.PostgresSecretData
	err = json.Unmarshal([]byte(*result.SecretString), &pgSecrets)
	if err != nil {
		log.Fatalf("postgres secrets read error: %v", err)
	}
	return pgSecrets.ConnectionString
}
