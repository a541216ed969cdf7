package service

import (
	"context"
	"encoding/json"

	"github.com/replycorpus/curator/config"
	"github.com/replycorpus/curator/forum"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	log "github.com/sirupsen/logrus"
)

// ForumService wraps the forum API client with the configured channel and
// resolved credentials.
type ForumService struct {
	channel string
	client  *forum.Client
}

func NewForumService(ctx context.Context, cfg config.Config, secretsManagerClient *secretsmanager.Client) *ForumService {
	creds := forum.Credentials{
		ClientID:     cfg.Forum.ClientID,
		ClientSecret: cfg.Forum.ClientSecret,
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		// Get the forum secrets from AWS Secrets Manager
		result, err := secretsManagerClient.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(cfg.Forum.SecretPath)})
		if err != nil {
			log.Fatal(err.Error())
		}
		var forumSecrets config.ForumSecretData
		err = json.Unmarshal([]byte(*result.SecretString), &forumSecrets)
		if err != nil {
			log.Panicf("forum secrets read error: %v", err)
		}
		creds.ClientID = forumSecrets.ClientID
		creds.ClientSecret = forumSecrets.ClientSecret
	}

	client := forum.NewClient(creds, cfg.Forum.BaseURL, cfg.Forum.AuthURL, cfg.Forum.UserAgent, cfg.Forum.PageSize)
	log.Infof("forum client initialized. Host: %s channel: %s", cfg.Forum.BaseURL.String(), cfg.Forum.Channel)

	return &ForumService{
		channel: cfg.Forum.Channel,
		client:  client,
	}
}

// FetchRecent pulls up to limit of the newest replies from the configured channel.
func (s *ForumService) FetchRecent(ctx context.Context, limit int) ([]forum.RawReply, error) {
	return s.client.FetchRecent(ctx, s.channel, limit)
}

// FetchReply looks up a single reply by id.
func (s *ForumService) FetchReply(ctx context.Context, id string) (*forum.RawReply, error) {
	return s.client.FetchReply(ctx, id)
}

func (s *ForumService) Channel() string {
	return s.channel
}
