package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Forum ForumConfig

	PostgresURL        string
	PostgresSecretPath string

	LogLevel        log.Level
	LogFormat       LogFormat
	TestModeEnabled bool

	BackgroundInterval time.Duration
}

type ForumConfig struct {
	BaseURL   url.URL
	AuthURL   url.URL
	Channel   string
	UserAgent string
	PageSize  int

	ClientID     string
	ClientSecret string
	SecretPath   string
}

type LogFormat string

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

type EnvfileKey string

const (
	// Postgres connection string to use for database connections
	EnvfileKeyPostgresURL = "POSTGRES_URL"
	// AWS Secrets Manager path where Postgres connection string can be found
	EnvfileKeyPostgresSecretsPath = "POSTGRES_SECRETS_PATH"

	// Base URL of the authenticated forum API
	EnvfileKeyForumBaseURL = "FORUM_BASE_URL"
	// Base URL of the forum's token endpoint
	EnvfileKeyForumAuthURL = "FORUM_AUTH_URL"
	// Name of the forum channel whose replies are harvested
	EnvfileKeyForumChannel = "FORUM_CHANNEL"
	// User-Agent string sent on every forum API request; the forum
	// throttles clients that omit one
	EnvfileKeyForumUserAgent = "FORUM_USER_AGENT"
	// Number of replies to request per call to the listing endpoint
	EnvfileKeyForumPageSize = "FORUM_PAGE_SIZE"
	// Forum API credentials, used when no secrets path is configured
	EnvfileKeyForumClientID     = "FORUM_CLIENT_ID"
	EnvfileKeyForumClientSecret = "FORUM_CLIENT_SECRET"
	// AWS Secrets Manager path where forum API credentials can be found
	EnvfileKeyForumSecretPath = "FORUM_SECRETS_PATH"

	// Log level (e.g. "debug", "info", "warn", "error")
	EnvfileKeyLogLevel = "LOG_LEVEL"
	// Log output format (e.g. "text", "json")
	EnvfileKeyLogFormat = "LOG_FORMAT"
	// Enables "test mode" (passes classify and count but skip store writes)
	EnvfileKeyTestMode = "TEST_MODE"

	// Seconds to sleep between pass pairs in background mode
	EnvfileKeyBackgroundInterval = "BACKGROUND_INTERVAL"
)

const (
	defaultPageSize           = 100
	defaultUserAgent          = "curator harvest bot v0.1"
	defaultBackgroundInterval = 5 * time.Minute
)

func FromEnvfile() Config {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("dotenv")

	err := viper.ReadInConfig()
	if err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	baseURL, err := url.Parse(getConfigString(EnvfileKeyForumBaseURL))
	if err != nil {
		log.Fatalf("error parsing forum base URL: %v", err)
	}
	if baseURL.Host == "" {
		log.Fatal("must supply forum base URL")
	}

	authURL, err := url.Parse(getConfigString(EnvfileKeyForumAuthURL))
	if err != nil {
		log.Fatalf("error parsing forum auth URL: %v", err)
	}
	if authURL.Host == "" {
		// The token endpoint usually lives on the same host
		authURL = baseURL
	}

	channel := getConfigString(EnvfileKeyForumChannel)
	if channel == "" {
		log.Fatal("must supply forum channel to harvest")
	}

	userAgent := getConfigString(EnvfileKeyForumUserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	pageSize := getConfigInt(EnvfileKeyForumPageSize)
	if pageSize == 0 {
		pageSize = defaultPageSize
	}

	logLevel, err := log.ParseLevel(getConfigString(EnvfileKeyLogLevel))
	if err != nil {
		// Default to info level but log a warning
		log.Warnf("unable to parse log level: %v", err)
		logLevel = log.InfoLevel
	}

	logFormat, err := parseLogFormat(getConfigString(EnvfileKeyLogFormat))
	if err != nil {
		// Default to text formatter but log a warning
		log.Warnf("unable to parse log format: %v", err)
		logFormat = LogFormatText
	}

	postgresURL := getConfigString(EnvfileKeyPostgresURL)
	postgresSecretsPath := getConfigString(EnvfileKeyPostgresSecretsPath)
	if postgresURL == "" && postgresSecretsPath == "" {
		log.Fatal("postgres not configured")
	}

	clientID := getConfigString(EnvfileKeyForumClientID)
	clientSecret := getConfigString(EnvfileKeyForumClientSecret)
	forumSecretsPath := getConfigString(EnvfileKeyForumSecretPath)
	if (clientID == "" || clientSecret == "") && forumSecretsPath == "" {
		log.Fatal("forum credentials not configured")
	}

	interval := time.Duration(getConfigInt(EnvfileKeyBackgroundInterval)) * time.Second
	if interval == 0 {
		interval = defaultBackgroundInterval
	}

	isTestMode := viper.GetBool(EnvfileKeyTestMode)

	return Config{
		Forum: ForumConfig{
			BaseURL:      *baseURL,
			AuthURL:      *authURL,
			Channel:      channel,
			UserAgent:    userAgent,
			PageSize:     pageSize,
			ClientID:     clientID,
			ClientSecret: clientSecret,
			SecretPath:   forumSecretsPath,
		},
		PostgresURL:        postgresURL,
		PostgresSecretPath: postgresSecretsPath,
		LogLevel:           logLevel,
		LogFormat:          logFormat,
		TestModeEnabled:    isTestMode,
		BackgroundInterval: interval,
	}
}

func parseLogFormat(raw string) (LogFormat, error) {
	switch strings.ToLower(raw) {
	case LogFormatJSON:
		return LogFormatJSON, nil
	case LogFormatText:
		return LogFormatText, nil
	default:
		return "", fmt.Errorf("unidentified log format: %s", raw)
	}
}

// Gets a config value as a string from env vars or a .env file
func getConfigString(key string) string {
	value := os.Getenv(key)
	if value == "" {
		value = viper.GetString(key)
	}
	return value
}

// Gets a config value as an int from env vars or a .env file
func getConfigInt(key string) int {
	envVarValue := os.Getenv(key)
	if envVarValue == "" {
		return viper.GetInt(key)
	}
	value, err := strconv.Atoi(envVarValue)
	if err != nil {
		return 0
	}
	return value
}
