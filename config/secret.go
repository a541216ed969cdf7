package config

type ForumSecretData struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type PostgresSecretData struct {
	ConnectionString string `json:"connectionString"`
}
