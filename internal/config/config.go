package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// Object storage (Supabase-compatible S3 endpoint)
	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3Region    string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	// Stripe settings. In production the secret key is pulled from Secret
	// Manager under StripeSecretName; the env var is the development
	// fallback.
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeSecretName    string `envconfig:"STRIPE_SECRET_NAME"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	CheckoutReturnURL   string `envconfig:"CHECKOUT_RETURN_URL" default:"http://localhost:3000/credits"`

	// GCP settings for Pub/Sub and Secret Manager
	GCPProjectID       string `envconfig:"GCP_PROJECT_ID"`
	GCPCredentialsFile string `envconfig:"GCP_CREDENTIALS_FILE"`
	LedgerEventTopic   string `envconfig:"LEDGER_EVENT_TOPIC" default:"ledger_events"`

	// External duplicate-screening service; empty disables screening.
	SimilarityServiceBaseURL string `envconfig:"SIMILARITY_SERVICE_BASE_URL"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
