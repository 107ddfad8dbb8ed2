package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string   `env:"APP_PORT" envDefault:"3000"`
	AppEnv         string   `env:"APP_ENV" envDefault:"development"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	InviteSecret         string        `env:"INVITE_SECRET,required,notEmpty"`
	InviteSingleUse      bool          `env:"INVITE_SINGLE_USE" envDefault:"false"`
	InviteCodeTTLMinutes int           `env:"INVITE_CODE_TTL_MINUTES" envDefault:"5"`
	EmailCodeTTLMinutes  int           `env:"EMAIL_CODE_TTL_MINUTES" envDefault:"10"`
	SweepInterval        time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	BcryptCost           int           `env:"BCRYPT_COST" envDefault:"12"`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to DynamoDB Local / LocalStack in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSMaxAttempts int    `env:"AWS_MAX_ATTEMPTS" envDefault:"3"`
	DynamoTables   DynamoTables

	Mail Mail
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Accounts       string `env:"DYNAMO_TABLE_ACCOUNTS" envDefault:"accounts"`
	AccountUniques string `env:"DYNAMO_TABLE_ACCOUNT_UNIQUES" envDefault:"account_uniques"`
}

// Mail configures delivery of verification emails.
type Mail struct {
	Transport   string `env:"EMAIL_TRANSPORT" envDefault:"smtp"` // "smtp" | "log"
	SMTPHost    string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort    string `env:"SMTP_PORT" envDefault:"587"`
	User        string `env:"EMAIL_USER"`
	Password    string `env:"EMAIL_PASS"`
	FromName    string `env:"EMAIL_FROM_NAME" envDefault:"Robit"`
	FromAddress string `env:"EMAIL_FROM_ADDRESS"`
}

// InviteCodeTTL is the lifetime of an invite code.
func (c *Config) InviteCodeTTL() time.Duration {
	return time.Duration(c.InviteCodeTTLMinutes) * time.Minute
}

// EmailCodeTTL is the lifetime of a verification code and its pending registration.
func (c *Config) EmailCodeTTL() time.Duration {
	return time.Duration(c.EmailCodeTTLMinutes) * time.Minute
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Mail.FromAddress == "" {
		cfg.Mail.FromAddress = cfg.Mail.User
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.InviteCodeTTLMinutes <= 0 {
		return fmt.Errorf("INVITE_CODE_TTL_MINUTES must be positive, got %d", c.InviteCodeTTLMinutes)
	}
	if c.EmailCodeTTLMinutes <= 0 {
		return fmt.Errorf("EMAIL_CODE_TTL_MINUTES must be positive, got %d", c.EmailCodeTTLMinutes)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	switch c.Mail.Transport {
	case "smtp", "log":
	default:
		return fmt.Errorf("EMAIL_TRANSPORT must be smtp or log, got %q", c.Mail.Transport)
	}
	return nil
}
