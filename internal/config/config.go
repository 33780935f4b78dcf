package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"GO_ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// OAuth
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `mapstructure:"GOOGLE_CALLBACK_URL"`

	GithubClientID     string `mapstructure:"GITHUB_CLIENT_ID"`
	GithubClientSecret string `mapstructure:"GITHUB_CLIENT_SECRET"`
	GithubCallbackURL  string `mapstructure:"GITHUB_CALLBACK_URL"`

	// R2 / S3
	R2AccountID       string `mapstructure:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `mapstructure:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `mapstructure:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `mapstructure:"R2_BUCKET_NAME"`
	R2PublicURL       string `mapstructure:"R2_PUBLIC_URL"` // Custom domain

	// Payments
	RazorpayKeyID         string `mapstructure:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret     string `mapstructure:"RAZORPAY_KEY_SECRET"`
	RazorpayWebhookSecret string `mapstructure:"RAZORPAY_WEBHOOK_SECRET"`
	Currency              string `mapstructure:"CURRENCY"`
	BankName              string `mapstructure:"BANK_NAME"`
	BankAccountName       string `mapstructure:"BANK_ACCOUNT_NAME"`
	BankIBAN              string `mapstructure:"BANK_IBAN"`
	WhatsAppNumber        string `mapstructure:"WHATSAPP_NUMBER"`

	// Membership
	ProMonthlyPrice        float64 `mapstructure:"PRO_MONTHLY_PRICE"`
	VIPMonthlyPrice        float64 `mapstructure:"VIP_MONTHLY_PRICE"`
	MembershipDurationDays int     `mapstructure:"MEMBERSHIP_DURATION_DAYS"`

	// Email
	SendgridAPIKey string `mapstructure:"SENDGRID_API_KEY"`
	MailFromEmail  string `mapstructure:"MAIL_FROM_EMAIL"`
	MailFromName   string `mapstructure:"MAIL_FROM_NAME"`

	// Grading oracle: one URL, several models tried in order
	OracleURL            string `mapstructure:"ORACLE_URL"`
	OracleAPIKey         string `mapstructure:"ORACLE_API_KEY"`
	OracleModels         string `mapstructure:"ORACLE_MODELS"`
	OracleTimeoutSeconds int    `mapstructure:"ORACLE_TIMEOUT_SECONDS"`

	PistonURL string `mapstructure:"PISTON_URL"`

	CertificateBaseURL string `mapstructure:"CERTIFICATE_BASE_URL"`
}

var AppConfig *Config

func setDefaults() {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GO_ENV", "development")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("CURRENCY", "USD")
	viper.SetDefault("PRO_MONTHLY_PRICE", 19.0)
	viper.SetDefault("VIP_MONTHLY_PRICE", 39.0)
	viper.SetDefault("MEMBERSHIP_DURATION_DAYS", 30)
	viper.SetDefault("MAIL_FROM_NAME", "Academy")
	viper.SetDefault("ORACLE_URL", "https://api.openai.com/v1/chat/completions")
	viper.SetDefault("ORACLE_MODELS", "gpt-4o-mini")
	viper.SetDefault("ORACLE_TIMEOUT_SECONDS", 8)
	viper.SetDefault("PISTON_URL", "https://emkc.org/api/v2/piston/execute")
	viper.SetDefault("CERTIFICATE_BASE_URL", "http://localhost:8080")
}

func LoadConfig() {
	setDefaults()
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	// AutomaticEnv only resolves keys viper already knows about
	for _, key := range configKeys {
		_ = viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
}

var configKeys = []string{
	"DATABASE_URL", "JWT_SECRET", "FRONTEND_URL", "REDIS_PASSWORD",
	"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_CALLBACK_URL",
	"GITHUB_CLIENT_ID", "GITHUB_CLIENT_SECRET", "GITHUB_CALLBACK_URL",
	"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_URL",
	"RAZORPAY_KEY_ID", "RAZORPAY_KEY_SECRET", "RAZORPAY_WEBHOOK_SECRET",
	"BANK_NAME", "BANK_ACCOUNT_NAME", "BANK_IBAN", "WHATSAPP_NUMBER",
	"SENDGRID_API_KEY", "MAIL_FROM_EMAIL", "ORACLE_API_KEY",
}

// OracleModelList splits ORACLE_MODELS into the ordered list of backends to try.
func (c *Config) OracleModelList() []string {
	var models []string
	for _, m := range strings.Split(c.OracleModels, ",") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	return models
}

func (c *Config) OracleTimeout() time.Duration {
	if c.OracleTimeoutSeconds <= 0 {
		return 8 * time.Second
	}
	return time.Duration(c.OracleTimeoutSeconds) * time.Second
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
