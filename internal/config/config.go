package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "fallbacksecret", "secret", "dev-secret-change-me", "password",
}

type Config struct {
	AppEnv             string   `env:"APP_ENV" envDefault:"development"`
	Port               int      `env:"PORT" envDefault:"8080"`
	DatabaseURL        string   `env:"DATABASE_URL,required"`
	RedisURL           string   `env:"REDIS_URL,required"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	SecretKey          string   `env:"SECRET_KEY" envDefault:"dev-secret-change-me"`
	BaseURL            string   `env:"BASE_URL" envDefault:"http://localhost:8080"`
	StaticDir          string   `env:"STATIC_DIR" envDefault:"static"`
	AutoMigrate        bool     `env:"AUTO_MIGRATE" envDefault:"true"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	VerificationCodeTTLSeconds     int  `env:"VERIFICATION_CODE_TTL_SECONDS" envDefault:"3600"`
	VerificationTokenMaxAgeSeconds int  `env:"VERIFICATION_TOKEN_MAX_AGE_SECONDS" envDefault:"3600"`
	VerificationSingleActive       bool `env:"VERIFICATION_SINGLE_ACTIVE" envDefault:"false"`

	MailProvider      string `env:"MAIL_PROVIDER" envDefault:"log"`
	MailDefaultSender string `env:"MAIL_DEFAULT_SENDER" envDefault:"no-reply@motivatem3.local"`
	SendGridAPIKey    string `env:"SENDGRID_API_KEY"`
	SMTPHost          string `env:"SMTP_HOST"`
	SMTPPort          int    `env:"SMTP_PORT" envDefault:"465"`
	SMTPUsername      string `env:"SMTP_USERNAME"`
	SMTPPassword      string `env:"SMTP_PASSWORD"`

	InferenceProvider       string `env:"INFERENCE_PROVIDER" envDefault:"huggingface"`
	HFToken                 string `env:"HF_TOKEN"`
	HFBaseURL               string `env:"HF_BASE_URL" envDefault:"https://router.huggingface.co"`
	EmotionModel            string `env:"EMOTION_MODEL" envDefault:"j-hartmann/emotion-english-distilroberta-base"`
	EmbeddingModel          string `env:"EMBEDDING_MODEL" envDefault:"sentence-transformers/all-MiniLM-L6-v2"`
	ChatModel               string `env:"CHAT_MODEL" envDefault:"openai/gpt-oss-20b"`
	GenAIAPIKey             string `env:"GENAI_API_KEY"`
	GenAIChatModel          string `env:"GENAI_CHAT_MODEL" envDefault:"gemini-2.5-flash"`
	GenAIEmbeddingModel     string `env:"GENAI_EMBEDDING_MODEL" envDefault:"gemini-embedding-001"`
	InferenceTimeoutSeconds int    `env:"INFERENCE_TIMEOUT_SECONDS" envDefault:"20"`

	HarmThreshold   float64 `env:"HARM_THRESHOLD" envDefault:"0.65"`
	SafetyWarmCache bool    `env:"SAFETY_WARM_CACHE" envDefault:"true"`
}

// IsProduction reports APP_ENV=production. Fly deployments set FLY_APP_NAME
// and are treated the same way.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || os.Getenv("FLY_APP_NAME") != ""
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) VerificationCodeTTL() time.Duration {
	return time.Duration(c.VerificationCodeTTLSeconds) * time.Second
}

func (c *Config) VerificationTokenMaxAge() time.Duration {
	return time.Duration(c.VerificationTokenMaxAgeSeconds) * time.Second
}

func (c *Config) InferenceTimeout() time.Duration {
	return time.Duration(c.InferenceTimeoutSeconds) * time.Second
}

// VerifyURL builds the link mailed to users for token verification.
func (c *Config) VerifyURL(token string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/auth/verify/" + token
}

func (c *Config) Validate(isProduction bool) error {
	switch c.MailProvider {
	case "log":
		if isProduction {
			log.Warn().Msg("MAIL_PROVIDER=log in production: verification emails will only be logged")
		}
	case "sendgrid":
		if c.SendGridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required when MAIL_PROVIDER=sendgrid")
		}
	case "smtp":
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when MAIL_PROVIDER=smtp")
		}
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q (expected log, sendgrid or smtp)", c.MailProvider)
	}

	switch c.InferenceProvider {
	case "huggingface":
		if c.HFToken == "" {
			log.Warn().Msg("HF_TOKEN is empty: inference calls will fail and the pipeline will use fallbacks")
		}
	case "genai":
		if c.GenAIAPIKey == "" {
			return fmt.Errorf("GENAI_API_KEY is required when INFERENCE_PROVIDER=genai")
		}
	default:
		return fmt.Errorf("unknown INFERENCE_PROVIDER %q (expected huggingface or genai)", c.InferenceProvider)
	}

	if c.HarmThreshold <= 0 || c.HarmThreshold > 1 {
		return fmt.Errorf("HARM_THRESHOLD must be in (0, 1], got %v", c.HarmThreshold)
	}

	if isProduction {
		if err := validateSecret("SECRET_KEY", c.SecretKey); err != nil {
			return err
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

// Load reads an optional .env file and then parses the environment.
// Variables already set in the environment take precedence over .env.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
