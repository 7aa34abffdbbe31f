package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Outbound mail delivery modes.
const (
	DeliverySMTP = "smtp"
	DeliveryAMQP = "amqp"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string
	ReportURLTTL   time.Duration

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	OTPTTL            time.Duration
	OTPResendCooldown time.Duration // 0 disables the cooldown
	OTPSweepInterval  time.Duration
	OTPMaxAttempts    int // wrong submissions before a code is revoked

	DeliveryMode string
	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	SMSEnabled   bool
	SNSRegion    string

	SeedCategories bool
	AllowedOrigins []string // CORS allowed origins

	// TrustProxyHeaders takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users        string
	Categories   string
	Transactions string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:  getEnv("APP_PORT", "3000"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:        getEnv("DYNAMO_TABLE_USERS", "users"),
			Categories:   getEnv("DYNAMO_TABLE_CATEGORIES", "categories"),
			Transactions: getEnv("DYNAMO_TABLE_TRANSACTIONS", "transactions"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "spendsmart-reports"),
		ReportURLTTL: getEnvDuration("REPORT_URL_TTL", 15*time.Minute),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		OTPTTL:            getEnvDuration("OTP_TTL", 10*time.Minute),
		OTPResendCooldown: getEnvDuration("OTP_RESEND_COOLDOWN", 0),
		OTPSweepInterval:  getEnvDuration("OTP_SWEEP_INTERVAL", time.Minute),
		OTPMaxAttempts:    getEnvInt("OTP_MAX_ATTEMPTS", 5),

		DeliveryMode: strings.ToLower(getEnv("DELIVERY_MODE", DeliverySMTP)),
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "spendsmart"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "outbound_mail"),
		SMSEnabled:   getEnvBool("SMS_ENABLED", false),
		SNSRegion:    getEnv("SNS_REGION", "us-east-1"),

		SeedCategories: getEnvBool("SEED_CATEGORIES", true),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.AppPort); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.AppPort))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.OTPTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid OTP TTL %v: must be positive", c.OTPTTL))
	}
	if c.OTPResendCooldown < 0 {
		problems = append(problems, fmt.Sprintf("invalid OTP resend cooldown %v: must not be negative", c.OTPResendCooldown))
	} else if c.OTPTTL > 0 && c.OTPResendCooldown >= c.OTPTTL {
		problems = append(problems, fmt.Sprintf("invalid OTP resend cooldown %v: must be shorter than the OTP TTL %v", c.OTPResendCooldown, c.OTPTTL))
	}
	if c.OTPMaxAttempts < 1 {
		problems = append(problems, fmt.Sprintf("invalid OTP max attempts %d: must be at least 1", c.OTPMaxAttempts))
	}
	if c.JWTExpiry <= 0 {
		problems = append(problems, fmt.Sprintf("invalid JWT expiry %v: must be positive", c.JWTExpiry))
	}
	if c.ReportURLTTL < time.Second || c.ReportURLTTL > 7*24*time.Hour {
		problems = append(problems, fmt.Sprintf("invalid report URL TTL %v: must be between 1 second and 7 days", c.ReportURLTTL))
	}

	switch c.DeliveryMode {
	case DeliverySMTP:
		if c.SMTPHost == "" {
			problems = append(problems, "SMTP host cannot be empty when using smtp delivery")
		}
	case DeliveryAMQP:
		if c.AMQPURL == "" {
			problems = append(problems, "AMQP URL is required when using amqp delivery")
		} else if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when using amqp delivery")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when using amqp delivery")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid delivery mode '%s': must be one of [smtp amqp]", c.DeliveryMode))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("90s", "10m") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n := getEnvInt(key, -1); n >= 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
