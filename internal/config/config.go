package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AdminJWTSecret     string
	CORSAllowedOrigins []string

	// Public booking endpoints
	RateLimitPerSecond float64
	RateLimitBurst     int
	SessionTTL         time.Duration
	WidgetAssetsDir    string

	// Submission client (booking page -> bookings API)
	BookingAPIURL        string
	SubmitMaxAttempts    int
	SubmitBaseDelay      time.Duration
	SubmitAttemptTimeout time.Duration

	// Outbox delivery
	OutboxBatchSize     int
	OutboxPollInterval  time.Duration
	WebhookMaxAttempts  int
	WebhookBaseDelay    time.Duration
	WebhookSigningKey   string
	ReminderLeadTime    time.Duration
	ReminderConcurrency int

	// Twilio SMS
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// Email: "sendgrid", "ses" or "" (stub)
	EmailProvider      string
	SendGridAPIKey     string
	EmailFromAddress   string
	EmailFromName      string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	// Google Calendar sync
	GoogleCalendarCredentialsFile string
	GoogleCalendarID              string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
		SessionTTL:         getEnvAsDuration("BOOKING_SESSION_TTL", 30*time.Minute),
		WidgetAssetsDir:    getEnv("WIDGET_ASSETS_DIR", ""),

		BookingAPIURL:        strings.TrimRight(getEnv("BOOKING_API_URL", ""), "/"),
		SubmitMaxAttempts:    getEnvAsInt("SUBMIT_MAX_ATTEMPTS", 3),
		SubmitBaseDelay:      getEnvAsDuration("SUBMIT_BASE_DELAY", time.Second),
		SubmitAttemptTimeout: getEnvAsDuration("SUBMIT_ATTEMPT_TIMEOUT", 10*time.Second),

		OutboxBatchSize:     getEnvAsInt("OUTBOX_BATCH_SIZE", 25),
		OutboxPollInterval:  getEnvAsDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		WebhookMaxAttempts:  getEnvAsInt("WEBHOOK_MAX_ATTEMPTS", 3),
		WebhookBaseDelay:    getEnvAsDuration("WEBHOOK_BASE_DELAY", 2*time.Second),
		WebhookSigningKey:   getEnv("WEBHOOK_SIGNING_KEY", ""),
		ReminderLeadTime:    getEnvAsDuration("REMINDER_LEAD_TIME", 24*time.Hour),
		ReminderConcurrency: getEnvAsInt("REMINDER_CONCURRENCY", 5),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),

		EmailProvider:      strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ""))),
		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		EmailFromAddress:   getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "SalonBooker"),
		AWSRegion:          getEnv("AWS_REGION", "eu-west-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		GoogleCalendarCredentialsFile: getEnv("GOOGLE_CALENDAR_CREDENTIALS_FILE", ""),
		GoogleCalendarID:              getEnv("GOOGLE_CALENDAR_ID", "primary"),
	}
}

// SubmissionBaseURL is where the booking page posts drafts. Defaults to this server.
func (c *Config) SubmissionBaseURL() string {
	if c.BookingAPIURL != "" {
		return c.BookingAPIURL
	}
	return c.PublicBaseURL
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
