package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	AWS      AWSConfig
	Store    StoreConfig
	Pipeline PipelineConfig
	Ops      OpsConfig
}

// AWSConfig holds the external-service locations the pipeline talks to.
type AWSConfig struct {
	Region          string
	UploadBucket    string // documents + metadata sidecars
	ResultBucket    string // OCR raw output archive
	QueueURL        string // at-least-once delivery of events and notifications
	SNSTopicARN     string // completion notifications + missing-metadata alerts
	TextractRoleARN string // role Textract assumes to publish notifications
}

// StoreConfig holds structured-store and job-store configuration.
type StoreConfig struct {
	TableName       string // DynamoDB table, primary deployment
	DatabaseURL     string // Postgres DSN, self-hosted deployment
	SQLitePath      string // local deployment
	RedisAddr       string // observed OCR-job state; empty falls back to in-memory
	JobTTL          time.Duration
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// PipelineConfig holds extraction thresholds and retry bounds.
type PipelineConfig struct {
	MatchThreshold int // fuzzy partial-ratio floor, 0-100
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// OpsConfig holds the health/metrics listener configuration.
type OpsConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "eu-west-3"),
			UploadBucket:    getEnv("UPLOAD_BUCKET", ""),
			ResultBucket:    getEnv("RESULT_BUCKET", ""),
			QueueURL:        getEnv("QUEUE_URL", ""),
			SNSTopicARN:     getEnv("SNS_TOPIC_ARN", ""),
			TextractRoleARN: getEnv("TEXTRACT_ROLE_ARN", ""),
		},
		Store: StoreConfig{
			TableName:       getEnv("TABLE_NAME", "clinical_reports"),
			DatabaseURL:     getEnv("DB_URL", ""),
			SQLitePath:      getEnv("SQLITE_PATH", ""),
			RedisAddr:       getEnv("REDIS_ADDR", ""),
			JobTTL:          getEnvAsDuration("JOB_TTL", 24*time.Hour),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Pipeline: PipelineConfig{
			MatchThreshold: getEnvAsInt("MATCH_THRESHOLD", 80),
			RetryAttempts:  getEnvAsInt("RETRY_MAX_ATTEMPTS", 5),
			RetryBaseDelay: getEnvAsDuration("RETRY_BASE_DELAY", 500*time.Millisecond),
			RetryMaxDelay:  getEnvAsDuration("RETRY_MAX_DELAY", 10*time.Second),
		},
		Ops: OpsConfig{
			Addr:            getEnv("OPS_ADDR", ":9090"),
			ShutdownTimeout: getEnvAsDuration("OPS_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the values every deployment needs. Store backends are
// mutually exclusive alternatives, so only their presence is checked at the
// point of use.
func (c *Config) Validate() error {
	if c.AWS.UploadBucket == "" {
		return NewAppError("CONFIG_ERROR", "UPLOAD_BUCKET is required", ErrInvalidInput)
	}
	if c.AWS.ResultBucket == "" {
		return NewAppError("CONFIG_ERROR", "RESULT_BUCKET is required", ErrInvalidInput)
	}
	if c.AWS.QueueURL == "" {
		return NewAppError("CONFIG_ERROR", "QUEUE_URL is required", ErrInvalidInput)
	}
	if c.Pipeline.MatchThreshold <= 0 || c.Pipeline.MatchThreshold > 100 {
		return NewAppError("CONFIG_ERROR", "MATCH_THRESHOLD must be in (0,100]", ErrInvalidInput)
	}
	return nil
}
