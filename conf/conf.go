package conf

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

const defaultGeminiModel = "gemini-2.5-flash-preview-09-2025"

// Config is built once at process start and passed to every collaborator.
type Config struct {
	HTTPAddr    string
	CORSOrigins []string
	LogLevel    string

	JWTKey              string
	AdminUsername       string
	AdminPasswordBcrypt string

	Store       string
	DynamoTable string
	Postgres    PgConf

	AWSRegion   string
	S3Bucket    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	GeminiAPIKey       string
	GeminiModel        string
	ModerationQueueURL string

	MaxUploadMB        int64
	PresignTTL         time.Duration
	ScoringTimeout     time.Duration
	ModerationMaxWidth int
}

// fileConf is the subset of settings that may live in the TOML file.
// Secrets are environment only.
type fileConf struct {
	HTTPAddr           string   `toml:"http_addr"`
	CORSOrigins        []string `toml:"cors_origins"`
	LogLevel           string   `toml:"log_level"`
	Store              string   `toml:"store"`
	DynamoTable        string   `toml:"dynamo_table"`
	AWSRegion          string   `toml:"aws_region"`
	S3Bucket           string   `toml:"s3_bucket"`
	S3Endpoint         string   `toml:"s3_endpoint"`
	GeminiModel        string   `toml:"gemini_model"`
	ModerationQueueURL string   `toml:"moderation_queue_url"`
	MaxUploadMB        int64    `toml:"max_upload_mb"`
	PresignTTL         string   `toml:"presign_ttl"`
	ScoringTimeout     string   `toml:"scoring_timeout"`
	ModerationMaxWidth int      `toml:"moderation_max_width"`
	Postgres           struct {
		Host       string `toml:"host"`
		Port       string `toml:"port"`
		User       string `toml:"user"`
		DB         string `toml:"db"`
		SSLMode    string `toml:"sslmode"`
		SecretName string `toml:"password_secret_name"`
	} `toml:"postgres"`
}

type PgConf struct {
	Host       string
	Port       string
	User       string
	DB         string
	SSLMode    string
	Password   string
	SecretName string
}

func defaults() *Config {
	return &Config{
		HTTPAddr:           ":8080",
		CORSOrigins:        []string{"*"},
		LogLevel:           "info",
		Store:              StoreDynamoDB,
		DynamoTable:        "ikk_submissions",
		AWSRegion:          "eu-central-1",
		GeminiModel:        defaultGeminiModel,
		MaxUploadMB:        20,
		PresignTTL:         7 * 24 * time.Hour,
		ScoringTimeout:     2 * time.Minute,
		ModerationMaxWidth: 1024,
		Postgres: PgConf{
			Host:    "localhost",
			Port:    "5432",
			SSLMode: "disable",
		},
	}
}

// Load reads .env (if present), the optional TOML file named by
// CONTEST_CONFIG_FILE and then the process environment. Later sources win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONTEST_CONFIG_FILE"); path != "" {
		if err := cfg.loadToml(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadToml(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return c.applyToml(content)
}

func (c *Config) applyToml(content []byte) error {
	var f fileConf
	if err := toml.Unmarshal(content, &f); err != nil {
		return fmt.Errorf("could not parse config toml: %w", err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.HTTPAddr, f.HTTPAddr)
	set(&c.LogLevel, f.LogLevel)
	set(&c.Store, f.Store)
	set(&c.DynamoTable, f.DynamoTable)
	set(&c.AWSRegion, f.AWSRegion)
	set(&c.S3Bucket, f.S3Bucket)
	set(&c.S3Endpoint, f.S3Endpoint)
	set(&c.GeminiModel, f.GeminiModel)
	set(&c.ModerationQueueURL, f.ModerationQueueURL)
	set(&c.Postgres.Host, f.Postgres.Host)
	set(&c.Postgres.Port, f.Postgres.Port)
	set(&c.Postgres.User, f.Postgres.User)
	set(&c.Postgres.DB, f.Postgres.DB)
	set(&c.Postgres.SSLMode, f.Postgres.SSLMode)
	set(&c.Postgres.SecretName, f.Postgres.SecretName)

	if len(f.CORSOrigins) > 0 {
		c.CORSOrigins = f.CORSOrigins
	}
	if f.MaxUploadMB != 0 {
		c.MaxUploadMB = f.MaxUploadMB
	}
	if f.ModerationMaxWidth != 0 {
		c.ModerationMaxWidth = f.ModerationMaxWidth
	}
	if f.PresignTTL != "" {
		d, err := time.ParseDuration(f.PresignTTL)
		if err != nil {
			return fmt.Errorf("presign_ttl: %w", err)
		}
		c.PresignTTL = d
	}
	if f.ScoringTimeout != "" {
		d, err := time.ParseDuration(f.ScoringTimeout)
		if err != nil {
			return fmt.Errorf("scoring_timeout: %w", err)
		}
		c.ScoringTimeout = d
	}
	return nil
}

func (c *Config) loadEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}

	str("HTTP_ADDR", &c.HTTPAddr)
	str("LOG_LEVEL", &c.LogLevel)
	str("JWT_KEY", &c.JWTKey)
	str("ADMIN_USERNAME", &c.AdminUsername)
	str("ADMIN_PASSWORD_BCRYPT", &c.AdminPasswordBcrypt)
	str("STORE", &c.Store)
	str("DYNAMODB_TABLE", &c.DynamoTable)
	str("AWS_REGION", &c.AWSRegion)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_ENDPOINT", &c.S3Endpoint)
	str("S3_ACCESS_KEY", &c.S3AccessKey)
	str("S3_SECRET_KEY", &c.S3SecretKey)
	str("GEMINI_API_KEY", &c.GeminiAPIKey)
	str("GEMINI_MODEL", &c.GeminiModel)
	str("MODERATION_QUEUE_URL", &c.ModerationQueueURL)

	str("POSTGRES_HOST", &c.Postgres.Host)
	str("POSTGRES_PORT", &c.Postgres.Port)
	str("POSTGRES_USER", &c.Postgres.User)
	str("POSTGRES_DB", &c.Postgres.DB)
	str("POSTGRES_SSLMODE", &c.Postgres.SSLMode)
	str("POSTGRES_PW", &c.Postgres.Password)
	str("POSTGRES_PASSWORD_SECRET_NAME", &c.Postgres.SecretName)

	if v := getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}
	if v := getenv("MAX_UPLOAD_MB"); v != "" {
		mb, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_MB: %w", err)
		}
		c.MaxUploadMB = mb
	}
	if v := getenv("PRESIGN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PRESIGN_TTL: %w", err)
		}
		c.PresignTTL = d
	}
	if v := getenv("SCORING_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SCORING_TIMEOUT: %w", err)
		}
		c.ScoringTimeout = d
	}
	return nil
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var errs []error
	require := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%s is not set", name))
		}
	}

	require("JWT_KEY", c.JWTKey)
	require("ADMIN_USERNAME", c.AdminUsername)
	require("ADMIN_PASSWORD_BCRYPT", c.AdminPasswordBcrypt)

	switch c.Store {
	case StoreDynamoDB:
		require("DYNAMODB_TABLE", c.DynamoTable)
		require("AWS_REGION", c.AWSRegion)
	case StorePostgres:
		require("POSTGRES_HOST", c.Postgres.Host)
		require("POSTGRES_USER", c.Postgres.User)
		require("POSTGRES_DB", c.Postgres.DB)
		if c.Postgres.Password == "" && !c.Postgres.isLocal() {
			require("POSTGRES_PASSWORD_SECRET_NAME", c.Postgres.SecretName)
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE %q", c.Store))
	}

	require("S3_BUCKET", c.S3Bucket)
	require("AWS_REGION", c.AWSRegion)
	if (c.S3AccessKey == "") != (c.S3SecretKey == "") {
		errs = append(errs, errors.New("S3_ACCESS_KEY and S3_SECRET_KEY must be set together"))
	}

	if c.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB))
	}
	if c.PresignTTL <= 0 {
		errs = append(errs, errors.New("PRESIGN_TTL must be positive"))
	}
	if c.ScoringTimeout <= 0 {
		errs = append(errs, errors.New("SCORING_TIMEOUT must be positive"))
	}
	if c.ModerationMaxWidth <= 0 {
		errs = append(errs, errors.New("moderation_max_width must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// ModerationEnabled is true when submissions can be scored automatically.
func (c *Config) ModerationEnabled() bool {
	return c.GeminiAPIKey != ""
}
