package conf

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := defaults()
	err := cfg.loadEnv(envOf(map[string]string{
		"JWT_KEY":               "secret",
		"ADMIN_USERNAME":        "admin",
		"ADMIN_PASSWORD_BCRYPT": "$2a$10$abcdefghijklmnopqrstuv",
		"S3_BUCKET":             "ikk-uploads",
	}))
	require.NoError(t, err)
	return cfg
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	cfg := validConfig(t)
	assert.NoError(t, cfg.Validate())
}

func TestValidateReportsEveryMissingValue(t *testing.T) {
	cfg := defaults()
	err := cfg.Validate()
	require.Error(t, err)
	for _, name := range []string{"JWT_KEY", "ADMIN_USERNAME", "ADMIN_PASSWORD_BCRYPT", "S3_BUCKET"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestValidateRejectsUnknownStore(t *testing.T) {
	cfg := validConfig(t)
	cfg.Store = "sqlite"
	assert.ErrorContains(t, cfg.Validate(), `unknown STORE "sqlite"`)
}

func TestValidatePostgresNeedsSecretForRemoteHost(t *testing.T) {
	cfg := validConfig(t)
	cfg.Store = StorePostgres
	cfg.Postgres.User = "ikk"
	cfg.Postgres.DB = "ikk"
	require.NoError(t, cfg.Validate())

	cfg.Postgres.Host = "db.internal"
	assert.ErrorContains(t, cfg.Validate(), "POSTGRES_PASSWORD_SECRET_NAME")
}

func TestValidateS3KeysComeInPairs(t *testing.T) {
	cfg := validConfig(t)
	cfg.S3AccessKey = "minio"
	assert.ErrorContains(t, cfg.Validate(), "S3_ACCESS_KEY and S3_SECRET_KEY")
}

func TestLoadEnvParsesLimits(t *testing.T) {
	cfg := defaults()
	err := cfg.loadEnv(envOf(map[string]string{
		"MAX_UPLOAD_MB": "5",
		"PRESIGN_TTL":   "1h",
		"CORS_ORIGINS":  "https://ikk.example.org, http://localhost:3000",
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes())
	assert.Equal(t, time.Hour, cfg.PresignTTL)
	assert.Equal(t, []string{"https://ikk.example.org", "http://localhost:3000"}, cfg.CORSOrigins)

	err = cfg.loadEnv(envOf(map[string]string{"MAX_UPLOAD_MB": "many"}))
	assert.ErrorContains(t, err, "MAX_UPLOAD_MB")
}

func TestTomlIsOverriddenByEnv(t *testing.T) {
	cfg := defaults()
	err := cfg.applyToml([]byte(`
store = "memory"
max_upload_mb = 8
presign_ttl = "30m"
gemini_model = "gemini-test"

[postgres]
host = "pg.internal"
`))
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, int64(8), cfg.MaxUploadMB)
	assert.Equal(t, 30*time.Minute, cfg.PresignTTL)
	assert.Equal(t, "pg.internal", cfg.Postgres.Host)

	require.NoError(t, cfg.loadEnv(envOf(map[string]string{"GEMINI_MODEL": "gemini-env"})))
	assert.Equal(t, "gemini-env", cfg.GeminiModel)
}

func TestModerationEnabledFollowsApiKey(t *testing.T) {
	cfg := validConfig(t)
	assert.False(t, cfg.ModerationEnabled())
	cfg.GeminiAPIKey = "key"
	assert.True(t, cfg.ModerationEnabled())
}

func TestPgConnStringUsesEnvPasswordLocally(t *testing.T) {
	cfg := validConfig(t)
	cfg.Postgres.User = "ikk"
	cfg.Postgres.DB = "contest"
	cfg.Postgres.Password = "pw"

	s, err := cfg.PgConnString(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "host=localhost port=5432 user=ikk password=pw dbname=contest sslmode=disable", s)
}

type fakeSecrets struct {
	value *string
	err   error
}

func (f fakeSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: f.value}, nil
}

func TestGetSecretFromAWS(t *testing.T) {
	v, err := getSecretFromAWS(context.Background(), fakeSecrets{value: aws.String(`{"password":"x"}`)}, "pg")
	require.NoError(t, err)
	assert.Equal(t, `{"password":"x"}`, v)

	_, err = getSecretFromAWS(context.Background(), fakeSecrets{}, "pg")
	assert.Error(t, err)

	_, err = getSecretFromAWS(context.Background(), fakeSecrets{err: errors.New("denied")}, "pg")
	assert.ErrorContains(t, err, "denied")
}
