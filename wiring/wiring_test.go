package wiring_test

import (
	"context"
	"testing"
	"time"

	"github.com/ikk-contest/backend/conf"
	"github.com/ikk-contest/backend/subm/submsrvc"
	"github.com/ikk-contest/backend/wiring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *conf.Config {
	return &conf.Config{
		Store:              conf.StoreMemory,
		AWSRegion:          "eu-central-1",
		S3Bucket:           "ikk-test",
		S3Endpoint:         "http://localhost:9000",
		S3AccessKey:        "minio",
		S3SecretKey:        "minio123",
		MaxUploadMB:        20,
		PresignTTL:         time.Hour,
		ScoringTimeout:     time.Minute,
		ModerationMaxWidth: 1024,
	}
}

func TestOpenMemoryStore(t *testing.T) {
	deps, err := wiring.Open(context.Background(), memoryConfig())
	require.NoError(t, err)
	t.Cleanup(deps.Close)

	assert.IsType(t, &submsrvc.MemRepo{}, deps.Repo)
	assert.NotNil(t, deps.Blobs)
	assert.NotNil(t, deps.SubmSrvc())

	_, err = deps.ModerationQueue()
	assert.ErrorIs(t, err, wiring.ErrNoQueue)
}

func TestOpenRejectsUnknownStore(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store = "sqlite"
	_, err := wiring.Open(context.Background(), cfg)
	assert.ErrorContains(t, err, "sqlite")
}

func TestModerationQueueFromConfig(t *testing.T) {
	cfg := memoryConfig()
	cfg.ModerationQueueURL = "https://sqs.eu-central-1.amazonaws.com/1/ikk-moderation"
	deps, err := wiring.Open(context.Background(), cfg)
	require.NoError(t, err)

	q, err := deps.ModerationQueue()
	require.NoError(t, err)
	assert.NotNil(t, q)
}
