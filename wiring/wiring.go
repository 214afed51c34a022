// Package wiring builds the collaborators shared by the server, the
// moderation worker and the admin CLI from one validated config.
package wiring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/ikk-contest/backend/conf"
	"github.com/ikk-contest/backend/moderation"
	"github.com/ikk-contest/backend/s3bucket"
	"github.com/ikk-contest/backend/subm/submddb"
	"github.com/ikk-contest/backend/subm/submpgrepo"
	"github.com/ikk-contest/backend/subm/submsrvc"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Deps struct {
	Conf  *conf.Config
	AWS   aws.Config
	Repo  submsrvc.SubmRepo
	Blobs *s3bucket.S3Bucket

	closers []func()
}

// Open connects to the configured store and blob bucket. Postgres schemas
// are migrated on open.
func Open(ctx context.Context, cfg *conf.Config) (*Deps, error) {
	awsCfg, err := cfg.LoadAWSConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	d := &Deps{
		Conf:  cfg,
		AWS:   awsCfg,
		Blobs: s3bucket.NewS3Bucket(awsCfg, cfg.S3Bucket, cfg.S3Endpoint),
	}

	switch cfg.Store {
	case conf.StoreDynamoDB:
		d.Repo = submddb.NewDdbSubmRepo(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable)
	case conf.StorePostgres:
		connStr, err := cfg.PgConnString(ctx)
		if err != nil {
			return nil, err
		}
		pool, err := pgxpool.New(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		d.closers = append(d.closers, pool.Close)
		if err := submpgrepo.Migrate(ctx, pool); err != nil {
			d.Close()
			return nil, err
		}
		d.Repo = submpgrepo.NewPgSubmRepo(pool)
	case conf.StoreMemory:
		slog.Warn("using in-memory submission store; records are lost on exit")
		d.Repo = submsrvc.NewMemRepo()
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
	return d, nil
}

func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

func (d *Deps) Scorer() *moderation.GeminiScorer {
	return moderation.NewGeminiScorer(d.Conf.GeminiAPIKey,
		moderation.WithModel(d.Conf.GeminiModel),
		moderation.WithMaxWidth(uint(d.Conf.ModerationMaxWidth)),
	)
}

// SubmSrvc builds the submission service with the moderation scorer
// attached. The caller picks the scheduler.
func (d *Deps) SubmSrvc() *submsrvc.SubmSrvc {
	srvc := submsrvc.NewSubmSrvc(d.Repo, d.Blobs, submsrvc.Config{
		MaxUploadBytes:    d.Conf.MaxUploadBytes(),
		PresignTTL:        d.Conf.PresignTTL,
		ModerationEnabled: d.Conf.ModerationEnabled(),
	})
	srvc.SetScorer(d.Scorer())
	return srvc
}

var ErrNoQueue = errors.New("MODERATION_QUEUE_URL is not set")

func (d *Deps) ModerationQueue() (*moderation.SQSQueue, error) {
	if d.Conf.ModerationQueueURL == "" {
		return nil, ErrNoQueue
	}
	return moderation.NewSQSQueue(sqs.NewFromConfig(d.AWS), d.Conf.ModerationQueueURL), nil
}
