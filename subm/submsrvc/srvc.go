package submsrvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/ikk-contest/backend/auth"
	"github.com/ikk-contest/backend/s3bucket"
	decorator "github.com/ikk-contest/backend/srvccqs"
	"github.com/ikk-contest/backend/subm"
)

// SubmRepo is the document store. Create must be an atomic
// create-if-absent keyed by Subm.Key returning subm.ErrKeyTaken on
// conflict. SetAIScore must only write when the stored score equals from,
// otherwise it returns subm.ErrScoreSettled.
type SubmRepo interface {
	Create(ctx context.Context, s subm.Subm) error
	Get(ctx context.Context, key string) (subm.Subm, error)
	SetAIScore(ctx context.Context, key string, from string, to string) error
	List(ctx context.Context) ([]subm.Subm, error)
}

type BlobStore interface {
	Upload(ctx context.Context, key string, mediaType string, content []byte, onProgress s3bucket.ProgressFunc) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
}

// Scorer labels an image. It never fails; problems become labels.
type Scorer interface {
	Score(ctx context.Context, image []byte, mediaType string) string
}

// Scheduler hands a scoring job to background execution and returns
// without waiting for it.
type Scheduler interface {
	Schedule(ctx context.Context, job subm.ScoreJob) error
}

type Config struct {
	MaxUploadBytes    int64
	PresignTTL        time.Duration
	ModerationEnabled bool
}

type SubmSrvc struct {
	repo      SubmRepo
	blobs     BlobStore
	guard     *Guard
	scorer    Scorer
	scheduler Scheduler
	conf      Config

	sessionOf func(ctx context.Context) (string, bool)
	now       func() time.Time
	logger    *slog.Logger

	ScoreSubm decorator.CmdHandler[subm.ScoreJob]
	ListSubms decorator.QueryHandler[ListSubmsParams, []subm.Subm]
	GetSubm   decorator.QueryHandler[string, subm.Subm]
}

// NewSubmSrvc wires the workflow. Scoring stays disabled until both a
// scorer and a scheduler are attached.
func NewSubmSrvc(repo SubmRepo, blobs BlobStore, conf Config) *SubmSrvc {
	s := &SubmSrvc{
		repo:      repo,
		blobs:     blobs,
		guard:     NewGuard(repo),
		conf:      conf,
		sessionOf: auth.SessionUID,
		now:       time.Now,
		logger:    slog.Default().With("module", "subm"),
	}
	s.ScoreSubm = decorator.WithCmdLogging[subm.ScoreJob](decorator.CmdFunc[subm.ScoreJob](s.scoreSubmission))
	s.ListSubms = decorator.WithQueryLogging[ListSubmsParams, []subm.Subm](
		decorator.QueryFunc[ListSubmsParams, []subm.Subm](s.listSubms))
	s.GetSubm = decorator.WithQueryLogging[string, subm.Subm](
		decorator.QueryFunc[string, subm.Subm](s.getSubm))
	return s
}

func (s *SubmSrvc) SetScorer(scorer Scorer) {
	s.scorer = scorer
}

func (s *SubmSrvc) SetScheduler(scheduler Scheduler) {
	s.scheduler = scheduler
}

// SetSessionSource replaces how the owning session is read from ctx.
func (s *SubmSrvc) SetSessionSource(fn func(ctx context.Context) (string, bool)) {
	s.sessionOf = fn
}

func (s *SubmSrvc) scoringEnabled() bool {
	return s.conf.ModerationEnabled && s.scheduler != nil
}

// Guard exposes the duplicate guard for callers that only need the
// precheck, such as a form asking early whether an entry exists.
func (s *SubmSrvc) Guard() *Guard {
	return s.guard
}
