package submsrvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ikk-contest/backend/logger"
	"github.com/ikk-contest/backend/subm"
)

// scoreSubmission performs the single moderation update of a submission.
// A record whose score has already moved past the queued placeholder is
// left alone.
func (s *SubmSrvc) scoreSubmission(ctx context.Context, job subm.ScoreJob) error {
	if s.scorer == nil {
		return errors.New("no moderation scorer configured")
	}
	log := logger.FromContext(ctx).With("module", "subm", "key", job.Key)

	content, err := s.blobs.Download(ctx, job.FilePath)
	if err != nil {
		return fmt.Errorf("failed to download %s for scoring: %w", job.FilePath, err)
	}

	label := s.scorer.Score(ctx, content, job.FileType)

	err = s.repo.SetAIScore(ctx, job.Key, subm.ScoreQueued, label)
	if errors.Is(err, subm.ErrScoreSettled) {
		log.Info("moderation score already settled, skipping update")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to store moderation score: %w", err)
	}
	log.Info("moderation score stored", "ai_score", label)
	return nil
}

// InProcessScheduler scores submissions in goroutines owned by this
// process. Jobs outlive the request that scheduled them.
type InProcessScheduler struct {
	srvc    *SubmSrvc
	timeout time.Duration
	wg      sync.WaitGroup
	logger  *slog.Logger
}

func NewInProcessScheduler(srvc *SubmSrvc, timeout time.Duration) *InProcessScheduler {
	return &InProcessScheduler{
		srvc:    srvc,
		timeout: timeout,
		logger:  slog.Default().With("module", "subm"),
	}
}

func (p *InProcessScheduler) Schedule(ctx context.Context, job subm.ScoreJob) error {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		if err := p.srvc.ScoreSubm.Handle(ctx, job); err != nil {
			p.logger.Error("background scoring failed", "key", job.Key, "error", err)
		}
	}()
	return nil
}

// Wait blocks until every scheduled job has finished.
func (p *InProcessScheduler) Wait() {
	p.wg.Wait()
}
