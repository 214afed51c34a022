// Command moderator scores queued submissions with the moderation model.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ikk-contest/backend/conf"
	"github.com/ikk-contest/backend/logger"
	"github.com/ikk-contest/backend/subm"
	"github.com/ikk-contest/backend/wiring"
)

func main() {
	cfg, err := conf.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if !cfg.ModerationEnabled() {
		slog.Warn("GEMINI_API_KEY is not set; every job will be labelled for manual review")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := wiring.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	queue, err := deps.ModerationQueue()
	if err != nil {
		slog.Error("moderator needs a queue", "error", err)
		os.Exit(1)
	}

	submSrvc := deps.SubmSrvc()
	handle := func(ctx context.Context, job subm.ScoreJob) error {
		ctx, cancel := context.WithTimeout(ctx, cfg.ScoringTimeout)
		defer cancel()
		ctx = logger.WithAttrs(ctx, "key", job.Key)
		return submSrvc.ScoreSubm.Handle(ctx, job)
	}

	slog.Info("moderator started", "queue", cfg.ModerationQueueURL)
	if err := queue.Run(ctx, handle); err != nil {
		slog.Error("moderator stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("moderator stopped")
}
