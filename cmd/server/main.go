package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ikk-contest/backend/auth"
	"github.com/ikk-contest/backend/conf"
	"github.com/ikk-contest/backend/http"
	"github.com/ikk-contest/backend/logger"
	"github.com/ikk-contest/backend/subm/submhttp"
	"github.com/ikk-contest/backend/subm/submsrvc"
	"github.com/ikk-contest/backend/wiring"
)

var version = "dev"

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := wiring.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	submSrvc := deps.SubmSrvc()
	var inProcess *submsrvc.InProcessScheduler
	if queue, err := deps.ModerationQueue(); err == nil {
		submSrvc.SetScheduler(queue)
		slog.Info("moderation jobs go to sqs", "queue", cfg.ModerationQueueURL)
	} else {
		inProcess = submsrvc.NewInProcessScheduler(submSrvc, cfg.ScoringTimeout)
		submSrvc.SetScheduler(inProcess)
	}
	if !cfg.ModerationEnabled() {
		slog.Warn("GEMINI_API_KEY is not set; images are left for manual review")
	}

	jwtKey := []byte(cfg.JWTKey)
	server := http.NewHttpServer(
		http.ServerConfig{
			CORSOrigins: cfg.CORSOrigins,
			LogLevel:    logger.ParseLevel(cfg.LogLevel),
			JWTKey:      jwtKey,
			Version:     version,
		},
		auth.NewAuthHttpHandler(auth.NewAdminAuth(cfg.AdminUsername, cfg.AdminPasswordBcrypt, jwtKey), jwtKey),
		submhttp.NewSubmHttpHandler(submSrvc, cfg.MaxUploadBytes()),
	)

	err = server.Start(ctx, cfg.HTTPAddr)
	if inProcess != nil {
		inProcess.Wait()
	}
	if err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
