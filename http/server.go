package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/ikk-contest/backend/auth"
	"github.com/ikk-contest/backend/httpjson"
	"github.com/ikk-contest/backend/logger"
	"github.com/ikk-contest/backend/subm/submhttp"
)

type ServerConfig struct {
	CORSOrigins []string
	LogLevel    slog.Level
	JWTKey      []byte
	Version     string
}

type HttpServer struct {
	router *chi.Mux
	stats  *statsLogger
}

func NewHttpServer(
	conf ServerConfig,
	authHandler *auth.AuthHttpHandler,
	submHandler *submhttp.SubmHttpHandler,
) *HttpServer {
	router := chi.NewRouter()

	reqLogger := httplog.NewLogger("ikk-contest", httplog.Options{
		JSON:             true,
		LogLevel:         conf.LogLevel,
		Concise:          true,
		RequestHeaders:   false,
		MessageFieldName: "message",
		Tags: map[string]string{
			"version": conf.Version,
		},
	})
	router.Use(httplog.RequestLogger(reqLogger))
	router.Use(requestScopedLogger)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   conf.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           3000,
	}))

	stats := newStatsLogger(30 * time.Second)
	router.Use(stats.middleware)
	router.Use(auth.GetJwtAuthMiddleware(conf.JWTKey))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpjson.WriteSuccessJson(w, "ok")
	})
	authHandler.RegisterRoutes(router)
	submHandler.RegisterRoutes(router)

	return &HttpServer{router: router, stats: stats}
}

func (s *HttpServer) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *HttpServer) Start(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.stats.run(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "address", address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestScopedLogger hands the httplog request logger to the services
// through the request context.
func requestScopedLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithLogger(r.Context(), httplog.LogEntry(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
