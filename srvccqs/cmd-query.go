package decorator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ikk-contest/backend/logger"
)

// P - params
type CmdHandler[P any] interface {
	Handle(ctx context.Context, p P) error
}

// Q - query, R - result
type QueryHandler[Q any, R any] interface {
	Handle(ctx context.Context, q Q) (R, error)
}

// CmdFunc adapts a plain function to CmdHandler.
type CmdFunc[P any] func(ctx context.Context, p P) error

func (f CmdFunc[P]) Handle(ctx context.Context, p P) error {
	return f(ctx, p)
}

// QueryFunc adapts a plain function to QueryHandler.
type QueryFunc[Q any, R any] func(ctx context.Context, q Q) (R, error)

func (f QueryFunc[Q, R]) Handle(ctx context.Context, q Q) (R, error) {
	return f(ctx, q)
}

// WithCmdLogging logs the duration and outcome of every command.
func WithCmdLogging[P any](h CmdHandler[P]) CmdHandler[P] {
	return cmdLogger[P]{base: h}
}

type cmdLogger[P any] struct {
	base CmdHandler[P]
}

func (d cmdLogger[P]) Handle(ctx context.Context, p P) (err error) {
	log := logger.FromContext(ctx).With("command", handlerName(p))
	start := time.Now()
	defer func() {
		if err != nil {
			log.Warn("command failed", "duration", time.Since(start), "error", err)
			return
		}
		log.Debug("command handled", "duration", time.Since(start))
	}()
	return d.base.Handle(ctx, p)
}

// WithQueryLogging logs failed queries.
func WithQueryLogging[Q any, R any](h QueryHandler[Q, R]) QueryHandler[Q, R] {
	return queryLogger[Q, R]{base: h}
}

type queryLogger[Q any, R any] struct {
	base QueryHandler[Q, R]
}

func (d queryLogger[Q, R]) Handle(ctx context.Context, q Q) (R, error) {
	start := time.Now()
	res, err := d.base.Handle(ctx, q)
	if err != nil {
		logger.FromContext(ctx).Warn("query failed",
			slog.String("query", handlerName(q)),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
	}
	return res, err
}

func handlerName(v any) string {
	name := fmt.Sprintf("%T", v)
	return name[strings.LastIndex(name, ".")+1:]
}
