package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

type endpointStats struct {
	count     int
	totalTime time.Duration
}

// statsLogger periodically logs request counts and mean latency per route
// pattern.
type statsLogger struct {
	stats         map[string]*endpointStats
	mu            sync.Mutex
	flushInterval time.Duration
	logger        *slog.Logger
}

func newStatsLogger(flushInterval time.Duration) *statsLogger {
	return &statsLogger{
		stats:         make(map[string]*endpointStats),
		flushInterval: flushInterval,
		logger:        slog.Default().With("module", "http"),
	}
}

func (sl *statsLogger) run(ctx context.Context) {
	ticker := time.NewTicker(sl.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			sl.flushStats()
			return
		case <-ticker.C:
			sl.flushStats()
		}
	}
}

func (sl *statsLogger) flushStats() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	for endpoint, stats := range sl.stats {
		avgTimeMs := float64(stats.totalTime.Microseconds()) / float64(stats.count) / 1000.0
		sl.logger.Info("endpoint stats",
			"endpoint", endpoint,
			"count", stats.count,
			"avg_time_ms", fmt.Sprintf("%.2f", avgTimeMs),
			"period", sl.flushInterval,
		)
	}
	clear(sl.stats)
}

func (sl *statsLogger) snapshot(endpoint string) (int, bool) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	st, ok := sl.stats[endpoint]
	if !ok {
		return 0, false
	}
	return st.count, true
}

func (sl *statsLogger) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)

		// the pattern keeps submission keys out of the stats map
		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		endpoint := r.Method + " " + pattern

		sl.mu.Lock()
		if _, exists := sl.stats[endpoint]; !exists {
			sl.stats[endpoint] = &endpointStats{}
		}
		sl.stats[endpoint].count++
		sl.stats[endpoint].totalTime += duration
		sl.mu.Unlock()
	})
}
