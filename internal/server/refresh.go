package server

import (
	"context"
	"log"
	"time"

	"ceoboard/internal/app"
)

// StartRefresher re-fetches the analysis bundle on the configured interval
// so the cached copy stays close to what the webhook would serve. A zero or
// negative interval disables it. Seeded collections are never overwritten;
// only the cache under the last-analysis key moves.
func StartRefresher(ctx context.Context, a *app.App) {
	interval := time.Duration(a.Config().Refresh.IntervalSeconds) * time.Second
	if interval <= 0 {
		return
	}
	go run(ctx, a, interval)
}

func run(ctx context.Context, a *app.App, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, fallback, err := a.RefreshAnalysis(ctx); err != nil {
			log.Printf("refresh: fetch failed: %v", err)
		} else if fallback {
			log.Printf("refresh: webhook unreachable, cache unchanged")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
