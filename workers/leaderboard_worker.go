// workers/leaderboard_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"github.com/marlonyi/senas-web/services"
)

// LeaderboardWorker periodically rebuilds the leaderboard snapshot so the
// read endpoint never scans points accounts directly.
type LeaderboardWorker struct {
	gamification *services.GamificationService
	interval     time.Duration
}

func NewLeaderboardWorker(gamification *services.GamificationService, interval time.Duration) *LeaderboardWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &LeaderboardWorker{gamification: gamification, interval: interval}
}

func (w *LeaderboardWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Leaderboard Snapshot Worker…")
	go w.run(ctx)
}

func (w *LeaderboardWorker) run(ctx context.Context) {
	// Build the first snapshot right away so the endpoint has data on boot.
	if err := w.gamification.RefreshLeaderboard(); err != nil {
		log.Printf("⚠️ Initial leaderboard snapshot failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.gamification.RefreshLeaderboard(); err != nil {
				log.Printf("❌ Leaderboard snapshot failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Leaderboard Snapshot Worker stopped")
			return
		}
	}
}
