package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/erickguan/agentic-finance-analysis/internal/logger"
)

// Refresher periodically re-fetches every company currently in the vector
// index so the stored context stays warm between user queries.
type Refresher struct {
	scheduler *gocron.Scheduler
	retriever *Retriever
	store     *VectorStore
	interval  time.Duration
}

func NewRefresher(retriever *Retriever, store *VectorStore, interval time.Duration) *Refresher {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()

	return &Refresher{
		scheduler: s,
		retriever: retriever,
		store:     store,
		interval:  interval,
	}
}

// Start schedules the refresh job and begins running it. A non-positive
// interval disables the refresher entirely.
func (rf *Refresher) Start() error {
	if rf.interval <= 0 {
		logger.Info("Symbol refresher disabled")
		return nil
	}

	_, err := rf.scheduler.Every(rf.interval).Tag("symbol-refresh").Do(rf.refreshAll)
	if err != nil {
		return err
	}

	rf.scheduler.StartAsync()
	logger.Info("Symbol refresher started", "interval", rf.interval.String())
	return nil
}

// Stop halts the scheduler.
func (rf *Refresher) Stop() {
	rf.scheduler.Stop()
}

func (rf *Refresher) refreshAll() {
	companies := rf.store.Companies()
	if len(companies) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), rf.interval)
	defer cancel()

	for _, symbol := range companies {
		if ctx.Err() != nil {
			logger.Warn("Refresh cycle ran out of time", "remaining", symbol)
			return
		}
		if err := rf.retriever.RefreshSymbol(ctx, symbol); err != nil {
			logger.Warn("Symbol refresh failed", "symbol", symbol, "error", err)
		}
	}
	logger.Info("Refreshed tracked symbols", "count", len(companies))
}
