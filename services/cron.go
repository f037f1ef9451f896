package services

import (
	"context"
	"time"

	"multitenant-rag-platform/internal/logger"
	"multitenant-rag-platform/internal/store"

	"github.com/go-co-op/gocron"
)

// CronService runs the periodic maintenance jobs: resetting every
// tenant's daily query counter at midnight UTC.
type CronService struct {
	scheduler *gocron.Scheduler
	store     store.TenantStore
}

func NewCronService(st store.TenantStore) *CronService {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	return &CronService{scheduler: s, store: st}
}

// Start registers the jobs and runs the scheduler in the background.
func (c *CronService) Start() error {
	_, err := c.scheduler.Cron("0 0 * * *").Tag("daily-counter-reset").Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := c.store.ResetDailyCounters(ctx); err != nil {
			logger.Error("Daily counter reset failed", "error", err)
			return
		}
		logger.Info("Daily query counters reset")
	})
	if err != nil {
		return err
	}

	c.scheduler.StartAsync()
	logger.Info("Cron scheduler started")
	return nil
}

func (c *CronService) Stop() {
	c.scheduler.Stop()
}
