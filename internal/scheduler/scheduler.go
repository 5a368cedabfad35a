package scheduler

import (
	"fmt"
	"log"

	"AssetTracker/internal/acquisition"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the periodic jobs around the tracker.
type Scheduler struct {
	Cron    *cron.Cron
	Tracker *acquisition.Tracker
}

// NewScheduler creates a new Scheduler. Cron specs include a seconds field.
func NewScheduler(tr *acquisition.Tracker) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Tracker: tr,
	}
}

// RegisterAll registers the series refresh and cache sweep jobs.
// An empty expression disables that job.
func (s *Scheduler) RegisterAll(seriesRefreshCron, cacheSweepCron string) error {
	if seriesRefreshCron != "" {
		if _, err := s.Cron.AddFunc(seriesRefreshCron, s.refreshSeries); err != nil {
			return fmt.Errorf("register series refresh: %w", err)
		}
	}
	if cacheSweepCron != "" {
		if _, err := s.Cron.AddFunc(cacheSweepCron, s.sweepCache); err != nil {
			return fmt.Errorf("register cache sweep: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) refreshSeries() {
	sel := s.Tracker.Selection()
	if sel.Coin == "" {
		return
	}
	log.Printf("[INFO] refreshing series for %s (compare=%q, comparison=%v)", sel.Coin, sel.Compare, sel.Comparison)
	s.Tracker.RefreshSeries()
}

func (s *Scheduler) sweepCache() {
	s.Tracker.SweepCache()
}
