package services

import (
	"context"
	"log"

	"tapledger/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// CronService runs scheduled maintenance jobs
type CronService struct {
	tokenRepo repositories.AccessTokenRepository
	staleDays int
	scheduler *cron.Cron
}

// NewCronService creates a new cron service. staleDays controls how long an
// unused access token survives before cleanup.
func NewCronService(tokenRepo repositories.AccessTokenRepository, staleDays int) *CronService {
	return &CronService{
		tokenRepo: tokenRepo,
		staleDays: staleDays,
		scheduler: cron.New(),
	}
}

// Start schedules the jobs and launches the scheduler
func (s *CronService) Start() {
	// Purge stale tokens nightly at 03:00
	if _, err := s.scheduler.AddFunc("0 3 * * *", s.purgeStaleTokens); err != nil {
		log.Printf("failed to schedule token cleanup: %v", err)
		return
	}
	s.scheduler.Start()
	log.Println("cron service started")
}

// Stop stops the scheduler
func (s *CronService) Stop() {
	s.scheduler.Stop()
	log.Println("cron service stopped")
}

func (s *CronService) purgeStaleTokens() {
	deleted, err := s.tokenRepo.DeleteStale(context.Background(), s.staleDays)
	if err != nil {
		log.Printf("token cleanup error: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("token cleanup: removed %d stale tokens", deleted)
	}
}
