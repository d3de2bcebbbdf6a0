package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yunshang/merchant-admin-backend/internal/app/repository"
	"github.com/yunshang/merchant-admin-backend/pkg/logger"
)

// PremiumScheduler sweeps accounts whose paid premium window has lapsed
type PremiumScheduler struct {
	cron        *cron.Cron
	accountRepo repository.AccountRepository
	spec        string
}

func NewPremiumScheduler(accountRepo repository.AccountRepository, spec string) *PremiumScheduler {
	return &PremiumScheduler{
		cron:        cron.New(),
		accountRepo: accountRepo,
		spec:        spec,
	}
}

func (s *PremiumScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		logger.Info("Starting premium expiry sweep", nil)

		swept, err := s.accountRepo.ExpirePremium(time.Now())
		if err != nil {
			logger.Error("Premium expiry sweep failed", err)
			return
		}

		logger.Info("Premium expiry sweep completed", map[string]interface{}{
			"swept": swept,
		})
	})
	if err != nil {
		logger.Error("Failed to schedule premium expiry sweep", err)
		return err
	}

	s.cron.Start()
	logger.Info("Premium scheduler started", map[string]interface{}{
		"spec": s.spec,
	})

	return nil
}

func (s *PremiumScheduler) Stop() {
	logger.Info("Stopping premium scheduler...", nil)
	s.cron.Stop()
	logger.Info("Premium scheduler stopped", nil)
}
