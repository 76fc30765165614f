package jobs

import (
	"context"
	"fmt"
	"time"

	"ridehail-backend-core/internal/config"
	"ridehail-backend-core/internal/logger"
	"ridehail-backend-core/internal/repository"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	repos  *Repositories
	config *config.Config
	now    func() time.Time
}

// Repositories holds the storage the jobs read and update
type Repositories struct {
	Savings    repository.SavingsRepository
	Settlement repository.SettlementRepository
	Ledger     repository.LedgerRepository
	Company    repository.CompanyRepository
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(repos *Repositories, cfg *config.Config) *JobRunner {
	return &JobRunner{
		repos:  repos,
		config: cfg,
		now:    time.Now,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
		logger.JobFinished(jobName, err)
	}()

	logger.JobStarted(jobName)
	return jobFunc(context.Background())
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.MatureSavingsAccounts()
	jr.AuditSettlements()
}
