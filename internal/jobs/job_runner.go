package jobs

import (
	"database/sql"

	"dpc-portal-backend/internal/config"
	"dpc-portal-backend/internal/logger"
	"dpc-portal-backend/internal/service"
)

// JobRunner coordinates all scheduled verification jobs
type JobRunner struct {
	db       *sql.DB
	verifier service.AoVerificationService
	config   *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(db *sql.DB, verifier service.AoVerificationService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		db:       db,
		verifier: verifier,
		config:   cfg,
	}
}

// Config exposes the loaded configuration for schedule registration
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllVerificationJobs runs both re-verification jobs (for manual execution)
func (jr *JobRunner) RunAllVerificationJobs() {
	jr.VerifyAos()
	jr.VerifyProviderOrganizations()
}
