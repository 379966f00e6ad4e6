package background

import (
	"context"
	"sync"
	"time"

	"billease/internal/analytics"
	"billease/internal/logger"
	"billease/internal/repositories"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// JobScheduler manages the periodic background jobs: warming the dashboard
// stats cache and scanning for overdue invoices.
type JobScheduler struct {
	scheduler    gocron.Scheduler
	analyticsSvc *analytics.AnalyticsService
	invoiceRepo  repositories.InvoiceRepository
	jobs         map[string]gocron.Job
	mu           sync.RWMutex
	log          zerolog.Logger
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(analyticsSvc *analytics.AnalyticsService, invoiceRepo repositories.InvoiceRepository) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler:    scheduler,
		analyticsSvc: analyticsSvc,
		invoiceRepo:  invoiceRepo,
		jobs:         make(map[string]gocron.Job),
		log:          logger.WithComponent("scheduler"),
	}

	js.registerJobs()

	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.log.Info().Int("jobs", len(js.jobs)).Msg("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	js.log.Info().Msg("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	// Dashboard stats warm - every 5 minutes, never overlapping
	statsJob, err := js.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(js.warmDashboardStats, context.Background()),
		gocron.WithName("dashboard-stats-warm"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		js.log.Error().Err(err).Msg("Failed to create dashboard stats job")
	} else {
		js.jobs["dashboard-stats"] = statsJob
	}

	// Overdue invoice scan - daily
	overdueJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.scanOverdueInvoices, context.Background()),
		gocron.WithName("overdue-invoice-scan"),
	)
	if err != nil {
		js.log.Error().Err(err).Msg("Failed to create overdue invoice job")
	} else {
		js.jobs["overdue-invoices"] = overdueJob
	}
}

// warmDashboardStats recomputes the dashboard aggregate so the first
// dashboard request after cache expiry doesn't pay the computation.
func (js *JobScheduler) warmDashboardStats(ctx context.Context) error {
	if _, err := js.analyticsSvc.RefreshDashboardStats(ctx); err != nil {
		js.log.Error().Err(err).Msg("Dashboard stats warm failed")
		return err
	}
	js.log.Debug().Msg("Dashboard stats warmed")
	return nil
}

// scanOverdueInvoices walks the open invoices and logs each one past its due
// date. TODO: wire these into an outbound reminder channel once one exists.
func (js *JobScheduler) scanOverdueInvoices(ctx context.Context) error {
	const pageSize = 200

	now := time.Now()
	overdue := 0

	for offset := 0; ; offset += pageSize {
		invoices, err := js.invoiceRepo.GetUnpaid(ctx, pageSize, offset)
		if err != nil {
			js.log.Error().Err(err).Msg("Overdue invoice scan failed")
			return err
		}

		for _, inv := range invoices {
			if inv.DueDate == nil || !inv.DueDate.Before(now) {
				continue
			}
			overdue++
			js.log.Warn().
				Str("invoice_number", inv.InvoiceNumber).
				Str("party_id", inv.PartyID.String()).
				Str("balance", inv.TotalAmount.String()).
				Time("due_date", *inv.DueDate).
				Msg("Invoice overdue")
		}

		if len(invoices) < pageSize {
			break
		}
	}

	js.log.Info().Int("overdue", overdue).Msg("Completed overdue invoice scan")
	return nil
}

// AddJob adds a custom job to the scheduler
func (js *JobScheduler) AddJob(name string, interval time.Duration, taskFn interface{}, params ...interface{}) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskFn, params...),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}

	js.jobs[name] = job
	return nil
}

// GetJobStatus returns the names of the registered jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}

	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       names,
	}
}
