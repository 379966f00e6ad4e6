package analytics

import (
	"context"
	"time"

	"billease/internal/caching"
	"billease/internal/ledger"
	"billease/internal/logger"
	"billease/internal/repositories"

	"github.com/rs/zerolog"
)

const statsCacheTTL = 5 * time.Minute

// AnalyticsService aggregates dashboard statistics over invoices and
// parties, with a short-lived redis cache in front of the computation.
type AnalyticsService struct {
	invoiceRepo repositories.InvoiceRepository
	partyRepo   repositories.PartyRepository
	cacheSvc    caching.CacheService
	log         zerolog.Logger
}

func NewAnalyticsService(invoiceRepo repositories.InvoiceRepository, partyRepo repositories.PartyRepository, cacheSvc caching.CacheService) *AnalyticsService {
	return &AnalyticsService{
		invoiceRepo: invoiceRepo,
		partyRepo:   partyRepo,
		cacheSvc:    cacheSvc,
		log:         logger.WithComponent("analytics"),
	}
}

// DashboardStats returns the cached dashboard aggregate, computing and
// caching it on a miss. Invoice and payment writes invalidate the cache.
func (s *AnalyticsService) DashboardStats(ctx context.Context) (*ledger.DashboardStats, error) {
	if cached, err := s.cacheSvc.GetDashboardStats(ctx); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		s.log.Warn().Err(err).Msg("Dashboard stats cache read failed")
	}

	return s.RefreshDashboardStats(ctx)
}

// RefreshDashboardStats recomputes the dashboard aggregate from the store
// and updates the cache.
func (s *AnalyticsService) RefreshDashboardStats(ctx context.Context) (*ledger.DashboardStats, error) {
	invoices, err := s.invoiceRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	parties, err := s.partyRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := ledger.AggregateDashboardStats(invoices, parties, time.Now())

	if err := s.cacheSvc.SetDashboardStats(ctx, &stats, statsCacheTTL); err != nil {
		s.log.Warn().Err(err).Msg("Dashboard stats cache write failed")
	}

	return &stats, nil
}
