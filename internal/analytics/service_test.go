package analytics

import (
	"context"
	"testing"
	"time"

	"billease/internal/caching"
	"billease/internal/ledger"
	"billease/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) List(ctx context.Context, limit, offset int) ([]*models.Invoice, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListAll(ctx context.Context) ([]*models.Invoice, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) GetUnpaid(ctx context.Context, limit, offset int) ([]*models.Invoice, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) GetByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Invoice, error) {
	args := m.Called(ctx, startDate, endDate)
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ApplyPayment(ctx context.Context, id uuid.UUID, totalAmount decimal.Decimal, status string, expectedVersion int64) error {
	args := m.Called(ctx, id, totalAmount, status, expectedVersion)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GenerateInvoiceNumber(ctx context.Context, issueDate time.Time) (string, error) {
	args := m.Called(ctx, issueDate)
	return args.String(0), args.Error(1)
}

type MockPartyRepository struct {
	mock.Mock
}

func (m *MockPartyRepository) Create(ctx context.Context, party *models.Party) error {
	args := m.Called(ctx, party)
	return args.Error(0)
}

func (m *MockPartyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Party, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Party), args.Error(1)
}

func (m *MockPartyRepository) Update(ctx context.Context, party *models.Party) error {
	args := m.Called(ctx, party)
	return args.Error(0)
}

func (m *MockPartyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPartyRepository) List(ctx context.Context, limit, offset int) ([]*models.Party, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Party), args.Error(1)
}

func (m *MockPartyRepository) ListByType(ctx context.Context, partyType string, limit, offset int) ([]*models.Party, error) {
	args := m.Called(ctx, partyType, limit, offset)
	return args.Get(0).([]*models.Party), args.Error(1)
}

func (m *MockPartyRepository) ListAll(ctx context.Context) ([]*models.Party, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Party), args.Error(1)
}

// fakeCache is an in-memory stand-in for the redis cache, recording only the
// dashboard stats entry the analytics service touches.
type fakeCache struct {
	stats *ledger.DashboardStats
	sets  int
}

var _ caching.CacheService = (*fakeCache)(nil)

func (f *fakeCache) GetItem(context.Context, uuid.UUID) (*models.Item, error)          { return nil, nil }
func (f *fakeCache) SetItem(context.Context, *models.Item, time.Duration) error        { return nil }
func (f *fakeCache) DeleteItem(context.Context, uuid.UUID) error                       { return nil }
func (f *fakeCache) GetParty(context.Context, uuid.UUID) (*models.Party, error)        { return nil, nil }
func (f *fakeCache) SetParty(context.Context, *models.Party, time.Duration) error      { return nil }
func (f *fakeCache) DeleteParty(context.Context, uuid.UUID) error                      { return nil }
func (f *fakeCache) SetString(context.Context, string, string, time.Duration) error    { return nil }
func (f *fakeCache) GetString(context.Context, string) (string, error)                 { return "", nil }
func (f *fakeCache) Delete(context.Context, string) error                              { return nil }

func (f *fakeCache) GetDashboardStats(context.Context) (*ledger.DashboardStats, error) {
	return f.stats, nil
}

func (f *fakeCache) SetDashboardStats(_ context.Context, stats *ledger.DashboardStats, _ time.Duration) error {
	f.stats = stats
	f.sets++
	return nil
}

func (f *fakeCache) DeleteDashboardStats(context.Context) error {
	f.stats = nil
	return nil
}

type AnalyticsServiceTestSuite struct {
	suite.Suite
	invoiceRepo *MockInvoiceRepository
	partyRepo   *MockPartyRepository
	cache       *fakeCache
	svc         *AnalyticsService
}

func (s *AnalyticsServiceTestSuite) SetupTest() {
	s.invoiceRepo = new(MockInvoiceRepository)
	s.partyRepo = new(MockPartyRepository)
	s.cache = &fakeCache{}
	s.svc = NewAnalyticsService(s.invoiceRepo, s.partyRepo, s.cache)
}

func (s *AnalyticsServiceTestSuite) TestDashboardStats_ComputesAndCachesOnMiss() {
	ctx := context.Background()
	now := time.Now()

	invoices := []*models.Invoice{
		{TotalAmount: decimal.NewFromInt(840), Status: models.InvoiceStatusDue},
		{TotalAmount: decimal.NewFromInt(390), Status: models.InvoiceStatusPartial},
		{TotalAmount: decimal.NewFromInt(800), Status: models.InvoiceStatusPaid},
	}
	parties := []*models.Party{
		{Type: models.PartyTypeCustomer, CreatedAt: now.AddDate(0, 0, -5)},
		{Type: models.PartyTypeCustomer, CreatedAt: now.AddDate(0, -6, 0)},
		{Type: models.PartyTypeSupplier, CreatedAt: now},
	}

	s.invoiceRepo.On("ListAll", ctx).Return(invoices, nil).Once()
	s.partyRepo.On("ListAll", ctx).Return(parties, nil).Once()

	stats, err := s.svc.DashboardStats(ctx)
	s.Require().NoError(err)

	s.True(stats.TotalSales.Equal(decimal.NewFromInt(2030)), "total sales was %s", stats.TotalSales)
	s.True(stats.Outstanding.Equal(decimal.NewFromInt(1230)), "outstanding was %s", stats.Outstanding)
	s.Equal(2, stats.TotalCustomers)
	s.Equal(1, stats.NewCustomers)
	s.Equal(1, s.cache.sets)

	// Second call is served from cache without touching the repos
	again, err := s.svc.DashboardStats(ctx)
	s.Require().NoError(err)
	s.Equal(stats, again)

	s.invoiceRepo.AssertExpectations(s.T())
	s.partyRepo.AssertExpectations(s.T())
}

func (s *AnalyticsServiceTestSuite) TestRefreshDashboardStats_BypassesCache() {
	ctx := context.Background()

	s.cache.stats = &ledger.DashboardStats{
		TotalSales:  decimal.NewFromInt(999),
		Outstanding: decimal.NewFromInt(999),
	}

	s.invoiceRepo.On("ListAll", ctx).Return([]*models.Invoice{}, nil).Once()
	s.partyRepo.On("ListAll", ctx).Return([]*models.Party{}, nil).Once()

	stats, err := s.svc.RefreshDashboardStats(ctx)
	s.Require().NoError(err)

	s.True(stats.TotalSales.IsZero())
	s.True(stats.Outstanding.IsZero())
	s.Equal(0, stats.TotalCustomers)

	s.invoiceRepo.AssertExpectations(s.T())
}

func TestAnalyticsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceTestSuite))
}

func TestNewAnalyticsService(t *testing.T) {
	svc := NewAnalyticsService(new(MockInvoiceRepository), new(MockPartyRepository), &fakeCache{})
	require.NotNil(t, svc)
}
