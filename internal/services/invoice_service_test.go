package services

import (
	"context"
	"testing"
	"time"

	"billease/internal/ledger"
	"billease/internal/models"
	"billease/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// Mock repositories

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

type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) Create(ctx context.Context, item *models.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockItemRepository) Update(ctx context.Context, item *models.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockItemRepository) List(ctx context.Context, limit, offset int) ([]*models.Item, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Item), args.Error(1)
}

func (m *MockItemRepository) Search(ctx context.Context, query string, limit, offset int) ([]*models.Item, error) {
	args := m.Called(ctx, query, limit, offset)
	return args.Get(0).([]*models.Item), args.Error(1)
}

type MockStatsInvalidator struct {
	mock.Mock
}

func (m *MockStatsInvalidator) DeleteDashboardStats(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// decEq matches a decimal argument by numeric value rather than internal
// representation.
func decEq(expected decimal.Decimal) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(expected)
	})
}

type InvoiceServiceTestSuite struct {
	suite.Suite
	invoiceRepo *MockInvoiceRepository
	partyRepo   *MockPartyRepository
	itemRepo    *MockItemRepository
	cacheSvc    *MockStatsInvalidator
	svc         InvoiceServiceInterface
}

func (s *InvoiceServiceTestSuite) SetupTest() {
	s.invoiceRepo = new(MockInvoiceRepository)
	s.partyRepo = new(MockPartyRepository)
	s.itemRepo = new(MockItemRepository)
	s.cacheSvc = new(MockStatsInvalidator)
	s.svc = NewInvoiceService(s.invoiceRepo, s.partyRepo, s.itemRepo, s.cacheSvc)
}

func (s *InvoiceServiceTestSuite) TestCreateInvoice_SnapshotsItemsAndComputesTotal() {
	ctx := context.Background()
	partyID := uuid.New()
	itemID := uuid.New()

	s.partyRepo.On("GetByID", ctx, partyID).Return(&models.Party{
		ID:   partyID,
		Name: "Sharma Traders",
		Type: models.PartyTypeCustomer,
	}, nil)

	s.itemRepo.On("GetByID", ctx, itemID).Return(&models.Item{
		ID:            itemID,
		Name:          "Steel Rod",
		Price:         decimal.NewFromInt(200),
		HSNCode:       "7214",
		GSTPercentage: decimal.NewFromInt(5),
	}, nil)

	s.invoiceRepo.On("GenerateInvoiceNumber", ctx, mock.AnythingOfType("time.Time")).Return("INV-2026-09-0001", nil)
	s.invoiceRepo.On("Create", ctx, mock.AnythingOfType("*models.Invoice")).Return(nil)
	s.cacheSvc.On("DeleteDashboardStats", ctx).Return(nil)

	invoice, err := s.svc.CreateInvoice(ctx, &CreateInvoiceInput{
		PartyID: partyID,
		Lines: []InvoiceLineInput{
			{ItemID: itemID, Quantity: 4},
		},
	})

	s.Require().NoError(err)
	s.Equal("INV-2026-09-0001", invoice.InvoiceNumber)
	s.Equal(models.InvoiceStatusDue, invoice.Status)
	s.Equal(int64(1), invoice.Version)

	// 4 x 200 = 800, plus 5% GST = 840
	s.True(invoice.TotalAmount.Equal(decimal.NewFromInt(840)), "total was %s", invoice.TotalAmount)

	s.Require().Len(invoice.Lines, 1)
	line := invoice.Lines[0]
	s.Equal("Steel Rod", line.ItemName)
	s.Equal("7214", line.HSNCode)
	s.True(line.UnitPrice.Equal(decimal.NewFromInt(200)))

	// due date defaults to 30 days after issue
	s.Require().NotNil(invoice.DueDate)
	s.WithinDuration(invoice.IssueDate.AddDate(0, 0, 30), *invoice.DueDate, time.Second)

	s.invoiceRepo.AssertExpectations(s.T())
	s.cacheSvc.AssertExpectations(s.T())
}

func (s *InvoiceServiceTestSuite) TestCreateInvoice_EmptyLinesRejected() {
	ctx := context.Background()

	_, err := s.svc.CreateInvoice(ctx, &CreateInvoiceInput{
		PartyID: uuid.New(),
		Lines:   nil,
	})

	s.Require().Error(err)
	s.ErrorIs(err, ledger.ErrInvalidInvoice)
	s.invoiceRepo.AssertNotCalled(s.T(), "Create")
}

func (s *InvoiceServiceTestSuite) TestCreateInvoice_NonPositiveQuantityRejected() {
	ctx := context.Background()
	partyID := uuid.New()
	itemID := uuid.New()

	s.partyRepo.On("GetByID", ctx, partyID).Return(&models.Party{ID: partyID, Type: models.PartyTypeCustomer}, nil)

	_, err := s.svc.CreateInvoice(ctx, &CreateInvoiceInput{
		PartyID: partyID,
		Lines:   []InvoiceLineInput{{ItemID: itemID, Quantity: 0}},
	})

	s.Require().Error(err)
	s.ErrorIs(err, ledger.ErrInvalidInvoice)
}

func (s *InvoiceServiceTestSuite) TestRecordPayment_PartialThenPaid() {
	ctx := context.Background()
	invoiceID := uuid.New()

	// First payment: 450 due, pay 200, expect partial with 250 left
	s.invoiceRepo.On("GetByID", ctx, invoiceID).Return(&models.Invoice{
		ID:          invoiceID,
		TotalAmount: decimal.NewFromInt(450),
		Status:      models.InvoiceStatusDue,
		Version:     1,
	}, nil).Once()
	s.invoiceRepo.On("ApplyPayment", ctx, invoiceID, decEq(decimal.NewFromInt(250)), models.InvoiceStatusPartial, int64(1)).Return(nil).Once()
	s.cacheSvc.On("DeleteDashboardStats", ctx).Return(nil)

	updated, err := s.svc.RecordPayment(ctx, invoiceID, decimal.NewFromInt(200))
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusPartial, updated.Status)
	s.True(updated.TotalAmount.Equal(decimal.NewFromInt(250)))
	s.Equal(int64(2), updated.Version)

	// Second payment clears the balance
	s.invoiceRepo.On("GetByID", ctx, invoiceID).Return(&models.Invoice{
		ID:          invoiceID,
		TotalAmount: decimal.NewFromInt(250),
		Status:      models.InvoiceStatusPartial,
		Version:     2,
	}, nil).Once()
	s.invoiceRepo.On("ApplyPayment", ctx, invoiceID, decEq(decimal.Zero), models.InvoiceStatusPaid, int64(2)).Return(nil).Once()

	updated, err = s.svc.RecordPayment(ctx, invoiceID, decimal.NewFromInt(250))
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusPaid, updated.Status)
	s.True(updated.TotalAmount.IsZero())

	s.invoiceRepo.AssertExpectations(s.T())
}

func (s *InvoiceServiceTestSuite) TestRecordPayment_RetriesOnVersionConflict() {
	ctx := context.Background()
	invoiceID := uuid.New()

	// First read sees version 1, but the write loses the race
	s.invoiceRepo.On("GetByID", ctx, invoiceID).Return(&models.Invoice{
		ID:          invoiceID,
		TotalAmount: decimal.NewFromInt(500),
		Status:      models.InvoiceStatusDue,
		Version:     1,
	}, nil).Once()
	s.invoiceRepo.On("ApplyPayment", ctx, invoiceID, decEq(decimal.NewFromInt(400)), models.InvoiceStatusPartial, int64(1)).
		Return(repositories.ErrVersionConflict).Once()

	// Retry re-reads the balance the concurrent payment left behind
	s.invoiceRepo.On("GetByID", ctx, invoiceID).Return(&models.Invoice{
		ID:          invoiceID,
		TotalAmount: decimal.NewFromInt(300),
		Status:      models.InvoiceStatusPartial,
		Version:     2,
	}, nil).Once()
	s.invoiceRepo.On("ApplyPayment", ctx, invoiceID, decEq(decimal.NewFromInt(200)), models.InvoiceStatusPartial, int64(2)).
		Return(nil).Once()
	s.cacheSvc.On("DeleteDashboardStats", ctx).Return(nil)

	updated, err := s.svc.RecordPayment(ctx, invoiceID, decimal.NewFromInt(100))
	s.Require().NoError(err)
	s.True(updated.TotalAmount.Equal(decimal.NewFromInt(200)))
	s.Equal(int64(3), updated.Version)

	s.invoiceRepo.AssertExpectations(s.T())
}

func (s *InvoiceServiceTestSuite) TestRecordPayment_GivesUpAfterRepeatedConflicts() {
	ctx := context.Background()
	invoiceID := uuid.New()

	s.invoiceRepo.On("GetByID", ctx, invoiceID).Return(&models.Invoice{
		ID:          invoiceID,
		TotalAmount: decimal.NewFromInt(500),
		Status:      models.InvoiceStatusDue,
		Version:     1,
	}, nil).Times(paymentRetries)
	s.invoiceRepo.On("ApplyPayment", ctx, invoiceID, mock.Anything, mock.Anything, int64(1)).
		Return(repositories.ErrVersionConflict).Times(paymentRetries)

	_, err := s.svc.RecordPayment(ctx, invoiceID, decimal.NewFromInt(100))
	s.Require().Error(err)
	s.ErrorIs(err, repositories.ErrVersionConflict)

	s.invoiceRepo.AssertExpectations(s.T())
}

func (s *InvoiceServiceTestSuite) TestRecordPayment_NonPositiveAmountRejected() {
	ctx := context.Background()
	invoiceID := uuid.New()

	s.invoiceRepo.On("GetByID", ctx, invoiceID).Return(&models.Invoice{
		ID:          invoiceID,
		TotalAmount: decimal.NewFromInt(500),
		Status:      models.InvoiceStatusDue,
		Version:     1,
	}, nil)

	_, err := s.svc.RecordPayment(ctx, invoiceID, decimal.Zero)
	s.Require().Error(err)
	s.ErrorIs(err, ledger.ErrInvalidPayment)
	s.invoiceRepo.AssertNotCalled(s.T(), "ApplyPayment")
}

func (s *InvoiceServiceTestSuite) TestGetInvoicesByDateRange_RejectsInvertedRange() {
	ctx := context.Background()
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -7)

	_, err := s.svc.GetInvoicesByDateRange(ctx, start, end)
	s.Require().Error(err)
	s.invoiceRepo.AssertNotCalled(s.T(), "GetByDateRange")
}

func TestInvoiceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceServiceTestSuite))
}

func TestBuildInsightsPrompt(t *testing.T) {
	input := &InsightsInput{
		SalesData:       `{"total":1000}`,
		InventoryLevels: `{"rods":5}`,
		MarketTrends:    "steady demand",
		UserProfile:     "hardware shop, Pune",
	}

	prompt := buildInsightsPrompt(input)

	assert.Contains(t, prompt, `Sales Data: {"total":1000}`)
	assert.Contains(t, prompt, `Inventory Levels: {"rods":5}`)
	assert.Contains(t, prompt, "Market Trends: steady demand")
	assert.Contains(t, prompt, "User Profile: hardware shop, Pune")
}

func TestGenerateInsights_EmptyInputRejected(t *testing.T) {
	svc := newInsightsServiceWithDeps(nil, "gpt-4o-mini")

	_, err := svc.GenerateInsights(context.Background(), &InsightsInput{})
	require.Error(t, err)
}
