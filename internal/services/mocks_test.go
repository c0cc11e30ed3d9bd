package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"sales-service/internal/models"
	"sales-service/internal/repository"
)

// MockSalesRepository is a mock implementation of SalesRepositoryInterface
type MockSalesRepository struct {
	mock.Mock
}

// Ensure MockSalesRepository implements the interface
var _ repository.SalesRepositoryInterface = (*MockSalesRepository)(nil)

func (m *MockSalesRepository) UpsertBatch(ctx context.Context, records []models.SalesRecord) (models.BatchStats, error) {
	args := m.Called(ctx, records)
	return args.Get(0).(models.BatchStats), args.Error(1)
}

// MockImportJobRepository is a mock implementation of ImportJobRepositoryInterface
type MockImportJobRepository struct {
	mock.Mock
}

var _ repository.ImportJobRepositoryInterface = (*MockImportJobRepository)(nil)

func (m *MockImportJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockImportJobRepository) Update(ctx context.Context, job *models.ImportJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockImportJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ImportJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportJob), args.Error(1)
}

// MockAnalyticsRepository is a mock implementation of AnalyticsRepositoryInterface
type MockAnalyticsRepository struct {
	mock.Mock
}

var _ repository.AnalyticsRepositoryInterface = (*MockAnalyticsRepository)(nil)

func (m *MockAnalyticsRepository) GetTotals(ctx context.Context, r models.AnalyticsRange) (*models.AnalyticsTotals, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalyticsTotals), args.Error(1)
}

func (m *MockAnalyticsRepository) InvalidateCache(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

var _ EventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) PublishImportCompleted(ctx context.Context, report *models.ImportReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}
