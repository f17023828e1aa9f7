package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/keystonemortgage/backend/internal/model"
	"github.com/keystonemortgage/backend/internal/scraper"
)

// MockSnapshotRepository is a mock implementation of SnapshotRepository
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) Get(ctx context.Context, region string) (*model.RateSnapshot, error) {
	args := m.Called(ctx, region)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RateSnapshot), args.Error(1)
}

func (m *MockSnapshotRepository) Replace(ctx context.Context, region string, snapshot *model.RateSnapshot) (int64, error) {
	args := m.Called(ctx, region, snapshot)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSnapshotRepository) Regions(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSnapshotRepository) History(ctx context.Context, region string, limit int) ([]model.SnapshotVersion, error) {
	args := m.Called(ctx, region, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SnapshotVersion), args.Error(1)
}

// MockPruningRepository adds history pruning to MockSnapshotRepository
type MockPruningRepository struct {
	MockSnapshotRepository
}

func (m *MockPruningRepository) PruneHistory(ctx context.Context, keep int) (int64, error) {
	args := m.Called(ctx, keep)
	return args.Get(0).(int64), args.Error(1)
}

// MockLeadRepository is a mock implementation of LeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *model.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) ListRecent(ctx context.Context, limit int) ([]model.Lead, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lead), args.Error(1)
}

// MockNotifier is a mock implementation of LeadNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyLead(ctx context.Context, lead *model.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

// MockOrchestrator is a mock implementation of SnapshotOrchestrator
type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) RunAll(ctx context.Context) ([]scraper.JobResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scraper.JobResult), args.Error(1)
}

func (m *MockOrchestrator) RunRegion(ctx context.Context, region string) ([]scraper.JobResult, error) {
	args := m.Called(ctx, region)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scraper.JobResult), args.Error(1)
}

func (m *MockOrchestrator) GetHealthStatus(nextRunTime time.Time) scraper.HealthStatus {
	args := m.Called(nextRunTime)
	return args.Get(0).(scraper.HealthStatus)
}

// MockPublisher is a mock implementation of SnapshotPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, region string, snapshot *model.RateSnapshot) (int64, error) {
	args := m.Called(ctx, region, snapshot)
	return args.Get(0).(int64), args.Error(1)
}
