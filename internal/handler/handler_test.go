package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"github.com/keystonemortgage/backend/internal/model"
	"github.com/keystonemortgage/backend/internal/scraper"
	"github.com/keystonemortgage/backend/internal/service"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// MockRateService implements RateServiceInterface for testing
type MockRateService struct {
	mock.Mock
}

func (m *MockRateService) GetRates(ctx context.Context, region string) (*model.RatesResponse, error) {
	args := m.Called(ctx, region)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RatesResponse), args.Error(1)
}

func (m *MockRateService) Regions(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRateService) Publish(ctx context.Context, region string, snapshot *model.RateSnapshot) (int64, error) {
	args := m.Called(ctx, region, snapshot)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRateService) History(ctx context.Context, region string, limit int) ([]model.SnapshotVersion, error) {
	args := m.Called(ctx, region, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SnapshotVersion), args.Error(1)
}

// MockContactService implements ContactServiceInterface for testing
type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) Submit(ctx context.Context, req model.ContactRequest) (*model.Lead, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lead), args.Error(1)
}

func (m *MockContactService) ListLeads(ctx context.Context, limit int) ([]model.Lead, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lead), args.Error(1)
}

// MockAdminService implements AdminServiceInterface for testing
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) Login(password string) (string, time.Time, error) {
	args := m.Called(password)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockAdminService) ValidateToken(token string) error {
	args := m.Called(token)
	return args.Error(0)
}

// MockRefreshService implements RefreshServiceInterface for testing
type MockRefreshService struct {
	mock.Mock
}

func (m *MockRefreshService) Refresh(ctx context.Context) (*service.RefreshSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RefreshSummary), args.Error(1)
}

func (m *MockRefreshService) RefreshRegion(ctx context.Context, region string) (*service.RefreshSummary, error) {
	args := m.Called(ctx, region)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RefreshSummary), args.Error(1)
}

func (m *MockRefreshService) Health(nextRunTime time.Time) scraper.HealthStatus {
	args := m.Called(nextRunTime)
	return args.Get(0).(scraper.HealthStatus)
}

// withURLParam attaches a chi route parameter to the request
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
