package handler

import (
	"context"
	"time"

	"github.com/keystonemortgage/backend/internal/model"
	"github.com/keystonemortgage/backend/internal/scraper"
	"github.com/keystonemortgage/backend/internal/service"
)

// RateServiceInterface for handler testing
type RateServiceInterface interface {
	GetRates(ctx context.Context, region string) (*model.RatesResponse, error)
	Regions(ctx context.Context) ([]string, error)
	Publish(ctx context.Context, region string, snapshot *model.RateSnapshot) (int64, error)
	History(ctx context.Context, region string, limit int) ([]model.SnapshotVersion, error)
}

// ContactServiceInterface for handler testing
type ContactServiceInterface interface {
	Submit(ctx context.Context, req model.ContactRequest) (*model.Lead, error)
	ListLeads(ctx context.Context, limit int) ([]model.Lead, error)
}

// AdminServiceInterface for handler testing
type AdminServiceInterface interface {
	Login(password string) (string, time.Time, error)
	ValidateToken(token string) error
}

// RefreshServiceInterface for handler testing
type RefreshServiceInterface interface {
	Refresh(ctx context.Context) (*service.RefreshSummary, error)
	RefreshRegion(ctx context.Context, region string) (*service.RefreshSummary, error)
	Health(nextRunTime time.Time) scraper.HealthStatus
}

// TokenValidator checks admin bearer tokens
type TokenValidator interface {
	ValidateToken(token string) error
}
