package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keystonemortgage/backend/internal/apperror"
	"github.com/keystonemortgage/backend/internal/logger"
	"github.com/keystonemortgage/backend/internal/model"
	"github.com/keystonemortgage/backend/internal/service"
)

// LoginRequest is the admin login body
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries the issued admin token
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PublishResponse reports the version assigned to a published snapshot
type PublishResponse struct {
	Region  string `json:"region"`
	Version int64  `json:"version"`
}

// RefreshResponse is returned by a manual refresh. Error is set when the
// cycle ended early or published nothing.
type RefreshResponse struct {
	Summary *service.RefreshSummary `json:"summary"`
	Error   string                  `json:"error,omitempty"`
}

// AdminHandler handles the operator API
type AdminHandler struct {
	admin          AdminServiceInterface
	rates          RateServiceInterface
	refresh        RefreshServiceInterface
	nextRun        func() time.Time
	refreshTimeout time.Duration
}

// NewAdminHandler creates a new admin handler. nextRun reports the scheduler's
// next refresh and may be nil.
func NewAdminHandler(admin AdminServiceInterface, rates RateServiceInterface, refresh RefreshServiceInterface, nextRun func() time.Time, refreshTimeout time.Duration) *AdminHandler {
	if nextRun == nil {
		nextRun = func() time.Time { return time.Time{} }
	}
	if refreshTimeout <= 0 {
		refreshTimeout = 5 * time.Minute
	}
	return &AdminHandler{
		admin:          admin,
		rates:          rates,
		refresh:        refresh,
		nextRun:        nextRun,
		refreshTimeout: refreshTimeout,
	}
}

// Login godoc
// @Summary Admin login
// @Tags admin
// @Accept json
// @Produce json
// @Param input body LoginRequest true "Admin password"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /admin/login [post]
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input LoginRequest
	if err := decodeJSON(w, r, &input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.Password == "" {
		respondError(w, http.StatusBadRequest, "password is required")
		return
	}

	token, expiresAt, err := h.admin.Login(input.Password)
	if err != nil {
		logger.FromContext(r.Context()).Warn("admin login rejected", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}

// PublishRates godoc
// @Summary Publish a rate snapshot
// @Description Validates the snapshot and replaces the region's current one
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param region path string true "Region slug"
// @Param input body model.RateSnapshot true "Snapshot"
// @Success 200 {object} PublishResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /admin/rates/{region} [put]
func (h *AdminHandler) PublishRates(w http.ResponseWriter, r *http.Request) {
	region := strings.ToLower(chi.URLParam(r, "region"))
	ctx := logger.WithRegion(r.Context(), region)

	var snapshot model.RateSnapshot
	if err := decodeJSON(w, r, &snapshot); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	version, err := h.rates.Publish(ctx, region, &snapshot)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.FromContext(ctx).Info("snapshot published by admin", "version", version, "rates", len(snapshot.Rates))
	respondJSON(w, http.StatusOK, PublishResponse{Region: region, Version: version})
}

// RefreshRates godoc
// @Summary Run the snapshot producers now
// @Description Runs every producer, or only those for one region, and publishes what they return
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param region query string false "Limit the refresh to one region"
// @Success 200 {object} RefreshResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} RefreshResponse
// @Failure 503 {object} ErrorResponse
// @Router /admin/rates/refresh [post]
func (h *AdminHandler) RefreshRates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.refreshTimeout)
	defer cancel()

	var (
		summary *service.RefreshSummary
		err     error
	)
	if region := strings.TrimSpace(r.URL.Query().Get("region")); region != "" {
		summary, err = h.refresh.RefreshRegion(logger.WithRegion(ctx, region), strings.ToLower(region))
	} else {
		summary, err = h.refresh.Refresh(ctx)
	}

	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) || summary == nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusBadGateway, RefreshResponse{Summary: summary, Error: err.Error()})
		return
	}

	respondJSON(w, http.StatusOK, RefreshResponse{Summary: summary})
}

// GetHistory godoc
// @Summary Stored snapshot versions for a region
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param region path string true "Region slug"
// @Param limit query int false "Maximum versions returned" default(20)
// @Success 200 {array} model.SnapshotVersion
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/rates/{region}/history [get]
func (h *AdminHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	region := strings.ToLower(chi.URLParam(r, "region"))

	history, err := h.rates.History(r.Context(), region, queryInt(r, "limit", 20))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if history == nil {
		history = []model.SnapshotVersion{}
	}
	respondJSON(w, http.StatusOK, history)
}

// GetScraperHealth godoc
// @Summary Snapshot producer health
// @Description Outcome of the last refresh cycle and the next scheduled run
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} scraper.HealthStatus
// @Failure 401 {object} ErrorResponse
// @Router /admin/scraper-health [get]
func (h *AdminHandler) GetScraperHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.refresh.Health(h.nextRun()))
}
