package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/keystonemortgage/backend/internal/apperror"
	"github.com/keystonemortgage/backend/internal/logger"
	"github.com/keystonemortgage/backend/internal/model"
)

// RateHandler handles public mortgage rate requests
type RateHandler struct {
	service RateServiceInterface
	now     func() time.Time
}

// NewRateHandler creates a new rate handler
func NewRateHandler(svc RateServiceInterface) *RateHandler {
	return &RateHandler{service: svc, now: time.Now}
}

// GetRates godoc
// @Summary Current mortgage rates
// @Description Returns the stored rate snapshot for a region with display fields derived. When no usable snapshot exists the response is 503 and carries no rates.
// @Tags rates
// @Produce json
// @Param region query string false "Region slug (defaults to the configured region)"
// @Success 200 {object} model.RatesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} model.UnavailableResponse
// @Router /rates [get]
func (h *RateHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	ctx := logger.WithRegion(r.Context(), region)

	resp, err := h.service.GetRates(ctx, region)
	if err != nil {
		if errors.Is(err, apperror.ErrUnavailable) {
			w.Header().Set("Cache-Control", "no-store")
			respondJSON(w, http.StatusServiceUnavailable, model.UnavailableResponse{
				Error:     model.UnavailableErrorKind,
				Message:   apperror.GetMessage(err),
				Timestamp: h.now().UTC(),
			})
			return
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// ListRegions godoc
// @Summary List regions with rate data
// @Tags rates
// @Produce json
// @Success 200 {array} string
// @Failure 500 {object} ErrorResponse
// @Router /rates/regions [get]
func (h *RateHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.service.Regions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if regions == nil {
		regions = []string{}
	}
	respondJSON(w, http.StatusOK, regions)
}
