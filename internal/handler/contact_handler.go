package handler

import (
	"net/http"

	"github.com/keystonemortgage/backend/internal/model"
)

const contactThanks = "Thanks for reaching out. A broker will contact you within one business day."

// ContactHandler handles the public contact form
type ContactHandler struct {
	service ContactServiceInterface
}

// NewContactHandler creates a new contact handler
func NewContactHandler(svc ContactServiceInterface) *ContactHandler {
	return &ContactHandler{service: svc}
}

// Submit godoc
// @Summary Submit the contact form
// @Description Validates and records a lead, then notifies the brokerage inbox
// @Tags contact
// @Accept json
// @Produce json
// @Param input body model.ContactRequest true "Contact details"
// @Success 200 {object} model.ContactResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /contact [post]
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input model.ContactRequest
	if err := decodeJSON(w, r, &input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead, err := h.service.Submit(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, model.ContactResponse{
		Success: true,
		Message: contactThanks,
		ID:      lead.ID,
	})
}

// ListLeads godoc
// @Summary Recent contact-form leads
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum leads returned" default(50)
// @Success 200 {array} model.Lead
// @Failure 401 {object} ErrorResponse
// @Router /admin/leads [get]
func (h *ContactHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.service.ListLeads(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	respondJSON(w, http.StatusOK, leads)
}
