package service

import (
	"context"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/keystonemortgage/backend/internal/apperror"
	"github.com/keystonemortgage/backend/internal/logger"
	"github.com/keystonemortgage/backend/internal/model"
	"github.com/keystonemortgage/backend/internal/repository"
)

const (
	maxNameLength    = 200
	maxMessageLength = 5000
)

var loanTypes = map[string]bool{
	"purchase":  true,
	"renewal":   true,
	"refinance": true,
	"other":     true,
}

// LeadNotifier delivers a new lead to the brokerage inbox
type LeadNotifier interface {
	NotifyLead(ctx context.Context, lead *model.Lead) error
}

// ContactService validates and records contact-form submissions. Both the
// repository and the notifier are optional.
type ContactService struct {
	leads    repository.LeadRepository
	notifier LeadNotifier
	now      func() time.Time
}

// NewContactService creates a new contact service
func NewContactService(leads repository.LeadRepository, notifier LeadNotifier) *ContactService {
	return &ContactService{
		leads:    leads,
		notifier: notifier,
		now:      time.Now,
	}
}

// Submit validates the request, stores the lead and notifies the inbox. A
// failed notification is logged; the lead has already been captured.
func (s *ContactService) Submit(ctx context.Context, req model.ContactRequest) (*model.Lead, error) {
	lead, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)

	if s.leads != nil {
		if err := s.leads.Create(ctx, lead); err != nil {
			return nil, apperror.Internal(err)
		}
	} else {
		lead.ID = uuid.New()
		lead.CreatedAt = s.now()
	}

	if s.notifier == nil {
		log.Info("contact lead received, mail delivery not configured", "lead_id", lead.ID)
		return lead, nil
	}

	if err := s.notifier.NotifyLead(ctx, lead); err != nil {
		log.Error("failed to send lead notification", "lead_id", lead.ID, "error", err)
	} else {
		log.Info("contact lead received", "lead_id", lead.ID, "region", lead.Region)
	}

	return lead, nil
}

// ListLeads returns the most recent leads
func (s *ContactService) ListLeads(ctx context.Context, limit int) ([]model.Lead, error) {
	if s.leads == nil {
		return []model.Lead{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	leads, err := s.leads.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return leads, nil
}

func (s *ContactService) validate(req model.ContactRequest) (*model.Lead, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.ValidationError("name", "name is required")
	}
	if len(name) > maxNameLength {
		return nil, apperror.ValidationError("name", "name is too long")
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, apperror.ValidationError("email", "invalid email address")
	}

	phone := strings.TrimSpace(req.Phone)
	if phone != "" {
		digits := 0
		for _, r := range phone {
			switch {
			case unicode.IsDigit(r):
				digits++
			case strings.ContainsRune(" +-().", r):
			default:
				return nil, apperror.ValidationError("phone", "invalid phone number")
			}
		}
		if digits < 7 || digits > 20 {
			return nil, apperror.ValidationError("phone", "invalid phone number")
		}
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apperror.ValidationError("message", "message is required")
	}
	if len(message) > maxMessageLength {
		return nil, apperror.ValidationError("message", "message is too long")
	}

	loanType := strings.ToLower(strings.TrimSpace(req.LoanType))
	if loanType != "" && !loanTypes[loanType] {
		return nil, apperror.ValidationError("loanType", "unknown loan type")
	}

	region := strings.ToLower(strings.TrimSpace(req.Region))
	if region != "" && !repository.ValidRegion(region) {
		return nil, apperror.ValidationError("region", "invalid region")
	}

	return &model.Lead{
		Name:     name,
		Email:    addr.Address,
		Phone:    phone,
		Message:  message,
		Region:   region,
		LoanType: loanType,
	}, nil
}
