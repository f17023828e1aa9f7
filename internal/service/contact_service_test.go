package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/keystonemortgage/backend/internal/apperror"
	"github.com/keystonemortgage/backend/internal/model"
)

func validContact() model.ContactRequest {
	return model.ContactRequest{
		Name:     "  Jane Doe ",
		Email:    "Jane Doe <jane@example.com>",
		Phone:    "(416) 555-0123",
		Message:  "Renewal coming up in March.",
		Region:   "Toronto",
		LoanType: "Renewal",
	}
}

func TestContactService_Submit(t *testing.T) {
	ctx := context.Background()
	leads := new(MockLeadRepository)
	notifier := new(MockNotifier)
	svc := NewContactService(leads, notifier)

	leads.On("Create", ctx, mock.AnythingOfType("*model.Lead")).
		Run(func(args mock.Arguments) {
			lead := args.Get(1).(*model.Lead)
			lead.ID = uuid.New()
			lead.CreatedAt = time.Now()
		}).
		Return(nil)
	notifier.On("NotifyLead", ctx, mock.AnythingOfType("*model.Lead")).Return(nil)

	lead, err := svc.Submit(ctx, validContact())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, lead.ID)
	assert.Equal(t, "Jane Doe", lead.Name)
	assert.Equal(t, "jane@example.com", lead.Email)
	assert.Equal(t, "toronto", lead.Region)
	assert.Equal(t, "renewal", lead.LoanType)
	leads.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestContactService_Submit_NotificationFailureIgnored(t *testing.T) {
	ctx := context.Background()
	leads := new(MockLeadRepository)
	notifier := new(MockNotifier)
	svc := NewContactService(leads, notifier)

	leads.On("Create", ctx, mock.Anything).Return(nil)
	notifier.On("NotifyLead", ctx, mock.Anything).Return(errors.New("smtp: connection refused"))

	lead, err := svc.Submit(ctx, validContact())
	require.NoError(t, err)
	assert.NotNil(t, lead)
}

func TestContactService_Submit_StoreFailure(t *testing.T) {
	ctx := context.Background()
	leads := new(MockLeadRepository)
	notifier := new(MockNotifier)
	svc := NewContactService(leads, notifier)

	leads.On("Create", ctx, mock.Anything).Return(errors.New("db down"))

	_, err := svc.Submit(ctx, validContact())
	assert.Equal(t, 500, apperror.GetStatusCode(err))
	notifier.AssertNotCalled(t, "NotifyLead", mock.Anything, mock.Anything)
}

func TestContactService_Submit_WithoutDependencies(t *testing.T) {
	svc := NewContactService(nil, nil)

	lead, err := svc.Submit(context.Background(), validContact())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, lead.ID)
	assert.False(t, lead.CreatedAt.IsZero())
}

func TestContactService_Submit_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *model.ContactRequest)
		field  string
	}{
		{"missing name", func(r *model.ContactRequest) { r.Name = "  " }, "name"},
		{"long name", func(r *model.ContactRequest) { r.Name = strings.Repeat("a", 201) }, "name"},
		{"bad email", func(r *model.ContactRequest) { r.Email = "not-an-email" }, "email"},
		{"letters in phone", func(r *model.ContactRequest) { r.Phone = "call me maybe" }, "phone"},
		{"short phone", func(r *model.ContactRequest) { r.Phone = "555-01" }, "phone"},
		{"missing message", func(r *model.ContactRequest) { r.Message = "" }, "message"},
		{"long message", func(r *model.ContactRequest) { r.Message = strings.Repeat("x", 5001) }, "message"},
		{"unknown loan type", func(r *model.ContactRequest) { r.LoanType = "timeshare" }, "loanType"},
		{"bad region", func(r *model.ContactRequest) { r.Region = "north york!" }, "region"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leads := new(MockLeadRepository)
			svc := NewContactService(leads, nil)

			req := validContact()
			tt.mutate(&req)

			_, err := svc.Submit(context.Background(), req)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tt.field, apperror.GetField(err))
			leads.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestContactService_Submit_OptionalFields(t *testing.T) {
	svc := NewContactService(nil, nil)

	req := validContact()
	req.Phone = ""
	req.Region = ""
	req.LoanType = ""

	lead, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, lead.Phone)
	assert.Empty(t, lead.Region)
}

func TestContactService_ListLeads(t *testing.T) {
	ctx := context.Background()
	leads := new(MockLeadRepository)
	svc := NewContactService(leads, nil)

	leads.On("ListRecent", ctx, 50).Return([]model.Lead{{Name: "Jane"}}, nil)

	got, err := svc.ListLeads(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	empty, err := NewContactService(nil, nil).ListLeads(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
