package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/keystonemortgage/backend/internal/model"
)

// LeadRepository persists contact-form submissions
type LeadRepository interface {
	Create(ctx context.Context, lead *model.Lead) error
	ListRecent(ctx context.Context, limit int) ([]model.Lead, error)
}

type leadRepository struct {
	db *sqlx.DB
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *sqlx.DB) LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) Create(ctx context.Context, lead *model.Lead) error {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}

	query := `
		INSERT INTO leads (id, name, email, phone, message, region, loan_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.Message, lead.Region, lead.LoanType,
	).Scan(&lead.CreatedAt)
	if err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

func (r *leadRepository) ListRecent(ctx context.Context, limit int) ([]model.Lead, error) {
	query := `
		SELECT id, name, email, phone, message, region, loan_type, created_at
		FROM leads
		ORDER BY created_at DESC
		LIMIT $1
	`

	var leads []model.Lead
	if err := r.db.SelectContext(ctx, &leads, query, limit); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}
