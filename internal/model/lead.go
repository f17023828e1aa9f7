package model

import (
	"time"

	"github.com/google/uuid"
)

// ContactRequest is the body of the public contact form.
type ContactRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Message  string `json:"message"`
	Region   string `json:"region,omitempty"`
	LoanType string `json:"loanType,omitempty"` // purchase, renewal, refinance
}

// Lead is a stored contact-form submission.
type Lead struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	Message   string    `db:"message" json:"message"`
	Region    string    `db:"region" json:"region,omitempty"`
	LoanType  string    `db:"loan_type" json:"loanType,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ContactResponse acknowledges a submission.
type ContactResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	ID      uuid.UUID `json:"id"`
}
