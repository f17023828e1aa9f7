// Package notify emails new contact-form leads to the brokerage inbox.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"github.com/keystonemortgage/backend/internal/config"
	"github.com/keystonemortgage/backend/internal/model"
)

// Mailer sends lead notifications over SMTP
type Mailer struct {
	cfg    config.SMTPConfig
	logger *slog.Logger
	send   func(e *email.Email) error
}

// NewMailer creates a mailer. Callers only build one when cfg.Enabled().
func NewMailer(cfg config.SMTPConfig, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mailer{cfg: cfg, logger: logger}
	m.send = m.sendSMTP
	return m
}

// NotifyLead emails the lead to the configured inbox
func (m *Mailer) NotifyLead(ctx context.Context, lead *model.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := m.leadEmail(lead)
	if err := m.send(e); err != nil {
		m.logger.Error("Failed to send lead notification",
			"lead_id", lead.ID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to send lead notification: %w", err)
	}

	m.logger.Info("Lead notification sent", "lead_id", lead.ID.String(), "to", m.cfg.To)
	return nil
}

func (m *Mailer) leadEmail(lead *model.Lead) *email.Email {
	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = []string{m.cfg.To}
	e.ReplyTo = []string{lead.Email}
	e.Subject = leadSubject(lead)
	e.Text = []byte(leadBody(lead))
	return e
}

func (m *Mailer) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return e.Send(addr, auth)
}

func leadSubject(lead *model.Lead) string {
	subject := "New mortgage enquiry from " + lead.Name
	if lead.LoanType != "" {
		subject += " (" + lead.LoanType + ")"
	}
	return subject
}

func leadBody(lead *model.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", lead.Name)
	fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	if lead.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", lead.Phone)
	}
	if lead.Region != "" {
		fmt.Fprintf(&b, "Region: %s\n", lead.Region)
	}
	if lead.LoanType != "" {
		fmt.Fprintf(&b, "Loan type: %s\n", lead.LoanType)
	}
	fmt.Fprintf(&b, "Received: %s\n", lead.CreatedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Reference: %s\n\n", lead.ID)
	b.WriteString(lead.Message)
	b.WriteString("\n")
	return b.String()
}
